package features

import (
	"time"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const (
	ReleasedAtColumn       = "released_at"
	DaysSinceReleaseColumn = "days_since_release"
	LayoutColumn           = "layout"
	AbnormalLayoutColumn   = "abnormal_layout"

	releaseDateLayout = "2006-01-02"
	secondsPerDay     = 24 * 60 * 60
)

// DaysSinceRelease replaces released_at (YYYY-MM-DD) with the whole number of
// days between the release and asOf, appended as days_since_release. Future
// releases give negative values; null stays null.
func DaysSinceRelease(t *table.Table, asOf time.Time) (*table.Table, error) {
	const op = "days since release"
	c, err := t.Column(ReleasedAtColumn)
	if err != nil {
		return t, err
	}
	if !c.Is(table.KindString) {
		return t, table.TypeMismatch(op, ReleasedAtColumn, c.Type(), table.KindString)
	}

	y, m, d := asOf.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	vals := make([]table.Value, c.Len())
	for i := range vals {
		s, ok := c.At(i).Str()
		if !ok {
			continue
		}
		released, err := time.Parse(releaseDateLayout, s)
		if err != nil {
			return t, &ValueError{Op: op, Column: ReleasedAtColumn, Row: i, Value: s, Err: ErrInvalidDate}
		}
		vals[i] = table.Int((today.Unix() - released.Unix()) / secondsPerDay)
	}
	return swap(t, ReleasedAtColumn, table.NewColumn(DaysSinceReleaseColumn, vals))
}

// AbnormalLayout replaces layout with abnormal_layout: true for any layout other
// than "normal" (split, flip, transform, ...). Null stays null.
func AbnormalLayout(t *table.Table) (*table.Table, error) {
	const op = "abnormal layout"
	c, err := t.Column(LayoutColumn)
	if err != nil {
		return t, err
	}
	if !c.Is(table.KindString) {
		return t, table.TypeMismatch(op, LayoutColumn, c.Type(), table.KindString)
	}

	vals := make([]table.Value, c.Len())
	for i := range vals {
		if s, ok := c.At(i).Str(); ok {
			vals[i] = table.Bool(s != "normal")
		}
	}
	return swap(t, LayoutColumn, table.NewColumn(AbnormalLayoutColumn, vals))
}
