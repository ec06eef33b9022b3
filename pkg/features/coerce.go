package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// NumericKind selects the target of CoerceNumeric.
type NumericKind int

const (
	NumericFloat NumericKind = iota
	NumericInt
)

func (k NumericKind) String() string {
	if k == NumericInt {
		return "int"
	}
	return "float"
}

// ParseNumericKind accepts "int"/"integer" and "float"/"float64"/"number".
func ParseNumericKind(s string) (NumericKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "int64":
		return NumericInt, nil
	case "float", "float64", "number", "":
		return NumericFloat, nil
	default:
		return 0, fmt.Errorf("unknown numeric kind %q", s)
	}
}

// PresenceFlag replaces a column with a bool recording whether each value was
// present. The content is discarded; use CoerceNumeric to keep numbers.
func PresenceFlag(t *table.Table, column string) (*table.Table, error) {
	c, err := t.Column(column)
	if err != nil {
		return t, err
	}
	vals := make([]table.Value, c.Len())
	for i := range vals {
		vals[i] = table.Bool(!c.At(i).IsNull())
	}
	return t.Replace(table.NewColumn(column, vals))
}

// CoerceNumeric converts a column to ints or floats in place. Null stays null,
// strings are parsed, bools become 1 or 0. An unparseable or infinite value, or
// one that is fractional or out of int64 range when ints are requested, is
// ErrNonNumericValue.
func CoerceNumeric(t *table.Table, column string, kind NumericKind) (*table.Table, error) {
	const op = "coerce numeric"
	c, err := t.Column(column)
	if err != nil {
		return t, err
	}
	if !c.Is(table.KindString, table.KindInt, table.KindFloat, table.KindDecimal, table.KindBool, table.KindMixed) {
		return t, table.TypeMismatch(op, column, c.Type(), table.KindString, table.KindInt, table.KindFloat, table.KindDecimal, table.KindBool)
	}

	convert := toFloat
	if kind == NumericInt {
		convert = toInt
	}
	vals := make([]table.Value, c.Len())
	for i := range vals {
		v := c.At(i)
		if v.IsNull() {
			continue
		}
		out, ok := convert(v)
		if !ok {
			return t, &ValueError{Op: op, Column: column, Row: i, Value: v.String(), Err: ErrNonNumericValue}
		}
		vals[i] = out
	}
	return t.Replace(table.NewColumn(column, vals))
}

func toFloat(v table.Value) (table.Value, bool) {
	if b, ok := v.BoolVal(); ok {
		return table.Float(boolNumber(b)), true
	}
	if s, ok := v.Str(); ok {
		f, ok := parseFinite(s)
		return table.Float(f), ok
	}
	f, ok := v.Float64()
	return table.Float(f), ok
}

func toInt(v table.Value) (table.Value, bool) {
	switch v.Kind() {
	case table.KindInt:
		return v, true
	case table.KindBool:
		b, _ := v.BoolVal()
		return table.Int(int64(boolNumber(b))), true
	case table.KindDecimal:
		d, _ := v.Dec()
		if !d.IsInteger() || d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
			return table.Value{}, false
		}
		return table.Int(d.IntPart()), true
	case table.KindFloat:
		f, _ := v.Float64()
		return floatToInt(f)
	case table.KindString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return table.Int(n), true
		}
		f, ok := parseFinite(s)
		if !ok {
			return table.Value{}, false
		}
		return floatToInt(f)
	default:
		return table.Value{}, false
	}
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// floatToInt accepts whole numbers in [-2^63, 2^63).
func floatToInt(f float64) (table.Value, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return table.Value{}, false
	}
	return table.Int(int64(f)), true
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
