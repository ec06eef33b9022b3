package features

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFormat   = errors.New("unknown format")
	ErrUnknownRarity   = errors.New("unknown rarity")
	ErrUnknownStatus   = errors.New("unknown legality status")
	ErrNonNumericValue = errors.New("non-numeric value")
	ErrInvalidDate     = errors.New("invalid date")
)

// ValueError reports a cell that a transform could not handle.
type ValueError struct {
	Op     string
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ValueError) Error() string {
	if e == nil {
		return "feature value error"
	}
	return fmt.Sprintf("%s: column %q row %d: %v: %q", e.Op, e.Column, e.Row, e.Err, e.Value)
}

func (e *ValueError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func unknownFormat(op, format string) error {
	return fmt.Errorf("%s: %w %q", op, ErrUnknownFormat, format)
}
