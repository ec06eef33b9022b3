package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownColumn  = errors.New("unknown column")
	ErrSchemaConflict = errors.New("schema conflict")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrLengthMismatch = errors.New("column length mismatch")
)

// ColumnError reports a schema-level failure on one column.
type ColumnError struct {
	Op     string
	Column string
	// Detail is an optional human hint, for example the offending column type.
	Detail string
	Err    error
}

func (e *ColumnError) Error() string {
	if e == nil {
		return "table column error"
	}
	parts := []string{fmt.Sprintf("%s: column %q", strings.TrimSpace(e.Op), e.Column)}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if strings.TrimSpace(e.Detail) != "" {
		parts = append(parts, strings.TrimSpace(e.Detail))
	}
	return strings.Join(parts, ": ")
}

func (e *ColumnError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func unknownColumn(op, name string) error {
	return &ColumnError{Op: op, Column: name, Err: ErrUnknownColumn}
}

func conflict(op, name string) error {
	return &ColumnError{Op: op, Column: name, Err: ErrSchemaConflict, Detail: "name already in use"}
}

// TypeMismatch builds the error returned when a column holds values of the wrong kind.
func TypeMismatch(op, name string, got Kind, want ...Kind) error {
	names := make([]string, len(want))
	for i, k := range want {
		names[i] = k.String()
	}
	return &ColumnError{
		Op:     op,
		Column: name,
		Err:    ErrTypeMismatch,
		Detail: fmt.Sprintf("got %s, want %s", got, strings.Join(names, " or ")),
	}
}
