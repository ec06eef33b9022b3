package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FromRows builds a table from row-major cells. Every row must have one cell per name.
func FromRows(names []string, rows ...[]Value) (*Table, error) {
	cols := make([][]Value, len(names))
	for i := range cols {
		cols[i] = make([]Value, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", r, len(row), len(names), ErrLengthMismatch)
		}
		for c, v := range row {
			cols[c][r] = v
		}
	}
	built := make([]*Column, len(names))
	for i, n := range names {
		built[i] = newColumn(n, cols[i])
	}
	return New(built...)
}

// DecodeJSONArray reads a JSON array of objects into a table, one row per
// object. Columns appear in first-seen key order; a row missing a key gets null.
// Integral JSON numbers become ints, all others floats.
func DecodeJSONArray(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read array start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected JSON array, got %v", tok)
	}

	var (
		order []string
		cols  = map[string][]Value{}
		rows  int
	)
	for dec.More() {
		obj, err := readValue(dec)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", rows, err)
		}
		if obj.Kind() != KindMap {
			return nil, fmt.Errorf("decode row %d: expected object, got %s", rows, obj.Kind())
		}
		for _, k := range obj.keys {
			vals, ok := cols[k]
			if !ok {
				order = append(order, k)
				// Backfill earlier rows that lacked this key.
				vals = make([]Value, rows, rows+1)
			}
			cols[k] = append(vals, obj.m[k])
		}
		rows++
		for _, k := range order {
			if len(cols[k]) < rows {
				cols[k] = append(cols[k], Value{})
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read array end: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON array")
	}

	built := make([]*Column, len(order))
	for i, name := range order {
		built[i] = newColumn(name, cols[name])
	}
	t, err := New(built...)
	if err != nil {
		return nil, err
	}
	t.rows = rows
	return t, nil
}

// ParseJSON decodes a single JSON document into a Value.
func ParseJSON(b []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := readValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch v := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		return numberValue(v)
	case json.Delim:
		switch v {
		case '{':
			var entries []Entry
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected object key, got %v", kt)
				}
				val, err := readValue(dec)
				if err != nil {
					return Value{}, fmt.Errorf("key %q: %w", key, err)
				}
				entries = append(entries, Entry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Map(entries...), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindList, list: items}, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

func numberValue(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("parse number %q: %w", s, err)
	}
	return Float(f), nil
}
