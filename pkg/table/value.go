package table

import (
	"encoding/json"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind tags the payload carried by a Value. Column types reuse it, with
// KindMixed reserved for columns whose values disagree.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDecimal
	KindList
	KindMap
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDecimal:
		return "decimal"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindMixed:
		return "mixed"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one cell. The zero Value is null (absent).
//
// Values are immutable: list and map payloads are copied on the way in and on the
// way out.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	dec  decimal.Decimal
	list []Value
	keys []string
	m    map[string]Value
}

// Entry is one key/value pair of a map Value.
type Entry struct {
	Key   string
	Value Value
}

func Null() Value                     { return Value{} }
func String(s string) Value           { return Value{kind: KindString, str: s} }
func Int(i int64) Value               { return Value{kind: KindInt, i: i} }
func Float(f float64) Value           { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value               { return Value{kind: KindBool, b: b} }
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }

// List builds a list value.
func List(vals ...Value) Value {
	return Value{kind: KindList, list: slices.Clone(vals)}
}

// Tokens builds a token sequence: a list of strings.
func Tokens(tokens ...string) Value {
	vals := make([]Value, len(tokens))
	for i, t := range tokens {
		vals[i] = String(t)
	}
	return Value{kind: KindList, list: vals}
}

// Map builds a map value that keeps the entry order. A repeated key keeps its
// first position and its last value.
func Map(entries ...Entry) Value {
	v := Value{kind: KindMap, keys: make([]string, 0, len(entries)), m: make(map[string]Value, len(entries))}
	for _, e := range entries {
		if _, ok := v.m[e.Key]; !ok {
			v.keys = append(v.keys, e.Key)
		}
		v.m[e.Key] = e.Value
	}
	return v
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Int64 returns the int payload.
func (v Value) Int64() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Float64 returns the numeric payload of int, float and decimal values.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindDecimal:
		return v.dec.InexactFloat64(), true
	default:
		return 0, false
	}
}

// BoolVal returns the bool payload.
func (v Value) BoolVal() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Dec returns the decimal payload.
func (v Value) Dec() (decimal.Decimal, bool) {
	return v.dec, v.kind == KindDecimal
}

// Items returns a copy of the list payload.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

// Strings returns the token sequence of a list made only of strings.
func (v Value) Strings() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]string, len(v.list))
	for i, item := range v.list {
		s, ok := item.Str()
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// Keys returns the keys of a map value in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	return slices.Clone(v.keys)
}

// Get looks up a key of a map value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	out, ok := v.m[key]
	return out, ok
}

// Equal reports deep equality. Decimals compare by numeric value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindDecimal:
		return v.dec.Equal(o.dec)
	case KindList:
		return slices.EqualFunc(v.list, o.list, Value.Equal)
	case KindMap:
		if !slices.Equal(v.keys, o.keys) {
			return false
		}
		for _, k := range v.keys {
			if !v.m[k].Equal(o.m[k]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the value as a flat cell: null is empty, lists and maps are JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDecimal:
		return v.dec.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// MarshalJSON encodes the value as plain JSON; map keys keep their order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindDecimal:
		return json.Marshal(v.dec.String())
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		buf := []byte{'{'}
		for i, k := range v.keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = append(buf, vb...)
		}
		return append(buf, '}'), nil
	default:
		return []byte("null"), nil
	}
}
