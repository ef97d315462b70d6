package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindStrings
	KindNumber
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindStrings:
		return "string array"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single profile field value: a string, a string array,
// a number or null. The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	list []string
	num  float64
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

func Strings(ss ...string) Value {
	list := make([]string, len(ss))
	copy(list, ss)
	return Value{kind: KindStrings, list: list}
}

func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

func Null() Value {
	return Value{}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsString() string {
	return v.str
}

// AsStrings returns a copy of the list.
func (v Value) AsStrings() []string {
	if v.kind != KindStrings {
		return nil
	}
	list := make([]string, len(v.list))
	copy(list, v.list)
	return list
}

func (v Value) AsNumber() float64 {
	return v.num
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindStrings:
		return slices.Equal(v.list, other.list)
	case KindNumber:
		return v.num == other.num
	default:
		return true
	}
}

// SQLArg returns the value in a form pgx can bind.
func (v Value) SQLArg() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindStrings:
		return v.AsStrings()
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindStrings:
		return fmt.Sprintf("%q", v.list)
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	default:
		return "null"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindStrings:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindNumber:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty json value", ErrInvalidValue)
	}

	switch trimmed[0] {
	case 'n':
		if string(trimmed) != "null" {
			return fmt.Errorf("%w: %s", ErrInvalidValue, trimmed)
		}
		*v = Null()
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidValue, err)
		}
		*v = String(s)
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("%w: only string arrays are supported: %s", ErrInvalidValue, err)
		}
		*v = Strings(list...)
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidValue, err)
		}
		*v = Number(n)
	}

	return nil
}
