package source

import (
	"encoding/json"
	"fmt"
)

// MetaKind enumerates the value types a metadata bag may carry.
// Keeping the union closed keeps normalization total: an adapter can
// never smuggle an arbitrary object graph through a result.
type MetaKind int

const (
	MetaString MetaKind = iota
	MetaNumber
	MetaBool
	MetaStringList
)

// MetaValue is one typed metadata value.
type MetaValue struct {
	kind MetaKind
	str  string
	num  float64
	b    bool
	list []string
}

// Metadata is the opaque, typed key-value bag attached to a raw result.
type Metadata map[string]MetaValue

// String creates a string metadata value.
func String(v string) MetaValue { return MetaValue{kind: MetaString, str: v} }

// Number creates a numeric metadata value.
func Number(v float64) MetaValue { return MetaValue{kind: MetaNumber, num: v} }

// Bool creates a boolean metadata value.
func Bool(v bool) MetaValue { return MetaValue{kind: MetaBool, b: v} }

// StringList creates a string-list metadata value.
func StringList(v ...string) MetaValue { return MetaValue{kind: MetaStringList, list: v} }

// Kind returns the value's type tag.
func (v MetaValue) Kind() MetaKind { return v.kind }

// AsString returns the string value and whether the kind matched.
func (v MetaValue) AsString() (string, bool) { return v.str, v.kind == MetaString }

// AsNumber returns the numeric value and whether the kind matched.
func (v MetaValue) AsNumber() (float64, bool) { return v.num, v.kind == MetaNumber }

// AsBool returns the boolean value and whether the kind matched.
func (v MetaValue) AsBool() (bool, bool) { return v.b, v.kind == MetaBool }

// AsStringList returns the list value and whether the kind matched.
func (v MetaValue) AsStringList() ([]string, bool) { return v.list, v.kind == MetaStringList }

// MarshalJSON encodes the value as its natural JSON type.
func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaString:
		return json.Marshal(v.str)
	case MetaNumber:
		return json.Marshal(v.num)
	case MetaBool:
		return json.Marshal(v.b)
	case MetaStringList:
		return json.Marshal(v.list)
	default:
		return nil, fmt.Errorf("unknown metadata kind %d", v.kind)
	}
}

// UnmarshalJSON decodes a JSON scalar or string array into the union.
// Any other shape is rejected, keeping the bag predictable.
func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = String(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Number(n)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Bool(b)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = StringList(list...)
		return nil
	}
	return fmt.Errorf("metadata value must be string, number, bool, or string list")
}
