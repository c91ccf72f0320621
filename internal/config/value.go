package config

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind is the type of a configuration value. A key's kind is fixed by its
// default value at registration.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStringList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged configuration value. The zero Value is the absence marker.
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int
	f    float64
	list []string
}

// Null returns the absence marker. Any key can be set to it.
func Null() Value { return Value{} }

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func IntValue(i int) Value { return Value{kind: KindInt, i: i} }

func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

func ListValue(items []string) Value {
	return Value{kind: KindStringList, list: slices.Clone(items)}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the absence marker.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by v, or "" for other kinds.
func (v Value) AsString() string { return v.s }

// AsBool returns the bool held by v, or false for other kinds.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the int held by v, or 0 for other kinds.
func (v Value) AsInt() int { return v.i }

// AsFloat returns the float held by v, or 0 for other kinds.
func (v Value) AsFloat() float64 { return v.f }

// AsList returns a copy of the list held by v.
func (v Value) AsList() []string { return slices.Clone(v.list) }

// Equal compares kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == other.s
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindStringList:
		return slices.Equal(v.list, other.list)
	default:
		return true
	}
}

// Raw returns v as a plain Go value suitable for YAML encoding.
func (v Value) Raw() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindStringList:
		return slices.Clone(v.list)
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.Itoa(v.i)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindStringList:
		return strings.Join(v.list, ",")
	default:
		return "null"
	}
}

// ParseBool accepts true/false, on/off, enabled/disabled, yes/no and 1/0 in
// any case. An empty string is true so a bare "-flag" argument enables it.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "on", "enabled", "yes", "1":
		return true, nil
	case "false", "off", "disabled", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", s)
	}
}

// Coerce converts a raw value read from a file or the command line into a
// Value of the requested kind. nil always yields Null.
func Coerce(raw any, kind Kind) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	if v, ok := raw.(Value); ok {
		if v.IsNull() || v.kind == kind {
			return v, nil
		}
		raw = v.Raw()
	}

	switch kind {
	case KindString:
		switch r := raw.(type) {
		case string:
			return StringValue(r), nil
		case bool, int, int64, float64:
			return StringValue(fmt.Sprint(r)), nil
		}
	case KindBool:
		switch r := raw.(type) {
		case bool:
			return BoolValue(r), nil
		case string:
			b, err := ParseBool(r)
			if err != nil {
				return Value{}, err
			}
			return BoolValue(b), nil
		case int:
			if r == 0 || r == 1 {
				return BoolValue(r == 1), nil
			}
		}
	case KindInt:
		switch r := raw.(type) {
		case int:
			return IntValue(r), nil
		case int64:
			return IntValue(int(r)), nil
		case float64:
			if r == math.Trunc(r) {
				return IntValue(int(r)), nil
			}
		case string:
			i, err := strconv.Atoi(strings.TrimSpace(r))
			if err != nil {
				return Value{}, fmt.Errorf("invalid integer value %q", r)
			}
			return IntValue(i), nil
		}
	case KindFloat:
		switch r := raw.(type) {
		case float64:
			return FloatValue(r), nil
		case int:
			return FloatValue(float64(r)), nil
		case int64:
			return FloatValue(float64(r)), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid number value %q", r)
			}
			return FloatValue(f), nil
		}
	case KindStringList:
		switch r := raw.(type) {
		case []string:
			return ListValue(r), nil
		case []any:
			items := make([]string, 0, len(r))
			for _, item := range r {
				s, ok := item.(string)
				if !ok {
					return Value{}, fmt.Errorf("list item %v is not a string", item)
				}
				items = append(items, s)
			}
			return ListValue(items), nil
		case string:
			if strings.TrimSpace(r) == "" {
				return ListValue(nil), nil
			}
			parts := strings.Split(r, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return ListValue(parts), nil
		}
	}

	return Value{}, fmt.Errorf("cannot use %T value %v as %s", raw, raw, kind)
}
