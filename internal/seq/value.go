// internal/seq/value.go
package seq

import (
	"strconv"
	"strings"
)

// Kind tags the scalar held by a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Value is a scalar attribute: string, float, integer or boolean.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	s    string
	f    float64
	i    int64
	b    bool
}

func String(s string) Value { return Value{kind: KindString, s: s} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsZero() bool { return v == Value{} }

// String renders the value for text and tabular output.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// AsFloat interprets the value as a number. Strings are parsed; values
// that are not numeric yield 0.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0
		}
		return f
	}
}
