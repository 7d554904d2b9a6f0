package vm

import "strconv"

// Kind is the dynamic type of a register value.
type Kind int

const (
	Unset Kind = iota
	Int
	Bool
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return "unset"
	}
}

// Value is the content of a register. The zero Value is unset.
type Value struct {
	Kind Kind
	Int  int64
	Bool bool
	Str  string
}

func IntValue(v int64) Value { return Value{Kind: Int, Int: v} }
func BoolValue(v bool) Value { return Value{Kind: Bool, Bool: v} }
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// Truthy reports whether v counts as true in a condition: a non-zero int,
// true, or a non-empty string.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Int:
		return v.Int != 0
	case Bool:
		return v.Bool
	case String:
		return v.Str != ""
	}
	return false
}

// String formats v the way echo and print display it.
func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Bool:
		return strconv.FormatBool(v.Bool)
	case String:
		return v.Str
	default:
		return "<unset>"
	}
}
