package interp

import "fmt"

// ValueKind tags the three-way discriminant of a data-stack Value (spec
// §4.3, §9): Integer, Var (a variable name) or Lambda (a callable id).
type ValueKind uint8

const (
	ValueInteger ValueKind = iota
	ValueVar
	ValueLambda
)

func (k ValueKind) String() string {
	switch k {
	case ValueInteger:
		return "Integer"
	case ValueVar:
		return "Var"
	case ValueLambda:
		return "Lambda"
	default:
		return "Unknown"
	}
}

// Value is a tagged data-stack cell. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind   ValueKind
	Int    int64
	Var    rune
	Lambda uint64
}

// Integer builds an Integer Value.
func Integer(i int64) Value { return Value{Kind: ValueInteger, Int: i} }

// VarValue builds a Var Value naming variable c.
func VarValue(c rune) Value { return Value{Kind: ValueVar, Var: c} }

// LambdaValue builds a Lambda Value referencing lambda id.
func LambdaValue(id uint64) Value { return Value{Kind: ValueLambda, Lambda: id} }

func (v Value) String() string {
	switch v.Kind {
	case ValueInteger:
		return fmt.Sprintf("%d", v.Int)
	case ValueVar:
		return fmt.Sprintf("var(%c)", v.Var)
	case ValueLambda:
		return fmt.Sprintf("lambda(%d)", v.Lambda)
	default:
		return "<invalid>"
	}
}

// raw returns the value's bit-reinterpreted int64, used by Coerce under
// TypeSafetyNone to convert freely between kinds (spec §4.3).
func (v Value) raw() int64 {
	switch v.Kind {
	case ValueInteger:
		return v.Int
	case ValueVar:
		return int64(byte(v.Var))
	case ValueLambda:
		return int64(v.Lambda)
	default:
		return 0
	}
}
