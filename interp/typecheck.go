package interp

import "github.com/MixusMinimax/falsec/source"

// Coerce validates and converts v to the requested kind according to ts
// (spec §4.3):
//
//   - TypeSafetyNone always coerces: the value's bit pattern is
//     reinterpreted as whatever kind is requested.
//   - TypeSafetyLambda additionally requires an exact kind match when the
//     requested kind is Lambda.
//   - TypeSafetyLambdaAndVar additionally requires an exact match when the
//     requested kind is Lambda or Var.
//   - TypeSafetyFull requires an exact match for every requested kind.
func Coerce(v Value, want ValueKind, ts source.TypeSafety) (Value, error) {
	if v.Kind == want {
		return v, nil
	}
	if strict(want, ts) {
		return Value{}, typeCastError(v.Kind, want)
	}
	raw := v.raw()
	switch want {
	case ValueInteger:
		return Integer(raw), nil
	case ValueVar:
		return VarValue(rune(byte(raw))), nil
	case ValueLambda:
		return LambdaValue(uint64(raw)), nil
	default:
		return Value{}, typeCastError(v.Kind, want)
	}
}

func strict(want ValueKind, ts source.TypeSafety) bool {
	switch ts {
	case source.TypeSafetyNone:
		return false
	case source.TypeSafetyLambda:
		return want == ValueLambda
	case source.TypeSafetyLambdaAndVar:
		return want == ValueLambda || want == ValueVar
	case source.TypeSafetyFull:
		return true
	default:
		return false
	}
}
