package queryexec

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// matches applies the external comparison-operator semantics: EQ with
// both sides null is true, any other op with exactly one null side is
// true iff op is NE, NO_OP matches everything.
func matches(op types.CompOp, field, target tuple.Value) bool {
	if op == types.NoOp {
		return true
	}
	if field.IsNull || target.IsNull {
		if field.IsNull && target.IsNull {
			return op == types.EQ
		}
		return op == types.NE
	}
	switch field.Type {
	case types.IntType:
		return compareOrdered(op, int64(field.Int), int64(target.Int))
	case types.RealType:
		return compareOrderedFloat(op, float64(field.Real), float64(target.Real))
	case types.VarCharType:
		return compareOrderedString(op, field.Str, target.Str)
	default:
		return false
	}
}

func compareOrdered(op types.CompOp, a, b int64) bool {
	switch op {
	case types.EQ:
		return a == b
	case types.LT:
		return a < b
	case types.LE:
		return a <= b
	case types.GT:
		return a > b
	case types.GE:
		return a >= b
	case types.NE:
		return a != b
	default:
		return true
	}
}

func compareOrderedFloat(op types.CompOp, a, b float64) bool {
	switch op {
	case types.EQ:
		return a == b
	case types.LT:
		return a < b
	case types.LE:
		return a <= b
	case types.GT:
		return a > b
	case types.GE:
		return a >= b
	case types.NE:
		return a != b
	default:
		return true
	}
}

func compareOrderedString(op types.CompOp, a, b string) bool {
	switch op {
	case types.EQ:
		return a == b
	case types.LT:
		return a < b
	case types.LE:
		return a <= b
	case types.GT:
		return a > b
	case types.GE:
		return a >= b
	case types.NE:
		return a != b
	default:
		return true
	}
}

// valueKey renders a value to a comparable Go key for use as a hash
// join / aggregate group-by key.
func valueKey(v tuple.Value) any {
	if v.IsNull {
		return nil
	}
	switch v.Type {
	case types.IntType:
		return v.Int
	case types.RealType:
		return v.Real
	case types.VarCharType:
		return v.Str
	default:
		return nil
	}
}

func valueEqual(a, b tuple.Value) bool {
	return matches(types.EQ, a, b)
}
