// Package tuple encodes and decodes records in the wire form exchanged
// across the external interface and the on-page stored form used inside
// the record store. Both forms share a null bitmap; they differ in how
// fields after it are addressed (concatenated vs. an offset directory).
package tuple

import (
	"fmt"
	"math"

	"relstore/pkg/types"
)

// Value is a single typed field, tagged by which of Int/Real/Str is live.
// A sum type expressed as a struct rather than interface{}, so the query
// and comparator layers can switch on Type without a type assertion.
type Value struct {
	Type   types.AttrType
	IsNull bool
	Int    int32
	Real   float32
	Str    string
}

func NullValue(t types.AttrType) Value { return Value{Type: t, IsNull: true} }
func IntValue(v int32) Value           { return Value{Type: types.IntType, Int: v} }
func RealValue(v float32) Value        { return Value{Type: types.RealType, Real: v} }
func StrValue(v string) Value          { return Value{Type: types.VarCharType, Str: v} }

// Descriptor is an ordered list of attributes describing every field of a
// record, in the order they are encoded.
type Descriptor []types.Attribute

// IndexOf returns the position of name in d, or -1 if absent.
func (d Descriptor) IndexOf(name string) int {
	for i, a := range d {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// fieldWireLen returns the on-wire byte length of a non-null field, given
// its declared attribute.
func fieldWireLen(attr types.Attribute, v Value) (int, error) {
	switch attr.Type {
	case types.IntType, types.RealType:
		return 4, nil
	case types.VarCharType:
		if uint32(len(v.Str)) > attr.Length {
			return 0, fmt.Errorf("value length %d exceeds declared length %d for %q", len(v.Str), attr.Length, attr.Name)
		}
		return 4 + len(v.Str), nil
	default:
		return 0, fmt.Errorf("unknown attribute type %v", attr.Type)
	}
}

func putFixed(buf []byte, attr types.Attribute, v Value) {
	switch attr.Type {
	case types.IntType:
		le.PutUint32(buf, uint32(v.Int))
	case types.RealType:
		le.PutUint32(buf, math.Float32bits(v.Real))
	}
}

func getFixed(attr types.Attribute, buf []byte) Value {
	switch attr.Type {
	case types.IntType:
		return IntValue(int32(le.Uint32(buf)))
	case types.RealType:
		return RealValue(math.Float32frombits(le.Uint32(buf)))
	}
	return Value{}
}
