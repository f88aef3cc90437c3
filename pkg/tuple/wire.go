package tuple

import (
	"encoding/binary"
	"fmt"

	"relstore/pkg/dberrors"
	"relstore/pkg/types"
)

var le = binary.LittleEndian

func bitmapSize(numFields int) int {
	return (numFields + 7) / 8
}

func bitSet(bitmap []byte, i int) bool {
	return bitmap[i/8]&(0x80>>uint(i%8)) != 0
}

func setBit(bitmap []byte, i int) {
	bitmap[i/8] |= 0x80 >> uint(i%8)
}

// Encode packs values into the wire tuple form: a null bitmap followed by
// each non-null field in declared order.
func Encode(desc Descriptor, values []Value) ([]byte, error) {
	if len(values) != len(desc) {
		return nil, dberrors.New(dberrors.Invalid, "tuple.Encode", fmt.Errorf("descriptor has %d attributes, got %d values", len(desc), len(values)))
	}
	size := bitmapSize(len(desc))
	for i, attr := range desc {
		if values[i].IsNull {
			continue
		}
		n, err := fieldWireLen(attr, values[i])
		if err != nil {
			return nil, dberrors.New(dberrors.Invalid, "tuple.Encode", err)
		}
		size += n
	}

	buf := make([]byte, size)
	pos := bitmapSize(len(desc))
	for i, attr := range desc {
		v := values[i]
		if v.IsNull {
			setBit(buf, i)
			continue
		}
		switch attr.Type {
		case types.IntType, types.RealType:
			putFixed(buf[pos:pos+4], attr, v)
			pos += 4
		case types.VarCharType:
			le.PutUint32(buf[pos:pos+4], uint32(len(v.Str)))
			pos += 4
			copy(buf[pos:], v.Str)
			pos += len(v.Str)
		}
	}
	return buf, nil
}

// Decode unpacks a wire-form tuple according to desc.
func Decode(desc Descriptor, data []byte) ([]Value, error) {
	bmSize := bitmapSize(len(desc))
	if len(data) < bmSize {
		return nil, dberrors.New(dberrors.Corrupt, "tuple.Decode", fmt.Errorf("tuple shorter than its null bitmap"))
	}
	bitmap := data[:bmSize]
	pos := bmSize
	values := make([]Value, len(desc))
	for i, attr := range desc {
		if bitSet(bitmap, i) {
			values[i] = NullValue(attr.Type)
			continue
		}
		switch attr.Type {
		case types.IntType, types.RealType:
			if pos+4 > len(data) {
				return nil, dberrors.New(dberrors.Corrupt, "tuple.Decode", fmt.Errorf("truncated fixed field %q", attr.Name))
			}
			values[i] = getFixed(attr, data[pos:pos+4])
			pos += 4
		case types.VarCharType:
			if pos+4 > len(data) {
				return nil, dberrors.New(dberrors.Corrupt, "tuple.Decode", fmt.Errorf("truncated varchar length for %q", attr.Name))
			}
			n := int(le.Uint32(data[pos : pos+4]))
			pos += 4
			if pos+n > len(data) {
				return nil, dberrors.New(dberrors.Corrupt, "tuple.Decode", fmt.Errorf("truncated varchar payload for %q", attr.Name))
			}
			values[i] = StrValue(string(data[pos : pos+n]))
			pos += n
		}
	}
	return values, nil
}
