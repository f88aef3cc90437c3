package tuple

import (
	"fmt"

	"relstore/pkg/dberrors"
	"relstore/pkg/types"
)

// offsetDirSize is the byte size of the stored-record offset directory:
// one 2-byte cumulative end offset per field.
func offsetDirSize(numFields int) int {
	return numFields * 2
}

// StoredLen returns the exact on-page size EncodeStored will produce for
// values under desc, without doing the encoding.
func StoredLen(desc Descriptor, values []Value) (int, error) {
	if len(values) != len(desc) {
		return 0, dberrors.New(dberrors.Invalid, "tuple.StoredLen", fmt.Errorf("descriptor has %d attributes, got %d values", len(desc), len(values)))
	}
	size := bitmapSize(len(desc)) + offsetDirSize(len(desc))
	for i, attr := range desc {
		if values[i].IsNull {
			continue
		}
		n, err := fieldWireLen(attr, values[i])
		if err != nil {
			return 0, dberrors.New(dberrors.Invalid, "tuple.StoredLen", err)
		}
		// The stored form omits the varchar's own 4-byte length prefix
		// from the field-data region, since the offset directory already
		// yields each field's length as end[i]-end[i-1].
		if attr.Type == types.VarCharType {
			n -= 4
		}
		size += n
	}
	return size, nil
}

// EncodeStored packs values into the on-page stored record form: a null
// bitmap, an offset directory of per-field cumulative end offsets
// (measured from the start of the field-data region), then the field data
// concatenated with no per-field length prefix (lengths are recovered
// from consecutive offsets).
func EncodeStored(desc Descriptor, values []Value) ([]byte, error) {
	if len(values) != len(desc) {
		return nil, dberrors.New(dberrors.Invalid, "tuple.EncodeStored", fmt.Errorf("descriptor has %d attributes, got %d values", len(desc), len(values)))
	}
	n := len(desc)
	bmSize := bitmapSize(n)
	dirSize := offsetDirSize(n)
	dataSize := 0
	ends := make([]uint16, n)
	for i, attr := range desc {
		if values[i].IsNull {
			ends[i] = uint16(dataSize)
			continue
		}
		switch attr.Type {
		case types.IntType, types.RealType:
			dataSize += 4
		case types.VarCharType:
			if uint32(len(values[i].Str)) > attr.Length {
				return nil, dberrors.New(dberrors.Invalid, "tuple.EncodeStored", fmt.Errorf("value length %d exceeds declared length %d for %q", len(values[i].Str), attr.Length, attr.Name))
			}
			dataSize += len(values[i].Str)
		}
		ends[i] = uint16(dataSize)
	}

	buf := make([]byte, bmSize+dirSize+dataSize)
	bitmap := buf[:bmSize]
	dir := buf[bmSize : bmSize+dirSize]
	fields := buf[bmSize+dirSize:]

	dataPos := 0
	for i, attr := range desc {
		le.PutUint16(dir[i*2:i*2+2], ends[i])
		if values[i].IsNull {
			setBit(bitmap, i)
			continue
		}
		switch attr.Type {
		case types.IntType, types.RealType:
			putFixed(fields[dataPos:dataPos+4], attr, values[i])
			dataPos += 4
		case types.VarCharType:
			copy(fields[dataPos:], values[i].Str)
			dataPos += len(values[i].Str)
		}
	}
	return buf, nil
}

// DecodeStored is the inverse of EncodeStored, materializing the wire
// Value slice from a stored record's raw bytes.
func DecodeStored(desc Descriptor, data []byte) ([]Value, error) {
	n := len(desc)
	bmSize := bitmapSize(n)
	dirSize := offsetDirSize(n)
	if len(data) < bmSize+dirSize {
		return nil, dberrors.New(dberrors.Corrupt, "tuple.DecodeStored", fmt.Errorf("stored record shorter than header"))
	}
	bitmap := data[:bmSize]
	dir := data[bmSize : bmSize+dirSize]
	fields := data[bmSize+dirSize:]

	values := make([]Value, n)
	begin := uint16(0)
	for i, attr := range desc {
		end := le.Uint16(dir[i*2 : i*2+2])
		if bitSet(bitmap, i) {
			values[i] = NullValue(attr.Type)
			begin = end
			continue
		}
		if int(end) > len(fields) || end < begin {
			return nil, dberrors.New(dberrors.Corrupt, "tuple.DecodeStored", fmt.Errorf("offset directory entry %d out of range", i))
		}
		raw := fields[begin:end]
		switch attr.Type {
		case types.IntType, types.RealType:
			if len(raw) != 4 {
				return nil, dberrors.New(dberrors.Corrupt, "tuple.DecodeStored", fmt.Errorf("fixed field %q has stored length %d", attr.Name, len(raw)))
			}
			values[i] = getFixed(attr, raw)
		case types.VarCharType:
			values[i] = StrValue(string(raw))
		}
		begin = end
	}
	return values, nil
}

// ReadStoredField returns the raw bytes of one field from a stored record,
// in O(1), using the offset directory. For fixed fields the raw bytes are
// the 4-byte encoding; for VarChar they are the string payload with no
// length prefix.
func ReadStoredField(desc Descriptor, data []byte, attrIndex int) ([]byte, bool, error) {
	n := len(desc)
	bmSize := bitmapSize(n)
	dirSize := offsetDirSize(n)
	if attrIndex < 0 || attrIndex >= n {
		return nil, false, dberrors.New(dberrors.Invalid, "tuple.ReadStoredField", fmt.Errorf("attribute index %d out of range", attrIndex))
	}
	if len(data) < bmSize+dirSize {
		return nil, false, dberrors.New(dberrors.Corrupt, "tuple.ReadStoredField", fmt.Errorf("stored record shorter than header"))
	}
	bitmap := data[:bmSize]
	dir := data[bmSize : bmSize+dirSize]
	fields := data[bmSize+dirSize:]

	if bitSet(bitmap, attrIndex) {
		return nil, true, nil
	}
	begin := uint16(0)
	if attrIndex > 0 {
		begin = le.Uint16(dir[(attrIndex-1)*2 : (attrIndex-1)*2+2])
	}
	end := le.Uint16(dir[attrIndex*2 : attrIndex*2+2])
	if int(end) > len(fields) || end < begin {
		return nil, false, dberrors.New(dberrors.Corrupt, "tuple.ReadStoredField", fmt.Errorf("offset directory entry %d out of range", attrIndex))
	}
	return fields[begin:end], false, nil
}
