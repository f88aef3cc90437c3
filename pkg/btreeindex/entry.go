// Package btreeindex implements a disk-resident B+-tree over composite
// (key, record-id) entries, keyed on a single attribute of a single
// table. Duplicate key values are permitted; the composite order of
// (key, rid) makes every entry unique and delete unambiguous. Like
// recordstore, there is no buffer pool: nodes are read fresh from disk on
// every access and written back explicitly.
package btreeindex

import (
	"encoding/binary"
	"math"

	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

var le = binary.LittleEndian

// entry is one composite (key, rid) pair: a leaf's data entry, or an
// inner node's routing separator.
type entry struct {
	key tuple.Value
	rid types.RID
}

// keyEncodedLen returns the fixed on-disk width of attr's key value: 4
// bytes for Int/Real, attr.Length bytes for VarChar (zero-padded/
// truncated to the declared length, matching the byte-lexicographic
// comparison over that fixed prefix).
func keyEncodedLen(attr types.Attribute) int {
	switch attr.Type {
	case types.VarCharType:
		return int(attr.Length)
	default:
		return types.FixedFieldSize
	}
}

func entrySize(attr types.Attribute) int {
	return keyEncodedLen(attr) + ridSize
}

const ridSize = 8

func encodeEntry(attr types.Attribute, e entry, out []byte) {
	switch attr.Type {
	case types.IntType:
		le.PutUint32(out, uint32(e.key.Int))
	case types.RealType:
		le.PutUint32(out, math.Float32bits(e.key.Real))
	case types.VarCharType:
		n := copy(out, e.key.Str)
		for i := n; i < int(attr.Length); i++ {
			out[i] = 0
		}
	}
	klen := keyEncodedLen(attr)
	le.PutUint32(out[klen:], e.rid.PageNum)
	le.PutUint32(out[klen+4:], e.rid.SlotNum)
}

func decodeEntry(attr types.Attribute, in []byte) entry {
	var v tuple.Value
	v.Type = attr.Type
	switch attr.Type {
	case types.IntType:
		v.Int = int32(le.Uint32(in))
	case types.RealType:
		v.Real = math.Float32frombits(le.Uint32(in))
	case types.VarCharType:
		klen := int(attr.Length)
		end := klen
		for end > 0 && in[end-1] == 0 {
			end--
		}
		v.Str = string(in[:end])
	}
	klen := keyEncodedLen(attr)
	return entry{
		key: v,
		rid: types.RID{PageNum: le.Uint32(in[klen:]), SlotNum: le.Uint32(in[klen+4:])},
	}
}

// compareKey orders two typed key values of the same attribute type.
func compareKey(a, b tuple.Value) int {
	switch a.Type {
	case types.IntType:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	case types.RealType:
		switch {
		case a.Real < b.Real:
			return -1
		case a.Real > b.Real:
			return 1
		default:
			return 0
		}
	case types.VarCharType:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func compareRID(a, b types.RID) int {
	switch {
	case a.PageNum != b.PageNum:
		if a.PageNum < b.PageNum {
			return -1
		}
		return 1
	case a.SlotNum != b.SlotNum:
		if a.SlotNum < b.SlotNum {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// compareEntry orders by key first, then rid, the composite order the
// whole tree is built on.
func compareEntry(a, b entry) int {
	if c := compareKey(a.key, b.key); c != 0 {
		return c
	}
	return compareRID(a.rid, b.rid)
}

// lowRID/highRID are the synthetic RIDs used to descend exclusive of a
// bound: lowRID skips every entry sharing the bound key, highRID never
// does.
var (
	lowRID  = types.RID{PageNum: 0xFFFFFFFF, SlotNum: 0xFFFFFFFF}
	highRID = types.RID{PageNum: 0, SlotNum: 0}
)
