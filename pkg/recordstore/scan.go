package recordstore

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// ScanIterator walks every live record in a store, page by page, slot by
// slot, applying an optional single-attribute comparison pushdown and a
// projection list.
type ScanIterator struct {
	store     *Store
	desc      tuple.Descriptor
	condAttr  int
	op        types.CompOp
	value     tuple.Value
	projected []int

	pageNum uint32
	slotIdx uint16
	done    bool
}

// Scan starts a full scan of desc-shaped records. Pass condAttr < 0 or
// op == types.NoOp to disable the pushdown predicate. A nil projected
// returns every attribute in descriptor order.
func (s *Store) Scan(desc tuple.Descriptor, condAttr int, op types.CompOp, value tuple.Value, projected []int) *ScanIterator {
	if projected == nil {
		projected = make([]int, len(desc))
		for i := range desc {
			projected[i] = i
		}
	}
	return &ScanIterator{
		store:     s,
		desc:      desc,
		condAttr:  condAttr,
		op:        op,
		value:     value,
		projected: projected,
		pageNum:   1,
	}
}

// Next returns the next qualifying record's projected values and RID.
// ok is false once the scan is exhausted.
func (it *ScanIterator) Next() ([]tuple.Value, types.RID, bool, error) {
	if it.done {
		return nil, types.RID{}, false, nil
	}
	for {
		if it.pageNum >= it.store.fh.NumPages() {
			it.done = true
			return nil, types.RID{}, false, nil
		}
		if isDirectoryPage(it.pageNum) {
			it.pageNum++
			it.slotIdx = 0
			continue
		}
		pg, err := it.store.fh.ReadPage(it.pageNum)
		if err != nil {
			return nil, types.RID{}, false, err
		}
		slotMax := getSlotCount(pg)
		for it.slotIdx < slotMax {
			idx := it.slotIdx
			it.slotIdx++
			off, length := readSlot(pg, idx)
			if length == 0 || isForwarded(off) {
				continue
			}
			loc := storageLoc(off)
			raw := pg.Data[loc : loc+int(length)]
			values, err := tuple.DecodeStored(it.desc, raw)
			if err != nil {
				return nil, types.RID{}, false, err
			}
			if it.condAttr >= 0 && it.op != types.NoOp {
				if !matches(it.op, values[it.condAttr], it.value) {
					continue
				}
			}
			proj := make([]tuple.Value, len(it.projected))
			for i, a := range it.projected {
				proj[i] = values[a]
			}
			rid := types.RID{PageNum: it.pageNum, SlotNum: uint32(idx)}
			return proj, rid, true, nil
		}
		it.pageNum++
		it.slotIdx = 0
	}
}

// Close releases the iterator. Safe to call multiple times.
func (it *ScanIterator) Close() { it.done = true }

func matches(op types.CompOp, field, target tuple.Value) bool {
	if field.IsNull || target.IsNull {
		if field.IsNull && target.IsNull && op == types.EQ {
			return true
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
