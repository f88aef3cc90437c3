package recordstore

import (
	"fmt"

	"relstore/pkg/dberrors"
	"relstore/pkg/page"
	"relstore/pkg/types"
)

// freeRecordAt removes removeLen bytes at removeLoc from the record
// region and shifts everything after it left to close the gap, then
// fixes up every slot (local or forwarding) whose storage location fell
// after the removed record. Compaction happens immediately, so the
// record region never has gaps.
func freeRecordAt(pg *page.Page, removeLoc, removeLen int) {
	end := recordRegionEnd(pg)
	copy(pg.Data[removeLoc:], pg.Data[removeLoc+removeLen:end])
	for i := end - removeLen; i < end; i++ {
		pg.Data[i] = 0
	}

	sc := getSlotCount(pg)
	for i := uint16(0); i < sc; i++ {
		off, length := readSlot(pg, i)
		if length == 0 {
			continue
		}
		loc := storageLoc(off)
		if loc > removeLoc {
			writeSlot(pg, i, encodeLoc(loc-removeLen, isForwarded(off)), length)
		}
	}
	setFreeBytes(pg, getFreeBytes(pg)+uint16(removeLen))
}

// pageInsertRecord writes data into pg's record region, reusing the
// lowest-numbered tombstone slot if one exists and otherwise growing the
// slot array. Returns the slot index.
func pageInsertRecord(pg *page.Page, data []byte) (uint16, error) {
	length := uint16(len(data))
	sc := getSlotCount(pg)

	reuse := sc
	for i := uint16(0); i < sc; i++ {
		_, l := readSlot(pg, i)
		if l == 0 {
			reuse = i
			break
		}
	}

	needed := int(length)
	if reuse == sc {
		needed += SlotEntrySize
	}
	if int(getFreeBytes(pg)) < needed {
		return 0, dberrors.New(dberrors.Invalid, "recordstore.pageInsertRecord", fmt.Errorf("page has %d free bytes, need %d", getFreeBytes(pg), needed))
	}

	loc := recordRegionEnd(pg)
	copy(pg.Data[loc:], data)
	writeSlot(pg, reuse, uint16(loc), length)
	if reuse == sc {
		setSlotCount(pg, sc+1)
	}
	setFreeBytes(pg, getFreeBytes(pg)-uint16(needed))
	return reuse, nil
}

// pageGetRecord returns the record at slotIdx. If the slot is a
// forwarding pointer, forwarded is true and target names the data-page
// slot that holds the real payload; data is nil in that case.
func pageGetRecord(pg *page.Page, slotIdx uint16) (data []byte, forwarded bool, target types.RID, err error) {
	sc := getSlotCount(pg)
	if slotIdx >= sc {
		return nil, false, types.RID{}, dberrors.ErrNotFound
	}
	off, length := readSlot(pg, slotIdx)
	if length == 0 {
		return nil, false, types.RID{}, dberrors.ErrNotFound
	}
	loc := storageLoc(off)
	raw := pg.Data[loc : loc+int(length)]
	if isForwarded(off) {
		if length != RIDSize {
			return nil, false, types.RID{}, dberrors.New(dberrors.Corrupt, "recordstore.pageGetRecord", fmt.Errorf("forwarding slot %d has length %d, want %d", slotIdx, length, RIDSize))
		}
		return nil, true, decodeRID(raw), nil
	}
	out := make([]byte, length)
	copy(out, raw)
	return out, false, types.RID{}, nil
}

// pageDeleteRecord tombstones slotIdx and compacts the vacated bytes.
func pageDeleteRecord(pg *page.Page, slotIdx uint16) error {
	sc := getSlotCount(pg)
	if slotIdx >= sc {
		return dberrors.ErrNotFound
	}
	off, length := readSlot(pg, slotIdx)
	if length == 0 {
		return dberrors.ErrNotFound
	}
	freeRecordAt(pg, storageLoc(off), int(length))
	writeSlot(pg, slotIdx, 0, 0)
	return nil
}

// pageReplaceRecord re-packs slotIdx's payload in place: the old bytes
// are freed and newData is appended to the (now shorter or longer)
// record region under the same slot. Returns false, nil if newData would
// not fit even after reclaiming the old bytes — the caller must forward
// the record to another page instead.
func pageReplaceRecord(pg *page.Page, slotIdx uint16, newData []byte) (bool, error) {
	sc := getSlotCount(pg)
	if slotIdx >= sc {
		return false, dberrors.ErrNotFound
	}
	off, length := readSlot(pg, slotIdx)
	if length == 0 {
		return false, dberrors.ErrNotFound
	}
	newLen := uint16(len(newData))
	available := int(getFreeBytes(pg)) + int(length)
	if available < int(newLen) {
		return false, nil
	}

	freeRecordAt(pg, storageLoc(off), int(length))
	loc := recordRegionEnd(pg)
	copy(pg.Data[loc:], newData)
	writeSlot(pg, slotIdx, uint16(loc), newLen)
	setFreeBytes(pg, getFreeBytes(pg)-newLen)
	return true, nil
}

// pageConvertToForwarding replaces slotIdx's current payload (local
// record or stale forwarding marker) with a fresh forwarding marker
// pointing at target, keeping the slot number stable.
func pageConvertToForwarding(pg *page.Page, slotIdx uint16, target types.RID) error {
	sc := getSlotCount(pg)
	if slotIdx >= sc {
		return dberrors.ErrNotFound
	}
	off, length := readSlot(pg, slotIdx)
	if length == 0 {
		return dberrors.ErrNotFound
	}
	freeRecordAt(pg, storageLoc(off), int(length))
	if int(getFreeBytes(pg)) < RIDSize {
		return dberrors.New(dberrors.Corrupt, "recordstore.pageConvertToForwarding", fmt.Errorf("insufficient space for forwarding marker"))
	}
	loc := recordRegionEnd(pg)
	marker := encodeRID(target)
	copy(pg.Data[loc:], marker[:])
	writeSlot(pg, slotIdx, encodeLoc(loc, true), RIDSize)
	setFreeBytes(pg, getFreeBytes(pg)-RIDSize)
	return nil
}
