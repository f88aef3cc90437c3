// Package recordstore implements the paged record store: slotted data
// pages with tombstones and forwarding pointers, a free-space directory
// for first-fit page allocation, and a scan iterator with pushdown
// predicates. It sits directly on pagedfile, with no page cache between
// the two.
package recordstore

import (
	"encoding/binary"

	"relstore/pkg/page"
	"relstore/pkg/types"
)

var le = binary.LittleEndian

const (
	// TrailerSize is the two fixed uint16 fields at the tail of every
	// data page: free-bytes then slot-count.
	TrailerSize = 4
	// SlotEntrySize is the byte size of one slot: (offset uint16, length uint16).
	SlotEntrySize = 4
	// RIDSize is the on-page size of a forwarding pointer (page-number,
	// slot-number), and the floor every record's allocated length is
	// raised to, so the bytes a record frees are always enough to hold
	// the forwarding pointer that later replaces it.
	RIDSize = 8
)

func freeBytesOff() int    { return page.Size - 2 }
func slotCountOff() int    { return page.Size - 4 }
func slotOff(i uint16) int { return page.Size - TrailerSize - (int(i)+1)*SlotEntrySize }

func getFreeBytes(pg *page.Page) uint16    { return le.Uint16(pg.Data[freeBytesOff():]) }
func setFreeBytes(pg *page.Page, v uint16) { le.PutUint16(pg.Data[freeBytesOff():], v) }

func getSlotCount(pg *page.Page) uint16    { return le.Uint16(pg.Data[slotCountOff():]) }
func setSlotCount(pg *page.Page, v uint16) { le.PutUint16(pg.Data[slotCountOff():], v) }

func readSlot(pg *page.Page, i uint16) (offset, length uint16) {
	base := slotOff(i)
	return le.Uint16(pg.Data[base:]), le.Uint16(pg.Data[base+2:])
}

func writeSlot(pg *page.Page, i uint16, offset, length uint16) {
	base := slotOff(i)
	le.PutUint16(pg.Data[base:], offset)
	le.PutUint16(pg.Data[base+2:], length)
}

// isForwarded reports whether a slot offset denotes a forwarding pointer:
// the slot's payload is an 8-byte RID stored elsewhere in this same
// page's record region, at offset-page.Size.
func isForwarded(offset uint16) bool { return int(offset) >= page.Size }

func storageLoc(offset uint16) int {
	if isForwarded(offset) {
		return int(offset) - page.Size
	}
	return int(offset)
}

func encodeLoc(loc int, forwarded bool) uint16 {
	if forwarded {
		return uint16(loc + page.Size)
	}
	return uint16(loc)
}

func encodeRID(r types.RID) [RIDSize]byte {
	var b [RIDSize]byte
	le.PutUint32(b[0:4], r.PageNum)
	le.PutUint32(b[4:8], r.SlotNum)
	return b
}

func decodeRID(b []byte) types.RID {
	return types.RID{PageNum: le.Uint32(b[0:4]), SlotNum: le.Uint32(b[4:8])}
}

// initDataPage stamps a fresh, empty data page: no slots, every byte but
// the trailer free.
func initDataPage(pg *page.Page) {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	setFreeBytes(pg, uint16(page.Size-TrailerSize))
	setSlotCount(pg, 0)
}

// recordRegionEnd is the first free byte after the last live record. It
// is derived from the trailer rather than stored directly: free-bytes +
// trailer + slot-array + sum-of-live-record-lengths = page.Size, so
// live bytes (which, since delete always compacts, sit contiguously
// from byte 0) end at page.Size - free - trailer - slotCount*SlotEntrySize.
func recordRegionEnd(pg *page.Page) int {
	return page.Size - int(getFreeBytes(pg)) - TrailerSize - int(getSlotCount(pg))*SlotEntrySize
}
