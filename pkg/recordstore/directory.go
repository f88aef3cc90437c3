package recordstore

import (
	"relstore/pkg/page"
	"relstore/pkg/pagedfile"
)

const (
	// dirEntrySize is one (page-number uint32, free-bytes uint16) entry.
	dirEntrySize = 6
	// dirNextPtrSize is the trailing next-directory-page pointer.
	dirNextPtrSize = 4
	// dirEntriesOffset is where a directory page's entry array begins.
	// Every directory page reserves this prefix, matching the file
	// header page's own pagedfile.HeaderReserved prefix, even though
	// only page 0 is actually shared with pagedfile's counters — keeping
	// every directory page's layout identical lets page-number-modulo
	// arithmetic find header pages without special-casing page 0.
	dirEntriesOffset = pagedfile.HeaderReserved
)

// DirectoryCapacity is the number of (page, free-bytes) entries one
// directory page holds.
var DirectoryCapacity = (page.Size - dirEntriesOffset - dirNextPtrSize) / dirEntrySize

// DirectoryStride is the page-number spacing between directory header
// pages: one header page followed by DirectoryCapacity data pages.
var DirectoryStride = uint32(DirectoryCapacity) + 1

// isDirectoryPage reports whether pageNum is a free-space directory
// header page rather than a data page.
func isDirectoryPage(pageNum uint32) bool { return pageNum%DirectoryStride == 0 }

// dirLocationFor returns the directory page and entry index that
// describes dataPage. Addressing is position-implied: entry i of the
// directory at dirPage describes data page dirPage+1+i.
func dirLocationFor(dataPage uint32) (dirPage uint32, entry int) {
	dirPage = ((dataPage - 1) / DirectoryStride) * DirectoryStride
	entry = int(dataPage - dirPage - 1)
	return dirPage, entry
}

func dirEntryOff(i int) int      { return dirEntriesOffset + i*dirEntrySize }
func dirNextPtrOff() int         { return page.Size - dirNextPtrSize }

func readDirEntry(pg *page.Page, i int) (pageNum uint32, freeBytes uint16) {
	base := dirEntryOff(i)
	return le.Uint32(pg.Data[base:]), le.Uint16(pg.Data[base+4:])
}

func writeDirEntry(pg *page.Page, i int, pageNum uint32, freeBytes uint16) {
	base := dirEntryOff(i)
	le.PutUint32(pg.Data[base:], pageNum)
	le.PutUint16(pg.Data[base+4:], freeBytes)
}

func readNextDirPtr(pg *page.Page) uint32      { return le.Uint32(pg.Data[dirNextPtrOff():]) }
func writeNextDirPtr(pg *page.Page, next uint32) { le.PutUint32(pg.Data[dirNextPtrOff():], next) }
