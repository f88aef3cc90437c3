// Package pagedfile is the lowest layer of the engine: it owns a single OS
// file descriptor and reads/writes fixed-size pages directly, with no
// caching — every page is read fresh and written back explicitly. Cut down
// from a many-files-behind-one-manager design to a one-handle-per-file
// model, with read/write/append page counters reproducing a FileHandle's.
package pagedfile

import (
	"encoding/binary"
	"fmt"
	"os"

	"relstore/pkg/dberrors"
	"relstore/pkg/logging"
	"relstore/pkg/page"
)

// HeaderReserved is the number of bytes at the start of page 0 that this
// package owns for its own bookkeeping (the three page counters). Higher
// layers building header-page content (record-store free-space directory,
// index root pointer) must leave these bytes alone.
const HeaderReserved = 12

// FileHandle owns one open file's descriptor and per-file counters. The
// zero value is not usable; construct with Create or Open. A FileHandle
// must not be copied — pass it around by pointer, as the embedded *os.File
// makes a copy observably wrong (two counters diverging over one fd).
type FileHandle struct {
	file      *os.File
	path      string
	numPages  uint32
	readCnt   uint32
	writeCnt  uint32
	appendCnt uint32
	log       *logging.Logger
}

// Create makes a new file with a single zeroed header page. It fails with
// an Exists error if the file is already there, matching pfm.cc's
// createFile.
func Create(path string) error {
	if _, err := os.Stat(path); err == nil {
		return dberrors.New(dberrors.Exists, "pagedfile.Create", fmt.Errorf("%s already exists", path))
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return dberrors.New(dberrors.IO, "pagedfile.Create", err)
	}
	defer f.Close()
	var hdr [page.Size]byte
	if _, err := f.Write(hdr[:]); err != nil {
		os.Remove(path)
		return dberrors.New(dberrors.IO, "pagedfile.Create", err)
	}
	return nil
}

// Destroy removes a file from disk.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil {
		return dberrors.New(dberrors.IO, "pagedfile.Destroy", err)
	}
	return nil
}

// Open opens an existing file and restores its page counters from the
// header page. log may be nil.
func Open(path string, log *logging.Logger) (*FileHandle, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, dberrors.New(dberrors.IO, "pagedfile.Open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, dberrors.New(dberrors.IO, "pagedfile.Open", err)
	}
	if info.Size()%page.Size != 0 {
		f.Close()
		return nil, dberrors.New(dberrors.Corrupt, "pagedfile.Open", fmt.Errorf("%s size %d is not a multiple of the page size", path, info.Size()))
	}

	fh := &FileHandle{
		file:     f,
		path:     path,
		numPages: uint32(info.Size() / page.Size),
		log:      logging.OrNop(log),
	}

	var hdr [page.Size]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		f.Close()
		return nil, dberrors.New(dberrors.IO, "pagedfile.Open", err)
	}
	fh.readCnt = binary.LittleEndian.Uint32(hdr[0:4])
	fh.writeCnt = binary.LittleEndian.Uint32(hdr[4:8])
	fh.appendCnt = binary.LittleEndian.Uint32(hdr[8:12])

	fh.log.Debugw("opened paged file", "path", path, "pages", fh.numPages)
	return fh, nil
}

// Close persists the page counters into the header page and closes the
// descriptor. It does not otherwise touch the header page's content.
func (fh *FileHandle) Close() error {
	if fh.file == nil {
		return dberrors.New(dberrors.Invalid, "pagedfile.Close", fmt.Errorf("file already closed"))
	}
	var hdr [page.Size]byte
	if _, err := fh.file.ReadAt(hdr[:], 0); err != nil {
		return dberrors.New(dberrors.IO, "pagedfile.Close", err)
	}
	binary.LittleEndian.PutUint32(hdr[0:4], fh.readCnt)
	binary.LittleEndian.PutUint32(hdr[4:8], fh.writeCnt)
	binary.LittleEndian.PutUint32(hdr[8:12], fh.appendCnt)
	if _, err := fh.file.WriteAt(hdr[:], 0); err != nil {
		return dberrors.New(dberrors.IO, "pagedfile.Close", err)
	}
	err := fh.file.Close()
	fh.file = nil
	if err != nil {
		return dberrors.New(dberrors.IO, "pagedfile.Close", err)
	}
	return nil
}

// NumPages returns the total number of pages in the file, header included.
func (fh *FileHandle) NumPages() uint32 { return fh.numPages }

func (fh *FileHandle) ReadPageCount() uint32   { return fh.readCnt }
func (fh *FileHandle) WritePageCount() uint32  { return fh.writeCnt }
func (fh *FileHandle) AppendPageCount() uint32 { return fh.appendCnt }

// ReadPage reads pageNum into a fresh Page. pageNum must be a page that has
// already been allocated (< NumPages()).
func (fh *FileHandle) ReadPage(pageNum uint32) (*page.Page, error) {
	if pageNum >= fh.numPages {
		return nil, dberrors.New(dberrors.Invalid, "pagedfile.ReadPage", fmt.Errorf("page %d out of range (%d pages)", pageNum, fh.numPages))
	}
	pg := page.New(pageNum)
	off := int64(pageNum) * page.Size
	n, err := fh.file.ReadAt(pg.Data[:], off)
	if err != nil || n != page.Size {
		return nil, dberrors.New(dberrors.IO, "pagedfile.ReadPage", fmt.Errorf("short read of page %d: %d bytes: %v", pageNum, n, err))
	}
	fh.readCnt++
	return pg, nil
}

// WritePage overwrites an existing page in place.
func (fh *FileHandle) WritePage(pg *page.Page) error {
	if pg.Num >= fh.numPages {
		return dberrors.New(dberrors.Invalid, "pagedfile.WritePage", fmt.Errorf("page %d out of range (%d pages)", pg.Num, fh.numPages))
	}
	off := int64(pg.Num) * page.Size
	if _, err := fh.file.WriteAt(pg.Data[:], off); err != nil {
		return dberrors.New(dberrors.IO, "pagedfile.WritePage", err)
	}
	fh.writeCnt++
	return nil
}

// AppendPage grows the file by one page and writes pg's contents there,
// assigning pg.Num to the new page number. Returns the new page number.
func (fh *FileHandle) AppendPage(pg *page.Page) (uint32, error) {
	num := fh.numPages
	off := int64(num) * page.Size
	if _, err := fh.file.WriteAt(pg.Data[:], off); err != nil {
		return 0, dberrors.New(dberrors.IO, "pagedfile.AppendPage", err)
	}
	pg.Num = num
	fh.numPages++
	fh.appendCnt++
	fh.log.Debugw("appended page", "path", fh.path, "page", num)
	return num, nil
}
