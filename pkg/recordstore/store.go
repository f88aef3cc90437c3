package recordstore

import (
	"fmt"

	"relstore/pkg/dberrors"
	"relstore/pkg/logging"
	"relstore/pkg/page"
	"relstore/pkg/pagedfile"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// MaxRecordPayload is the largest allocated record length a brand-new
// page can ever hold, after the trailer and the record's own slot entry.
const MaxRecordPayload = page.Size - TrailerSize - SlotEntrySize

// Store manages one record file: a chain of free-space directory pages
// interleaved with slotted data pages, all behind a single pagedfile
// handle.
type Store struct {
	fh  *pagedfile.FileHandle
	log *logging.Logger
}

// Create makes a new, empty record file. Its single header page doubles
// as an empty first directory page: zero entries, no next pointer.
func Create(path string) error { return pagedfile.Create(path) }

// Destroy removes a record file.
func Destroy(path string) error { return pagedfile.Destroy(path) }

// Open opens an existing record file.
func Open(path string, log *logging.Logger) (*Store, error) {
	fh, err := pagedfile.Open(path, log)
	if err != nil {
		return nil, err
	}
	return &Store{fh: fh, log: logging.OrNop(log).Named("recordstore")}, nil
}

// Close flushes counters and closes the underlying file.
func (s *Store) Close() error { return s.fh.Close() }

func recordAllocLength(desc tuple.Descriptor, values []tuple.Value) (int, error) {
	n, err := tuple.StoredLen(desc, values)
	if err != nil {
		return 0, err
	}
	if n < RIDSize {
		n = RIDSize
	}
	return n, nil
}

func padTo(data []byte, n int) []byte {
	if len(data) >= n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// seekFreePage walks the directory chain for the first data page with at
// least required free bytes. If a directory page has an unused entry, the
// page that slot describes (not yet appended) is returned as the
// candidate; the caller is responsible for initializing and appending it.
// If a directory page is full with no page satisfying required and no
// next pointer, a new directory page is appended and the search
// continues there.
func (s *Store) seekFreePage(required int) (uint32, error) {
	dirPage := uint32(0)
	for {
		pg, err := s.fh.ReadPage(dirPage)
		if err != nil {
			return 0, err
		}
		for i := 0; i < DirectoryCapacity; i++ {
			pn, free := readDirEntry(pg, i)
			if pn == 0 {
				return dirPage + 1 + uint32(i), nil
			}
			if int(free) >= required {
				return pn, nil
			}
		}
		next := readNextDirPtr(pg)
		if next == 0 {
			newDir, err := s.appendDirectoryPage(dirPage)
			if err != nil {
				return 0, err
			}
			dirPage = newDir
			continue
		}
		dirPage = next
	}
}

func (s *Store) appendDirectoryPage(prev uint32) (uint32, error) {
	expected := prev + DirectoryStride
	pg := page.New(0)
	num, err := s.fh.AppendPage(pg)
	if err != nil {
		return 0, err
	}
	if num != expected {
		return 0, dberrors.New(dberrors.Corrupt, "recordstore.appendDirectoryPage", fmt.Errorf("appended directory page %d, expected %d", num, expected))
	}
	prevPg, err := s.fh.ReadPage(prev)
	if err != nil {
		return 0, err
	}
	writeNextDirPtr(prevPg, num)
	if err := s.fh.WritePage(prevPg); err != nil {
		return 0, err
	}
	return num, nil
}

func (s *Store) refreshDirFreeBytes(dataPage uint32, freeBytes uint16) error {
	dirPage, entry := dirLocationFor(dataPage)
	pg, err := s.fh.ReadPage(dirPage)
	if err != nil {
		return err
	}
	writeDirEntry(pg, entry, dataPage, freeBytes)
	return s.fh.WritePage(pg)
}

// loadOrCreatePage reads pageNum if it already exists, or appends and
// initializes a fresh data page if pageNum is the next page to be
// allocated.
func (s *Store) loadOrCreatePage(pageNum uint32) (*page.Page, error) {
	if pageNum < s.fh.NumPages() {
		return s.fh.ReadPage(pageNum)
	}
	pg := page.New(pageNum)
	initDataPage(pg)
	num, err := s.fh.AppendPage(pg)
	if err != nil {
		return nil, err
	}
	if num != pageNum {
		return nil, dberrors.New(dberrors.Corrupt, "recordstore.loadOrCreatePage", fmt.Errorf("appended page %d, expected %d", num, pageNum))
	}
	return pg, nil
}

// Insert writes a new record and returns its fresh RID.
func (s *Store) Insert(desc tuple.Descriptor, values []tuple.Value) (types.RID, error) {
	stored, err := tuple.EncodeStored(desc, values)
	if err != nil {
		return types.RID{}, err
	}
	length, err := recordAllocLength(desc, values)
	if err != nil {
		return types.RID{}, err
	}
	if length > MaxRecordPayload {
		return types.RID{}, dberrors.New(dberrors.Invalid, "recordstore.Insert", fmt.Errorf("record of %d bytes exceeds page capacity of %d", length, MaxRecordPayload))
	}
	padded := padTo(stored, length)

	dataPageNum, err := s.seekFreePage(length + SlotEntrySize)
	if err != nil {
		return types.RID{}, err
	}
	pg, err := s.loadOrCreatePage(dataPageNum)
	if err != nil {
		return types.RID{}, err
	}

	slotIdx, err := pageInsertRecord(pg, padded)
	if err != nil {
		return types.RID{}, err
	}
	if err := s.fh.WritePage(pg); err != nil {
		return types.RID{}, err
	}
	if err := s.refreshDirFreeBytes(dataPageNum, getFreeBytes(pg)); err != nil {
		return types.RID{}, err
	}
	return types.RID{PageNum: dataPageNum, SlotNum: uint32(slotIdx)}, nil
}

// readRaw follows at most one forwarding hop and returns the stored
// record bytes.
func (s *Store) readRaw(rid types.RID) ([]byte, error) {
	pg, err := s.fh.ReadPage(rid.PageNum)
	if err != nil {
		return nil, err
	}
	data, forwarded, target, err := pageGetRecord(pg, uint16(rid.SlotNum))
	if err != nil {
		return nil, err
	}
	if !forwarded {
		return data, nil
	}
	dataPg, err := s.fh.ReadPage(target.PageNum)
	if err != nil {
		return nil, err
	}
	data2, forwarded2, _, err := pageGetRecord(dataPg, uint16(target.SlotNum))
	if err != nil {
		return nil, err
	}
	if forwarded2 {
		return nil, dberrors.New(dberrors.Corrupt, "recordstore.Read", fmt.Errorf("forwarding chain longer than one hop at %v", rid))
	}
	return data2, nil
}

// Read materializes the tuple stored at rid.
func (s *Store) Read(desc tuple.Descriptor, rid types.RID) ([]tuple.Value, error) {
	data, err := s.readRaw(rid)
	if err != nil {
		return nil, err
	}
	return tuple.DecodeStored(desc, data)
}

// ReadAttribute returns the raw bytes of one field of rid's record, using
// the stored offset directory for an O(1) lookup.
func (s *Store) ReadAttribute(desc tuple.Descriptor, rid types.RID, attrIndex int) ([]byte, bool, error) {
	data, err := s.readRaw(rid)
	if err != nil {
		return nil, false, err
	}
	return tuple.ReadStoredField(desc, data, attrIndex)
}

// Delete removes rid's record, tombstoning its slot (and, if the record
// was forwarded, the out-of-line payload's slot too) and compacting both
// affected pages.
func (s *Store) Delete(rid types.RID) error {
	pg, err := s.fh.ReadPage(rid.PageNum)
	if err != nil {
		return err
	}
	_, forwarded, target, err := pageGetRecord(pg, uint16(rid.SlotNum))
	if err != nil {
		return err
	}
	if forwarded {
		dataPg, err := s.fh.ReadPage(target.PageNum)
		if err != nil {
			return err
		}
		if err := pageDeleteRecord(dataPg, uint16(target.SlotNum)); err != nil {
			return err
		}
		if err := s.fh.WritePage(dataPg); err != nil {
			return err
		}
		if err := s.refreshDirFreeBytes(target.PageNum, getFreeBytes(dataPg)); err != nil {
			return err
		}
	}
	if err := pageDeleteRecord(pg, uint16(rid.SlotNum)); err != nil {
		return err
	}
	if err := s.fh.WritePage(pg); err != nil {
		return err
	}
	return s.refreshDirFreeBytes(rid.PageNum, getFreeBytes(pg))
}

// Update keeps rid stable. If the new tuple fits on the record's current
// page (home or already-forwarded data page) it is re-packed in place;
// otherwise it moves to the first page with room (first-fit) and the home
// slot becomes (or stays) a forwarding pointer.
func (s *Store) Update(desc tuple.Descriptor, rid types.RID, values []tuple.Value) error {
	stored, err := tuple.EncodeStored(desc, values)
	if err != nil {
		return err
	}
	length, err := recordAllocLength(desc, values)
	if err != nil {
		return err
	}
	if length > MaxRecordPayload {
		return dberrors.New(dberrors.Invalid, "recordstore.Update", fmt.Errorf("record of %d bytes exceeds page capacity of %d", length, MaxRecordPayload))
	}
	padded := padTo(stored, length)

	homePg, err := s.fh.ReadPage(rid.PageNum)
	if err != nil {
		return err
	}
	_, forwarded, target, err := pageGetRecord(homePg, uint16(rid.SlotNum))
	if err != nil {
		return err
	}

	targetPageNum, targetSlot, targetPg := rid.PageNum, uint16(rid.SlotNum), homePg
	if forwarded {
		targetPageNum, targetSlot = target.PageNum, uint16(target.SlotNum)
		targetPg, err = s.fh.ReadPage(targetPageNum)
		if err != nil {
			return err
		}
	}

	ok, err := pageReplaceRecord(targetPg, targetSlot, padded)
	if err != nil {
		return err
	}
	if ok {
		if err := s.fh.WritePage(targetPg); err != nil {
			return err
		}
		return s.refreshDirFreeBytes(targetPageNum, getFreeBytes(targetPg))
	}

	newPageNum, err := s.seekFreePage(length + SlotEntrySize)
	if err != nil {
		return err
	}
	newPg, err := s.loadOrCreatePage(newPageNum)
	if err != nil {
		return err
	}
	newSlot, err := pageInsertRecord(newPg, padded)
	if err != nil {
		return err
	}
	if err := s.fh.WritePage(newPg); err != nil {
		return err
	}
	if err := s.refreshDirFreeBytes(newPageNum, getFreeBytes(newPg)); err != nil {
		return err
	}
	// First-fit can pick the home page of a forwarded record; the home
	// slot is then rewritten on the image that already holds the new copy.
	if newPageNum == rid.PageNum {
		homePg = newPg
	}

	if forwarded {
		if err := pageDeleteRecord(targetPg, targetSlot); err != nil {
			return err
		}
		if err := s.fh.WritePage(targetPg); err != nil {
			return err
		}
		if err := s.refreshDirFreeBytes(targetPageNum, getFreeBytes(targetPg)); err != nil {
			return err
		}
	}

	newTarget := types.RID{PageNum: newPageNum, SlotNum: uint32(newSlot)}
	if err := pageConvertToForwarding(homePg, uint16(rid.SlotNum), newTarget); err != nil {
		return err
	}
	if err := s.fh.WritePage(homePg); err != nil {
		return err
	}
	return s.refreshDirFreeBytes(rid.PageNum, getFreeBytes(homePg))
}
