package btreeindex

import (
	"fmt"

	"relstore/pkg/dberrors"
	"relstore/pkg/logging"
	"relstore/pkg/page"
	"relstore/pkg/pagedfile"
	"relstore/pkg/types"
)

// rootPtrOff places the root page number in the last 4 bytes of the file's
// header page, well clear of pagedfile.HeaderReserved's front-loaded
// counters.
const rootPtrOff = page.Size - 4

// Index is one B+-tree index file over a single attribute.
type Index struct {
	fh                *pagedfile.FileHandle
	attr              types.Attribute
	root              uint32
	leafCap, innerCap int
	log               *logging.Logger
}

// Create makes a new, empty index file.
func Create(path string) error { return pagedfile.Create(path) }

// Destroy removes an index file.
func Destroy(path string) error { return pagedfile.Destroy(path) }

// Open opens an index file over attr. If the file is new (just its header
// page), the tree is initialized with one empty leaf as root.
func Open(path string, attr types.Attribute, log *logging.Logger) (*Index, error) {
	fh, err := pagedfile.Open(path, log)
	if err != nil {
		return nil, err
	}
	leafCap, innerCap := capacities(attr)
	ix := &Index{
		fh:       fh,
		attr:     attr,
		leafCap:  leafCap,
		innerCap: innerCap,
		log:      logging.OrNop(log).Named("btreeindex"),
	}

	if fh.NumPages() == 1 {
		leaf := newLeaf(0)
		if _, err := ix.appendNode(leaf); err != nil {
			return nil, err
		}
		ix.root = leaf.pageNum
		if err := ix.writeRootPointer(ix.root); err != nil {
			return nil, err
		}
	} else {
		root, err := ix.readRootPointer()
		if err != nil {
			return nil, err
		}
		ix.root = root
	}
	return ix, nil
}

// Close flushes and closes the underlying file.
func (ix *Index) Close() error { return ix.fh.Close() }

func (ix *Index) readRootPointer() (uint32, error) {
	pg, err := ix.fh.ReadPage(0)
	if err != nil {
		return 0, err
	}
	return le.Uint32(pg.Data[rootPtrOff:]), nil
}

func (ix *Index) writeRootPointer(root uint32) error {
	pg, err := ix.fh.ReadPage(0)
	if err != nil {
		return err
	}
	le.PutUint32(pg.Data[rootPtrOff:], root)
	ix.root = root
	return ix.fh.WritePage(pg)
}

func (ix *Index) readNode(pageNum uint32) (*node, error) {
	pg, err := ix.fh.ReadPage(pageNum)
	if err != nil {
		return nil, err
	}
	return deserializeNode(ix.attr, pg), nil
}

func (ix *Index) writeNode(n *node) error {
	pg := page.New(n.pageNum)
	serializeNode(ix.attr, n, pg)
	return ix.fh.WritePage(pg)
}

func (ix *Index) appendNode(n *node) (uint32, error) {
	pg := page.New(0)
	serializeNode(ix.attr, n, pg)
	num, err := ix.fh.AppendPage(pg)
	if err != nil {
		return 0, err
	}
	n.pageNum = num
	return num, nil
}

// routeChild returns the index of the child to follow for target: the
// first separator strictly greater than target names the child
// immediately to its left.
func routeChild(n *node, target entry) int {
	i := 0
	for i < len(n.entries) && compareEntry(n.entries[i], target) <= 0 {
		i++
	}
	return i
}

func lowerBoundEntry(entries []entry, target entry) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if compareEntry(entries[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func errDuplicate(op string) error {
	return dberrors.New(dberrors.Exists, op, fmt.Errorf("duplicate (key, rid) entry"))
}

func errNoSuchEntry(op string) error {
	return dberrors.New(dberrors.NotFound, op, fmt.Errorf("no matching (key, rid) entry"))
}
