package btreeindex

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// ScanIterator streams (rid, key) pairs in ascending composite order over
// an interval. A nil lowKey/highKey denotes an unbounded end. Between
// calls it caches only the current leaf image, cursor, and high bound —
// it holds no page locks, so a concurrent delete at the cursor position
// is skipped silently, and deletions elsewhere never invalidate the
// scan since leaves are never removed.
type ScanIterator struct {
	ix            *Index
	highKey       *tuple.Value
	highInclusive bool
	leaf          *node
	pos           int
	done          bool
}

// Scan descends to the leaf holding lowKey (or the leftmost leaf if
// lowKey is nil) and positions just before the first qualifying entry.
func (ix *Index) Scan(lowKey, highKey *tuple.Value, lowInclusive, highInclusive bool) (*ScanIterator, error) {
	var boundTarget entry
	if lowKey != nil {
		rid := highRID
		if !lowInclusive {
			rid = lowRID
		}
		boundTarget = entry{key: *lowKey, rid: rid}
	}

	cur := ix.root
	for {
		n, err := ix.readNode(cur)
		if err != nil {
			return nil, err
		}
		if n.isLeaf() {
			pos := 0
			if lowKey != nil {
				pos = lowerBoundEntry(n.entries, boundTarget)
			}
			return &ScanIterator{ix: ix, leaf: n, pos: pos, highKey: highKey, highInclusive: highInclusive}, nil
		}
		if lowKey == nil {
			cur = n.children[0]
		} else {
			cur = n.children[routeChild(n, boundTarget)]
		}
	}
}

// Next returns the next qualifying (rid, key) pair. ok is false once the
// scan passes the high bound or reaches the last leaf.
func (it *ScanIterator) Next() (types.RID, tuple.Value, bool, error) {
	if it.done {
		return types.RID{}, tuple.Value{}, false, nil
	}
	for {
		if it.pos >= len(it.leaf.entries) {
			if it.leaf.next == 0 {
				it.done = true
				return types.RID{}, tuple.Value{}, false, nil
			}
			n, err := it.ix.readNode(it.leaf.next)
			if err != nil {
				return types.RID{}, tuple.Value{}, false, err
			}
			it.leaf = n
			it.pos = 0
			continue
		}
		e := it.leaf.entries[it.pos]
		it.pos++
		if it.highKey != nil {
			c := compareKey(e.key, *it.highKey)
			if c > 0 || (c == 0 && !it.highInclusive) {
				it.done = true
				return types.RID{}, tuple.Value{}, false, nil
			}
		}
		return e.rid, e.key, true, nil
	}
}

// Close releases the iterator. Safe to call multiple times.
func (it *ScanIterator) Close() { it.done = true }
