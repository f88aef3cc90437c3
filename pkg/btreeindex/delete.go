package btreeindex

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// DeleteEntry removes the exact (key, rid) composite entry. The tree
// never merges, redistributes, or drops empty leaves on delete — it only
// grows. Interior pointers to a now-empty leaf remain valid links.
func (ix *Index) DeleteEntry(key tuple.Value, rid types.RID) error {
	target := entry{key: key, rid: rid}
	cur := ix.root
	for {
		n, err := ix.readNode(cur)
		if err != nil {
			return err
		}
		if n.isLeaf() {
			pos := lowerBoundEntry(n.entries, target)
			if pos >= len(n.entries) || compareEntry(n.entries[pos], target) != 0 {
				return errNoSuchEntry("btreeindex.DeleteEntry")
			}
			n.removeAt(pos)
			return ix.writeNode(n)
		}
		cur = n.children[routeChild(n, target)]
	}
}
