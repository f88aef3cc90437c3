package btreeindex

import (
	"encoding/json"
	"fmt"

	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

type leafGroup struct {
	Key  string   `json:"key"`
	Rids []string `json:"rids"`
}

type leafJSON struct {
	Keys []leafGroup `json:"keys"`
}

type innerJSON struct {
	Keys     []string `json:"keys"`
	Children []any    `json:"children"`
}

func formatKey(k tuple.Value) string {
	switch k.Type {
	case types.IntType:
		return fmt.Sprintf("%d", k.Int)
	case types.RealType:
		return fmt.Sprintf("%g", k.Real)
	case types.VarCharType:
		return k.Str
	default:
		return ""
	}
}

// Print renders the whole tree as JSON: inner nodes as {"keys":[...],
// "children":[...]} with keys formatted key(pageNum,slotNum), leaves as
// {"keys":[...]} with duplicate keys collapsed to one entry per key
// naming its list of RIDs.
func (ix *Index) Print() (string, error) {
	v, err := ix.printSubtree(ix.root)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (ix *Index) printSubtree(pageNum uint32) (any, error) {
	n, err := ix.readNode(pageNum)
	if err != nil {
		return nil, err
	}
	if n.isLeaf() {
		out := leafJSON{}
		for _, e := range n.entries {
			rid := fmt.Sprintf("(%d,%d)", e.rid.PageNum, e.rid.SlotNum)
			if len(out.Keys) > 0 && out.Keys[len(out.Keys)-1].Key == formatKey(e.key) {
				last := &out.Keys[len(out.Keys)-1]
				last.Rids = append(last.Rids, rid)
				continue
			}
			out.Keys = append(out.Keys, leafGroup{Key: formatKey(e.key), Rids: []string{rid}})
		}
		return out, nil
	}

	out := innerJSON{}
	for _, e := range n.entries {
		out.Keys = append(out.Keys, fmt.Sprintf("%s(%d,%d)", formatKey(e.key), e.rid.PageNum, e.rid.SlotNum))
	}
	for _, c := range n.children {
		child, err := ix.printSubtree(c)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}
