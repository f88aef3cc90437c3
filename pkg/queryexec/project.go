package queryexec

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// Project narrows each input row to a fixed list of attribute indices,
// in the order given.
type Project struct {
	input   Iterator
	indices []int
	attrs   []types.Attribute
}

// NewProject projects input down to the attributes named in attrIdx,
// in that order.
func NewProject(input Iterator, attrIdx []int) *Project {
	src := input.Attrs()
	attrs := make([]types.Attribute, len(attrIdx))
	for i, idx := range attrIdx {
		attrs[i] = src[idx]
	}
	return &Project{input: input, indices: attrIdx, attrs: attrs}
}

func (p *Project) Next() (Row, bool, error) {
	row, ok, err := p.input.Next()
	if err != nil || !ok {
		return Row{}, ok, err
	}
	out := make([]tuple.Value, len(p.indices))
	for i, idx := range p.indices {
		out[i] = row.Values[idx]
	}
	return Row{RID: row.RID, Values: out}, true, nil
}

func (p *Project) Attrs() []types.Attribute { return p.attrs }
func (p *Project) Close()                   { p.input.Close() }
