package queryexec

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// Filter re-applies a single-attribute comparison over input, the way
// the reference query-execution layer's Filter operator re-checks a
// condition the underlying scan didn't push down (e.g. because the
// condition attribute isn't the scan's pushdown attribute, or because
// input is itself a join or another filter).
type Filter struct {
	input   Iterator
	attrIdx int
	op      types.CompOp
	value   tuple.Value
}

// NewFilter filters input on input.Attrs()[attrIdx] op value.
func NewFilter(input Iterator, attrIdx int, op types.CompOp, value tuple.Value) *Filter {
	return &Filter{input: input, attrIdx: attrIdx, op: op, value: value}
}

func (f *Filter) Next() (Row, bool, error) {
	for {
		row, ok, err := f.input.Next()
		if err != nil || !ok {
			return Row{}, ok, err
		}
		if matches(f.op, row.Values[f.attrIdx], f.value) {
			return row, true, nil
		}
	}
}

func (f *Filter) Attrs() []types.Attribute { return f.input.Attrs() }
func (f *Filter) Close()                   { f.input.Close() }
