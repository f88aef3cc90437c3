package queryexec

import (
	"relstore/pkg/relation"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// TableScan adapts a relation.ScanIterator to Iterator.
type TableScan struct {
	attrs []types.Attribute
	inner *relation.ScanIterator
}

// NewTableScan starts a full (or single-attribute pushdown) scan of
// table through mgr.
func NewTableScan(mgr *relation.Manager, table, condAttr string, op types.CompOp, value tuple.Value) (*TableScan, error) {
	attrs, err := mgr.GetAttributes(table)
	if err != nil {
		return nil, err
	}
	it, err := mgr.Scan(table, condAttr, op, value)
	if err != nil {
		return nil, err
	}
	return &TableScan{attrs: attrs, inner: it}, nil
}

func (s *TableScan) Next() (Row, bool, error) {
	values, rid, ok, err := s.inner.Next()
	if err != nil || !ok {
		return Row{}, ok, err
	}
	return Row{RID: rid, Values: values}, true, nil
}

func (s *TableScan) Attrs() []types.Attribute { return s.attrs }
func (s *TableScan) Close()                   { s.inner.Close() }

// IndexScan adapts a relation.IndexScanIterator to Iterator.
type IndexScan struct {
	attrs []types.Attribute
	inner *relation.IndexScanIterator
}

// NewIndexScan range-scans table's index on attrName through mgr.
func NewIndexScan(mgr *relation.Manager, table, attrName string, lowKey, highKey *tuple.Value, lowInclusive, highInclusive bool) (*IndexScan, error) {
	attrs, err := mgr.GetAttributes(table)
	if err != nil {
		return nil, err
	}
	it, err := mgr.IndexScan(table, attrName, lowKey, highKey, lowInclusive, highInclusive)
	if err != nil {
		return nil, err
	}
	return &IndexScan{attrs: attrs, inner: it}, nil
}

func (s *IndexScan) Next() (Row, bool, error) {
	rid, values, ok, err := s.inner.Next()
	if err != nil || !ok {
		return Row{}, ok, err
	}
	return Row{RID: rid, Values: values}, true, nil
}

func (s *IndexScan) Attrs() []types.Attribute { return s.attrs }
func (s *IndexScan) Close()                   { s.inner.Close() }
