// Package queryexec implements the query-execution layer that sits on
// top of the relation manager: filter, project, two join strategies, and
// the five aggregate operators, all as pull-based iterators over
// relation.ScanIterator / relation.IndexScanIterator.
package queryexec

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// Row is one tuple flowing through an operator pipeline, tagged with the
// RID it came from so a caller can still act on the source record (e.g.
// a downstream delete-by-predicate); joined rows carry a zero RID.
type Row struct {
	RID    types.RID
	Values []tuple.Value
}

// Iterator is the pull-based operator interface every stage implements,
// grounded on the same getNextTuple/getAttributes shape the reference
// query-execution layer uses.
type Iterator interface {
	Next() (Row, bool, error)
	Attrs() []types.Attribute
	Close()
}
