package relation

import (
	"relstore/pkg/btreeindex"
	"relstore/pkg/recordstore"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// InsertTuple inserts values into table, then inserts a (key, rid) entry
// into every index defined on the table.
func (m *Manager) InsertTuple(table string, values []tuple.Value) (types.RID, error) {
	r, err := m.resolve(table)
	if err != nil {
		return types.RID{}, err
	}
	rid, err := r.store.Insert(r.desc, values)
	if err != nil {
		return types.RID{}, err
	}

	indices, err := m.cat.IndicesForTable(table)
	if err != nil {
		return types.RID{}, err
	}
	for _, info := range indices {
		pos, err := attrIndex(r.attrs, info.AttrName)
		if err != nil {
			return types.RID{}, err
		}
		ix, err := m.indexFor(r.id, r.attrs[pos])
		if err != nil {
			return types.RID{}, err
		}
		if err := ix.InsertEntry(values[pos], rid); err != nil {
			return types.RID{}, err
		}
	}
	return rid, nil
}

// DeleteTuple reads rid's pre-image to extract index keys, deletes it
// from the record file, then removes its entry from every index.
func (m *Manager) DeleteTuple(table string, rid types.RID) error {
	r, err := m.resolve(table)
	if err != nil {
		return err
	}
	preimage, err := r.store.Read(r.desc, rid)
	if err != nil {
		return err
	}
	if err := r.store.Delete(rid); err != nil {
		return err
	}

	indices, err := m.cat.IndicesForTable(table)
	if err != nil {
		return err
	}
	for _, info := range indices {
		pos, err := attrIndex(r.attrs, info.AttrName)
		if err != nil {
			return err
		}
		ix, err := m.indexFor(r.id, r.attrs[pos])
		if err != nil {
			return err
		}
		if err := ix.DeleteEntry(preimage[pos], rid); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTuple reads rid's pre-image, replaces it with values in place
// (RID is stable across an update), then for every index on the table
// deletes the old entry and inserts the new one.
func (m *Manager) UpdateTuple(table string, rid types.RID, values []tuple.Value) error {
	r, err := m.resolve(table)
	if err != nil {
		return err
	}
	preimage, err := r.store.Read(r.desc, rid)
	if err != nil {
		return err
	}
	if err := r.store.Update(r.desc, rid, values); err != nil {
		return err
	}

	indices, err := m.cat.IndicesForTable(table)
	if err != nil {
		return err
	}
	for _, info := range indices {
		pos, err := attrIndex(r.attrs, info.AttrName)
		if err != nil {
			return err
		}
		ix, err := m.indexFor(r.id, r.attrs[pos])
		if err != nil {
			return err
		}
		if err := ix.DeleteEntry(preimage[pos], rid); err != nil {
			return err
		}
		if err := ix.InsertEntry(values[pos], rid); err != nil {
			return err
		}
	}
	return nil
}

// ReadTuple materializes rid's current value.
func (m *Manager) ReadTuple(table string, rid types.RID) ([]tuple.Value, error) {
	r, err := m.resolve(table)
	if err != nil {
		return nil, err
	}
	return r.store.Read(r.desc, rid)
}

// ReadAttribute returns one field of rid's record without materializing
// the rest of the tuple.
func (m *Manager) ReadAttribute(table string, rid types.RID, attrName string) ([]byte, bool, error) {
	r, err := m.resolve(table)
	if err != nil {
		return nil, false, err
	}
	pos, err := attrIndex(r.attrs, attrName)
	if err != nil {
		return nil, false, err
	}
	return r.store.ReadAttribute(r.desc, rid, pos)
}

// ScanIterator wraps a record-store scan with the catalog-resolved
// descriptor, so callers see attribute names rather than positions.
type ScanIterator struct {
	attrs []types.Attribute
	inner *recordstore.ScanIterator
}

// Scan starts a full scan of table, optionally pushed down on one
// attribute by name.
func (m *Manager) Scan(table string, condAttrName string, op types.CompOp, value tuple.Value) (*ScanIterator, error) {
	r, err := m.resolve(table)
	if err != nil {
		return nil, err
	}
	condAttr := -1
	if condAttrName != "" {
		pos, err := attrIndex(r.attrs, condAttrName)
		if err != nil {
			return nil, err
		}
		condAttr = pos
	}
	it := r.store.Scan(r.desc, condAttr, op, value, nil)
	return &ScanIterator{attrs: r.attrs, inner: it}, nil
}

// Next returns the next qualifying row.
func (it *ScanIterator) Next() ([]tuple.Value, types.RID, bool, error) { return it.inner.Next() }

// Close releases the iterator.
func (it *ScanIterator) Close() { it.inner.Close() }

// CreateIndex records a new index on table.attr, creates its file, and
// backfills it with one (key, rid) entry per existing row.
func (m *Manager) CreateIndex(table, attrName string) error {
	r, err := m.resolve(table)
	if err != nil {
		return err
	}
	pos, err := attrIndex(r.attrs, attrName)
	if err != nil {
		return err
	}
	if _, err := m.cat.CreateIndex(table, attrName); err != nil {
		return err
	}
	if err := btreeindex.Create(indexFilePath(m.dir, r.id, attrName)); err != nil {
		return err
	}
	ix, err := m.indexFor(r.id, r.attrs[pos])
	if err != nil {
		return err
	}

	it := r.store.Scan(r.desc, -1, types.NoOp, tuple.Value{}, nil)
	for {
		values, rid, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := ix.InsertEntry(values[pos], rid); err != nil {
			return err
		}
	}
	return nil
}

// DestroyIndex removes table.attr's index from the catalog and deletes
// its file.
func (m *Manager) DestroyIndex(table, attrName string) error {
	r, err := m.resolve(table)
	if err != nil {
		return err
	}
	if err := m.cat.DestroyIndex(table, attrName); err != nil {
		return err
	}
	key := indexKey{tableID: r.id, attrName: attrName}
	if ix, ok := m.indexes[key]; ok {
		ix.Close()
		delete(m.indexes, key)
	}
	return btreeindex.Destroy(indexFilePath(m.dir, r.id, attrName))
}

// IndexScanIterator wraps a B+-tree range scan and materializes the full
// tuple for each matching rid.
type IndexScanIterator struct {
	r     *resolved
	inner *btreeindex.ScanIterator
}

// IndexScan range-scans table's index on attrName in [lowKey, highKey]
// (inclusivity per lowInclusive/highInclusive), returning full tuples.
// A nil lowKey means unbounded below; a nil highKey means unbounded
// above.
func (m *Manager) IndexScan(table, attrName string, lowKey, highKey *tuple.Value, lowInclusive, highInclusive bool) (*IndexScanIterator, error) {
	r, err := m.resolve(table)
	if err != nil {
		return nil, err
	}
	pos, err := attrIndex(r.attrs, attrName)
	if err != nil {
		return nil, err
	}
	ix, err := m.indexFor(r.id, r.attrs[pos])
	if err != nil {
		return nil, err
	}
	it, err := ix.Scan(lowKey, highKey, lowInclusive, highInclusive)
	if err != nil {
		return nil, err
	}
	return &IndexScanIterator{r: r, inner: it}, nil
}

// Next returns the next matching row's RID and full tuple.
func (it *IndexScanIterator) Next() (types.RID, []tuple.Value, bool, error) {
	rid, _, ok, err := it.inner.Next()
	if err != nil || !ok {
		return types.RID{}, nil, ok, err
	}
	values, err := it.r.store.Read(it.r.desc, rid)
	if err != nil {
		return types.RID{}, nil, false, err
	}
	return rid, values, true, nil
}

// Close releases the iterator.
func (it *IndexScanIterator) Close() { it.inner.Close() }
