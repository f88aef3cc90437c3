// Package relation is the relation manager (RM): it drives the catalog,
// one record file per table, and one index file per indexed attribute,
// and keeps every index on a table consistent with that table's record
// file across insert, delete, and update.
package relation

import (
	"fmt"
	"path/filepath"

	"relstore/pkg/btreeindex"
	"relstore/pkg/catalog"
	"relstore/pkg/dberrors"
	"relstore/pkg/logging"
	"relstore/pkg/recordstore"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

type indexKey struct {
	tableID  uint32
	attrName string
}

// Manager owns an open catalog plus every record and index file it has
// opened so far, keyed by table id / (table id, attribute name). Files
// are opened lazily on first use and kept open until Close.
type Manager struct {
	dir     string
	cat     *catalog.Catalog
	log     *logging.Logger
	tables  map[uint32]*recordstore.Store
	indexes map[indexKey]*btreeindex.Index
}

func tableFilePath(dir string, id uint32) string {
	return filepath.Join(dir, fmt.Sprintf("table_%d.dat", id))
}

func indexFilePath(dir string, tableID uint32, attrName string) string {
	return filepath.Join(dir, fmt.Sprintf("index_%d_%s.idx", tableID, attrName))
}

// CreateCatalog bootstraps a fresh relation manager's metadata at dir.
func CreateCatalog(dir string) error { return catalog.CreateCatalog(dir) }

// DeleteCatalog destroys dir's metadata. The caller must have already
// destroyed every table and index file (typically via DeleteTable on
// each table first).
func DeleteCatalog(dir string) error { return catalog.DestroyCatalog(dir) }

// Open opens an existing relation manager at dir.
func Open(dir string, log *logging.Logger) (*Manager, error) {
	cat, err := catalog.OpenCatalog(dir, log)
	if err != nil {
		return nil, err
	}
	return &Manager{
		dir:     dir,
		cat:     cat,
		log:     logging.OrNop(log).Named("relation"),
		tables:  make(map[uint32]*recordstore.Store),
		indexes: make(map[indexKey]*btreeindex.Index),
	}, nil
}

// Close closes every open table and index file, then the catalog. It
// reports the first error encountered but attempts to close everything.
func (m *Manager) Close() error {
	var firstErr error
	for _, ix := range m.indexes {
		if err := ix.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range m.tables {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := m.cat.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (m *Manager) storeFor(tableID uint32) (*recordstore.Store, error) {
	if s, ok := m.tables[tableID]; ok {
		return s, nil
	}
	s, err := recordstore.Open(tableFilePath(m.dir, tableID), m.log)
	if err != nil {
		return nil, err
	}
	m.tables[tableID] = s
	return s, nil
}

func (m *Manager) indexFor(tableID uint32, attr types.Attribute) (*btreeindex.Index, error) {
	key := indexKey{tableID: tableID, attrName: attr.Name}
	if ix, ok := m.indexes[key]; ok {
		return ix, nil
	}
	ix, err := btreeindex.Open(indexFilePath(m.dir, tableID, attr.Name), attr, m.log)
	if err != nil {
		return nil, err
	}
	m.indexes[key] = ix
	return ix, nil
}

// resolved is a table's descriptor plus everything needed to drive its
// indexes, looked up once per call.
type resolved struct {
	id    uint32
	attrs []types.Attribute
	desc  tuple.Descriptor
	store *recordstore.Store
}

func (m *Manager) resolve(table string) (*resolved, error) {
	id, err := m.cat.TableID(table)
	if err != nil {
		return nil, err
	}
	attrs, err := m.cat.GetAttributes(table)
	if err != nil {
		return nil, err
	}
	store, err := m.storeFor(id)
	if err != nil {
		return nil, err
	}
	return &resolved{id: id, attrs: attrs, desc: tuple.Descriptor(attrs), store: store}, nil
}

func attrIndex(attrs []types.Attribute, name string) (int, error) {
	for i, a := range attrs {
		if a.Name == name {
			return i, nil
		}
	}
	return 0, dberrors.New(dberrors.NotFound, "relation.attrIndex", fmt.Errorf("no such attribute %q", name))
}

// CreateTable allocates a table id in the catalog and creates its record
// file.
func (m *Manager) CreateTable(name string, attrs []types.Attribute) (uint32, error) {
	id, err := m.cat.CreateTable(name, attrs)
	if err != nil {
		return 0, err
	}
	if err := recordstore.Create(tableFilePath(m.dir, id)); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteTable destroys name's record file and every index file on it,
// after removing all three from the catalog.
func (m *Manager) DeleteTable(name string) error {
	id, err := m.cat.TableID(name)
	if err != nil {
		return err
	}
	dropped, err := m.cat.DeleteTable(name)
	if err != nil {
		return err
	}

	for _, info := range dropped {
		key := indexKey{tableID: info.TableID, attrName: info.AttrName}
		if ix, ok := m.indexes[key]; ok {
			ix.Close()
			delete(m.indexes, key)
		}
		if err := btreeindex.Destroy(indexFilePath(m.dir, info.TableID, info.AttrName)); err != nil {
			return err
		}
	}

	if s, ok := m.tables[id]; ok {
		s.Close()
		delete(m.tables, id)
	}
	return recordstore.Destroy(tableFilePath(m.dir, id))
}

// GetAttributes returns name's attributes in declared column order.
func (m *Manager) GetAttributes(name string) ([]types.Attribute, error) {
	return m.cat.GetAttributes(name)
}
