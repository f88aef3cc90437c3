package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"relstore/pkg/dberrors"
	"relstore/pkg/logging"
	"relstore/pkg/recordstore"
	"relstore/pkg/tuple"
)

const (
	tablesFileName  = "__tables.sys"
	columnsFileName = "__columns.sys"
	indicesFileName = "__indices.sys"
	nextIDFileName  = "__next_table_id.json"
)

// Catalog holds the three system record files (Tables, Columns, Indices)
// that describe every user table, and the sidecar counter that hands out
// fresh table ids.
type Catalog struct {
	dir     string
	tables  *recordstore.Store
	columns *recordstore.Store
	indices *recordstore.Store
	nextID  uint32
	log     *logging.Logger
}

func sysPath(dir, name string) string { return filepath.Join(dir, name) }

func writeNextID(dir string, id uint32) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return os.WriteFile(sysPath(dir, nextIDFileName), data, 0644)
}

func readNextID(dir string) (uint32, error) {
	data, err := os.ReadFile(sysPath(dir, nextIDFileName))
	if err != nil {
		return 0, dberrors.New(dberrors.IO, "catalog.readNextID", err)
	}
	var id uint32
	if err := json.Unmarshal(data, &id); err != nil {
		return 0, dberrors.New(dberrors.Corrupt, "catalog.readNextID", err)
	}
	return id, nil
}

// CreateCatalog creates the three system files, bootstraps their own
// schema tuples (system-flag = 1), and writes the initial next-table-id
// sidecar.
func CreateCatalog(dir string) error {
	for _, f := range []string{tablesFileName, columnsFileName, indicesFileName} {
		if err := recordstore.Create(sysPath(dir, f)); err != nil {
			return err
		}
	}

	tables, err := recordstore.Open(sysPath(dir, tablesFileName), nil)
	if err != nil {
		return err
	}
	defer tables.Close()
	columns, err := recordstore.Open(sysPath(dir, columnsFileName), nil)
	if err != nil {
		return err
	}
	defer columns.Close()

	bootstrap := []struct {
		id    uint32
		name  string
		attrs tuple.Descriptor
	}{
		{TablesTableID, "Tables", tablesDescriptor()},
		{ColumnsTableID, "Columns", columnsDescriptor()},
		{IndicesTableID, "Indices", indicesDescriptor()},
	}
	for _, b := range bootstrap {
		if _, err := tables.Insert(tablesDescriptor(), tableRowValues(b.id, b.name, true)); err != nil {
			return err
		}
		for pos, a := range b.attrs {
			if _, err := columns.Insert(columnsDescriptor(), columnRowValues(b.id, a, pos+1)); err != nil {
				return err
			}
		}
	}

	return writeNextID(dir, firstUserTableID)
}

// DestroyCatalog removes the catalog's system files and sidecar counter.
func DestroyCatalog(dir string) error {
	for _, f := range []string{tablesFileName, columnsFileName, indicesFileName} {
		if err := recordstore.Destroy(sysPath(dir, f)); err != nil {
			return err
		}
	}
	if err := os.Remove(sysPath(dir, nextIDFileName)); err != nil {
		return dberrors.New(dberrors.IO, "catalog.DestroyCatalog", err)
	}
	return nil
}

// OpenCatalog opens an existing catalog's system files.
func OpenCatalog(dir string, log *logging.Logger) (*Catalog, error) {
	tables, err := recordstore.Open(sysPath(dir, tablesFileName), log)
	if err != nil {
		return nil, err
	}
	columns, err := recordstore.Open(sysPath(dir, columnsFileName), log)
	if err != nil {
		tables.Close()
		return nil, err
	}
	indices, err := recordstore.Open(sysPath(dir, indicesFileName), log)
	if err != nil {
		tables.Close()
		columns.Close()
		return nil, err
	}
	nextID, err := readNextID(dir)
	if err != nil {
		tables.Close()
		columns.Close()
		indices.Close()
		return nil, err
	}

	return &Catalog{
		dir:     dir,
		tables:  tables,
		columns: columns,
		indices: indices,
		nextID:  nextID,
		log:     logging.OrNop(log).Named("catalog"),
	}, nil
}

// Close closes the three system files. It reports the first error
// encountered but still attempts to close every file.
func (c *Catalog) Close() error {
	var firstErr error
	for _, s := range []*recordstore.Store{c.tables, c.columns, c.indices} {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func isSystemTableName(name string) bool {
	switch name {
	case "Tables", "Columns", "Indices":
		return true
	default:
		return false
	}
}

func errSystemTable(op, name string) error {
	return dberrors.New(dberrors.Invalid, op, fmt.Errorf("%q is a system table", name))
}
