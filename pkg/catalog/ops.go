package catalog

import (
	"fmt"
	"sort"

	"relstore/pkg/dberrors"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// findTableByName returns the Tables row and its RID, or a NotFound
// error.
func (c *Catalog) findTableByName(name string) (TableInfo, types.RID, error) {
	it := c.tables.Scan(tablesDescriptor(), 1, types.EQ, tuple.StrValue(name), nil)
	values, rid, ok, err := it.Next()
	if err != nil {
		return TableInfo{}, types.RID{}, err
	}
	if !ok {
		return TableInfo{}, types.RID{}, dberrors.New(dberrors.NotFound, "catalog.findTableByName", fmt.Errorf("table %q not found", name))
	}
	return tableRowFromValues(values), rid, nil
}

func (c *Catalog) tableExists(name string) (bool, error) {
	_, _, err := c.findTableByName(name)
	if err != nil {
		if dberrors.Is(err, dberrors.NotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateTable allocates a table id, inserts one Tables row and one
// Columns row per attribute, and bumps the next-table-id sidecar. It
// does not create the underlying record file; that is the relation
// manager's job, since this package only manages metadata.
func (c *Catalog) CreateTable(name string, attrs []types.Attribute) (uint32, error) {
	if isSystemTableName(name) {
		return 0, errSystemTable("catalog.CreateTable", name)
	}
	if exists, err := c.tableExists(name); err != nil {
		return 0, err
	} else if exists {
		return 0, dberrors.New(dberrors.Exists, "catalog.CreateTable", fmt.Errorf("table %q already exists", name))
	}

	id := c.nextID
	if _, err := c.tables.Insert(tablesDescriptor(), tableRowValues(id, name, false)); err != nil {
		return 0, err
	}
	for pos, a := range attrs {
		if _, err := c.columns.Insert(columnsDescriptor(), columnRowValues(id, a, pos+1)); err != nil {
			return 0, err
		}
	}

	c.nextID++
	if err := writeNextID(c.dir, c.nextID); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteTable removes the Tables row, every Columns row, and every
// Indices row for name, and returns the indices that were dropped so the
// caller can destroy their index files. It does not destroy the table's
// own record file.
func (c *Catalog) DeleteTable(name string) ([]IndexInfo, error) {
	if isSystemTableName(name) {
		return nil, errSystemTable("catalog.DeleteTable", name)
	}
	info, rid, err := c.findTableByName(name)
	if err != nil {
		return nil, err
	}
	if info.System {
		return nil, errSystemTable("catalog.DeleteTable", name)
	}

	indices, indexRIDs, err := c.indicesForTableID(info.ID)
	if err != nil {
		return nil, err
	}
	for _, irid := range indexRIDs {
		if err := c.indices.Delete(irid); err != nil {
			return nil, err
		}
	}

	colRIDs, err := c.columnRIDsForTable(info.ID)
	if err != nil {
		return nil, err
	}
	for _, crid := range colRIDs {
		if err := c.columns.Delete(crid); err != nil {
			return nil, err
		}
	}

	if err := c.tables.Delete(rid); err != nil {
		return nil, err
	}
	return indices, nil
}

func (c *Catalog) columnRIDsForTable(tableID uint32) ([]types.RID, error) {
	it := c.columns.Scan(columnsDescriptor(), 0, types.EQ, tuple.IntValue(int32(tableID)), nil)
	var out []types.RID
	for {
		_, rid, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rid)
	}
}

// GetAttributes returns name's attributes in declared column-position
// order.
func (c *Catalog) GetAttributes(name string) ([]types.Attribute, error) {
	info, _, err := c.findTableByName(name)
	if err != nil {
		return nil, err
	}
	it := c.columns.Scan(columnsDescriptor(), 0, types.EQ, tuple.IntValue(int32(info.ID)), nil)
	var cols []ColumnInfo
	for {
		values, _, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cols = append(cols, columnRowFromValues(values))
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })

	attrs := make([]types.Attribute, len(cols))
	for i, col := range cols {
		attrs[i] = types.Attribute{Name: col.Name, Type: col.Type, Length: col.Length}
	}
	return attrs, nil
}

// TableID resolves name to its table id.
func (c *Catalog) TableID(name string) (uint32, error) {
	info, _, err := c.findTableByName(name)
	if err != nil {
		return 0, err
	}
	return info.ID, nil
}

// ListTables returns every Tables row, system and user alike.
func (c *Catalog) ListTables() ([]TableInfo, error) {
	it := c.tables.Scan(tablesDescriptor(), -1, types.NoOp, tuple.Value{}, nil)
	var out []TableInfo
	for {
		values, _, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, tableRowFromValues(values))
	}
}

func (c *Catalog) indicesForTableID(tableID uint32) ([]IndexInfo, []types.RID, error) {
	it := c.indices.Scan(indicesDescriptor(), 0, types.EQ, tuple.IntValue(int32(tableID)), nil)
	var infos []IndexInfo
	var rids []types.RID
	for {
		values, rid, ok, err := it.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return infos, rids, nil
		}
		infos = append(infos, indexRowFromValues(values))
		rids = append(rids, rid)
	}
}

// IndicesForTable returns the indices defined on table, without RIDs.
func (c *Catalog) IndicesForTable(tableName string) ([]IndexInfo, error) {
	info, _, err := c.findTableByName(tableName)
	if err != nil {
		return nil, err
	}
	infos, _, err := c.indicesForTableID(info.ID)
	return infos, err
}

// ListIndices returns every index across every table in the catalog.
func (c *Catalog) ListIndices() ([]IndexInfo, error) {
	it := c.indices.Scan(indicesDescriptor(), -1, types.NoOp, tuple.Value{}, nil)
	var out []IndexInfo
	for {
		values, _, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, indexRowFromValues(values))
	}
}

func (c *Catalog) findIndex(tableID uint32, attrName string) (IndexInfo, types.RID, error) {
	infos, rids, err := c.indicesForTableID(tableID)
	if err != nil {
		return IndexInfo{}, types.RID{}, err
	}
	for i, info := range infos {
		if info.AttrName == attrName {
			return info, rids[i], nil
		}
	}
	return IndexInfo{}, types.RID{}, dberrors.New(dberrors.NotFound, "catalog.findIndex", fmt.Errorf("no index on %d.%s", tableID, attrName))
}

// CreateIndex records a new index on table.attr. It does not build the
// index file or scan existing rows; that is the relation manager's job.
func (c *Catalog) CreateIndex(tableName, attrName string) (uint32, error) {
	if isSystemTableName(tableName) {
		return 0, errSystemTable("catalog.CreateIndex", tableName)
	}
	info, _, err := c.findTableByName(tableName)
	if err != nil {
		return 0, err
	}
	if _, _, err := c.findIndex(info.ID, attrName); err == nil {
		return 0, dberrors.New(dberrors.Exists, "catalog.CreateIndex", fmt.Errorf("index on %s.%s already exists", tableName, attrName))
	}
	if _, err := c.indices.Insert(indicesDescriptor(), indexRowValues(info.ID, attrName, info.System)); err != nil {
		return 0, err
	}
	return info.ID, nil
}

// DestroyIndex removes the Indices row for table.attr.
func (c *Catalog) DestroyIndex(tableName, attrName string) error {
	if isSystemTableName(tableName) {
		return errSystemTable("catalog.DestroyIndex", tableName)
	}
	info, _, err := c.findTableByName(tableName)
	if err != nil {
		return err
	}
	_, rid, err := c.findIndex(info.ID, attrName)
	if err != nil {
		return err
	}
	return c.indices.Delete(rid)
}
