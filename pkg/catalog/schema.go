// Package catalog stores the engine's own metadata — tables, columns,
// and indices — as ordinary tuples in three system record files rather
// than as a separate sidecar format, so the catalog is read and written
// through the exact same recordstore path as user data.
package catalog

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

const maxNameLen = 64

// Reserved table ids for the three system tables; user tables start at
// firstUserTableID.
const (
	TablesTableID    = 0
	ColumnsTableID   = 1
	IndicesTableID   = 2
	firstUserTableID = 3
)

// TableInfo is one row of the Tables system table.
type TableInfo struct {
	ID     uint32
	Name   string
	System bool
}

// ColumnInfo is one row of the Columns system table.
type ColumnInfo struct {
	TableID  uint32
	Name     string
	Type     types.AttrType
	Length   uint32
	Position int
}

// IndexInfo is one row of the Indices system table.
type IndexInfo struct {
	TableID  uint32
	AttrName string
	System   bool
}

func tablesDescriptor() tuple.Descriptor {
	return tuple.Descriptor{
		{Name: "table_id", Type: types.IntType, Length: types.FixedFieldSize},
		{Name: "table_name", Type: types.VarCharType, Length: maxNameLen},
		{Name: "system_flag", Type: types.IntType, Length: types.FixedFieldSize},
	}
}

func columnsDescriptor() tuple.Descriptor {
	return tuple.Descriptor{
		{Name: "table_id", Type: types.IntType, Length: types.FixedFieldSize},
		{Name: "column_name", Type: types.VarCharType, Length: maxNameLen},
		{Name: "column_type", Type: types.IntType, Length: types.FixedFieldSize},
		{Name: "column_length", Type: types.IntType, Length: types.FixedFieldSize},
		{Name: "column_position", Type: types.IntType, Length: types.FixedFieldSize},
	}
}

func indicesDescriptor() tuple.Descriptor {
	return tuple.Descriptor{
		{Name: "table_id", Type: types.IntType, Length: types.FixedFieldSize},
		{Name: "attr_name", Type: types.VarCharType, Length: maxNameLen},
		{Name: "system_flag", Type: types.IntType, Length: types.FixedFieldSize},
	}
}

func tableRowValues(id uint32, name string, system bool) []tuple.Value {
	return []tuple.Value{
		tuple.IntValue(int32(id)),
		tuple.StrValue(name),
		tuple.IntValue(boolToInt(system)),
	}
}

func tableRowFromValues(v []tuple.Value) TableInfo {
	return TableInfo{
		ID:     uint32(v[0].Int),
		Name:   v[1].Str,
		System: v[2].Int != 0,
	}
}

func columnRowValues(tableID uint32, attr types.Attribute, position int) []tuple.Value {
	return []tuple.Value{
		tuple.IntValue(int32(tableID)),
		tuple.StrValue(attr.Name),
		tuple.IntValue(int32(attr.Type)),
		tuple.IntValue(int32(attr.Length)),
		tuple.IntValue(int32(position)),
	}
}

func columnRowFromValues(v []tuple.Value) ColumnInfo {
	return ColumnInfo{
		TableID:  uint32(v[0].Int),
		Name:     v[1].Str,
		Type:     types.AttrType(v[2].Int),
		Length:   uint32(v[3].Int),
		Position: int(v[4].Int),
	}
}

func indexRowValues(tableID uint32, attrName string, system bool) []tuple.Value {
	return []tuple.Value{
		tuple.IntValue(int32(tableID)),
		tuple.StrValue(attrName),
		tuple.IntValue(boolToInt(system)),
	}
}

func indexRowFromValues(v []tuple.Value) IndexInfo {
	return IndexInfo{
		TableID:  uint32(v[0].Int),
		AttrName: v[1].Str,
		System:   v[2].Int != 0,
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
