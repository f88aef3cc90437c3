package catalog

import (
	"testing"

	"relstore/pkg/dberrors"
	"relstore/pkg/types"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	if err := CreateCatalog(dir); err != nil {
		t.Fatalf("CreateCatalog: %v", err)
	}
	c, err := OpenCatalog(dir, nil)
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func empAttrs() []types.Attribute {
	return []types.Attribute{
		{Name: "id", Type: types.IntType, Length: types.FixedFieldSize},
		{Name: "name", Type: types.VarCharType, Length: 32},
		{Name: "salary", Type: types.RealType, Length: types.FixedFieldSize},
	}
}

func TestBootstrapRowsPresent(t *testing.T) {
	c := openTestCatalog(t)
	tables, err := c.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 3 {
		t.Fatalf("expected 3 bootstrap tables, got %d", len(tables))
	}
	for _, want := range []string{"Tables", "Columns", "Indices"} {
		found := false
		for _, ti := range tables {
			if ti.Name == want {
				if !ti.System {
					t.Fatalf("bootstrap table %q not marked system", want)
				}
				found = true
			}
		}
		if !found {
			t.Fatalf("bootstrap table %q missing", want)
		}
	}

	attrs, err := c.GetAttributes("Columns")
	if err != nil {
		t.Fatalf("GetAttributes(Columns): %v", err)
	}
	if len(attrs) != 5 {
		t.Fatalf("Columns should have 5 attributes, got %d", len(attrs))
	}
}

func TestCreateAndDeleteTable(t *testing.T) {
	c := openTestCatalog(t)
	id, err := c.CreateTable("employees", empAttrs())
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if id != firstUserTableID {
		t.Fatalf("first user table id = %d, want %d", id, firstUserTableID)
	}

	attrs, err := c.GetAttributes("employees")
	if err != nil {
		t.Fatalf("GetAttributes: %v", err)
	}
	if len(attrs) != 3 || attrs[0].Name != "id" || attrs[1].Name != "name" || attrs[2].Name != "salary" {
		t.Fatalf("attributes out of order: %+v", attrs)
	}

	if _, err := c.CreateTable("employees", empAttrs()); err == nil {
		t.Fatalf("expected duplicate CreateTable to fail")
	}

	dropped, err := c.DeleteTable("employees")
	if err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if len(dropped) != 0 {
		t.Fatalf("expected no indices dropped, got %d", len(dropped))
	}

	if _, err := c.GetAttributes("employees"); !dberrors.Is(err, dberrors.NotFound) {
		t.Fatalf("GetAttributes after delete: err = %v, want NotFound", err)
	}
}

func TestSystemTableProtection(t *testing.T) {
	c := openTestCatalog(t)
	if _, err := c.CreateTable("Tables", empAttrs()); !dberrors.Is(err, dberrors.Invalid) {
		t.Fatalf("CreateTable(Tables): err = %v, want Invalid", err)
	}
	if _, err := c.DeleteTable("Columns"); !dberrors.Is(err, dberrors.Invalid) {
		t.Fatalf("DeleteTable(Columns): err = %v, want Invalid", err)
	}
}

func TestNextIDPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	if err := CreateCatalog(dir); err != nil {
		t.Fatalf("CreateCatalog: %v", err)
	}
	c, err := OpenCatalog(dir, nil)
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	id1, err := c.CreateTable("a", empAttrs())
	if err != nil {
		t.Fatalf("CreateTable a: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := OpenCatalog(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	id2, err := c2.CreateTable("b", empAttrs())
	if err != nil {
		t.Fatalf("CreateTable b: %v", err)
	}
	if id2 != id1+1 {
		t.Fatalf("next id not persisted: id1=%d id2=%d", id1, id2)
	}
}

func TestCreateAndDestroyIndex(t *testing.T) {
	c := openTestCatalog(t)
	if _, err := c.CreateTable("employees", empAttrs()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	if _, err := c.CreateIndex("employees", "id"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if _, err := c.CreateIndex("employees", "id"); err == nil {
		t.Fatalf("expected duplicate CreateIndex to fail")
	}

	indices, err := c.IndicesForTable("employees")
	if err != nil {
		t.Fatalf("IndicesForTable: %v", err)
	}
	if len(indices) != 1 || indices[0].AttrName != "id" {
		t.Fatalf("unexpected indices: %+v", indices)
	}

	if err := c.DestroyIndex("employees", "id"); err != nil {
		t.Fatalf("DestroyIndex: %v", err)
	}
	indices, err = c.IndicesForTable("employees")
	if err != nil {
		t.Fatalf("IndicesForTable after destroy: %v", err)
	}
	if len(indices) != 0 {
		t.Fatalf("expected no indices after destroy, got %d", len(indices))
	}
}

func TestDeleteTableDropsIndexRows(t *testing.T) {
	c := openTestCatalog(t)
	if _, err := c.CreateTable("employees", empAttrs()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := c.CreateIndex("employees", "name"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	dropped, err := c.DeleteTable("employees")
	if err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if len(dropped) != 1 || dropped[0].AttrName != "name" {
		t.Fatalf("unexpected dropped indices: %+v", dropped)
	}
}

func TestListIndicesAcrossTables(t *testing.T) {
	c := openTestCatalog(t)
	if _, err := c.CreateTable("employees", empAttrs()); err != nil {
		t.Fatalf("CreateTable employees: %v", err)
	}
	if _, err := c.CreateTable("departments", empAttrs()); err != nil {
		t.Fatalf("CreateTable departments: %v", err)
	}
	if _, err := c.CreateIndex("employees", "id"); err != nil {
		t.Fatalf("CreateIndex employees.id: %v", err)
	}
	if _, err := c.CreateIndex("departments", "name"); err != nil {
		t.Fatalf("CreateIndex departments.name: %v", err)
	}

	all, err := c.ListIndices()
	if err != nil {
		t.Fatalf("ListIndices: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 indices across tables, got %d", len(all))
	}
	byAttr := map[string]bool{}
	for _, ix := range all {
		byAttr[ix.AttrName] = true
	}
	if !byAttr["id"] || !byAttr["name"] {
		t.Fatalf("missing expected index attrs in %+v", all)
	}
}

func TestDestroyCatalogRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := CreateCatalog(dir); err != nil {
		t.Fatalf("CreateCatalog: %v", err)
	}
	if err := DestroyCatalog(dir); err != nil {
		t.Fatalf("DestroyCatalog: %v", err)
	}
	if _, err := OpenCatalog(dir, nil); err == nil {
		t.Fatalf("expected OpenCatalog to fail after DestroyCatalog")
	}
}
