package recordstore

import (
	"fmt"
	"path/filepath"
	"testing"

	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

func tempPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.rel")
}

func openStore(t *testing.T) *Store {
	t.Helper()
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func empDesc() tuple.Descriptor {
	return tuple.Descriptor{
		{Name: "id", Type: types.IntType, Length: types.FixedFieldSize},
		{Name: "name", Type: types.VarCharType, Length: 20},
		{Name: "salary", Type: types.RealType, Length: types.FixedFieldSize},
	}
}

func TestInsertAndRead(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	in := []tuple.Value{tuple.IntValue(1), tuple.StrValue("Ada"), tuple.RealValue(1000)}

	rid, err := s.Insert(desc, in)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	out, err := s.Read(desc, rid)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out[0].Int != 1 || out[1].Str != "Ada" || out[2].Real != 1000 {
		t.Fatalf("Read returned %+v", out)
	}
}

func TestReadAttribute(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	in := []tuple.Value{tuple.IntValue(5), tuple.StrValue("Grace"), tuple.RealValue(42.5)}
	rid, err := s.Insert(desc, in)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	raw, isNull, err := s.ReadAttribute(desc, rid, 1)
	if err != nil {
		t.Fatalf("ReadAttribute: %v", err)
	}
	if isNull || string(raw) != "Grace" {
		t.Fatalf("ReadAttribute(1) = %q, isNull=%v", raw, isNull)
	}
}

func TestDeleteThenReadFails(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	rid, err := s.Insert(desc, []tuple.Value{tuple.IntValue(1), tuple.StrValue("Bob"), tuple.RealValue(1)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Delete(rid); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(desc, rid); err == nil {
		t.Fatalf("Read after Delete expected error, got nil")
	}
}

func TestUpdateInPlace(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	rid, err := s.Insert(desc, []tuple.Value{tuple.IntValue(1), tuple.StrValue("Al"), tuple.RealValue(1)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.Update(desc, rid, []tuple.Value{tuple.IntValue(1), tuple.StrValue("Alice"), tuple.RealValue(2)}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, err := s.Read(desc, rid)
	if err != nil {
		t.Fatalf("Read after Update: %v", err)
	}
	if out[1].Str != "Alice" || out[2].Real != 2 {
		t.Fatalf("Read after in-place Update returned %+v", out)
	}
}

// TestUpdateForwards forces a record to outgrow its page, checking that
// the RID handed back at Insert time stays valid (it resolves through a
// forwarding pointer) after the grow.
func TestUpdateForwards(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	rid, err := s.Insert(desc, []tuple.Value{tuple.IntValue(1), tuple.StrValue("A"), tuple.RealValue(1)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Fill the rest of the page so the grown record cannot fit in place.
	padName := make([]byte, 18)
	for i := range padName {
		padName[i] = 'x'
	}
	for i := 0; i < 500; i++ {
		if _, err := s.Insert(desc, []tuple.Value{tuple.IntValue(int32(i + 2)), tuple.StrValue(string(padName)), tuple.RealValue(1)}); err != nil {
			break
		}
	}

	bigName := make([]byte, 20)
	for i := range bigName {
		bigName[i] = 'y'
	}
	if err := s.Update(desc, rid, []tuple.Value{tuple.IntValue(1), tuple.StrValue(string(bigName)), tuple.RealValue(99)}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, err := s.Read(desc, rid)
	if err != nil {
		t.Fatalf("Read after forwarding Update: %v", err)
	}
	if out[1].Str != string(bigName) || out[2].Real != 99 {
		t.Fatalf("Read after forwarding Update returned %+v", out)
	}
}

func TestTombstoneReuse(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	rid, err := s.Insert(desc, []tuple.Value{tuple.IntValue(1), tuple.StrValue("A"), tuple.RealValue(1)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	before := getFreeBytesForPage(t, s, rid.PageNum)
	if err := s.Delete(rid); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	afterDelete := getFreeBytesForPage(t, s, rid.PageNum)
	if afterDelete <= before {
		t.Fatalf("free bytes did not grow after Delete: before=%d after=%d", before, afterDelete)
	}

	rid2, err := s.Insert(desc, []tuple.Value{tuple.IntValue(2), tuple.StrValue("B"), tuple.RealValue(2)})
	if err != nil {
		t.Fatalf("Insert after Delete: %v", err)
	}
	if rid2.SlotNum != rid.SlotNum {
		t.Fatalf("expected tombstoned slot %d to be reused, got slot %d", rid.SlotNum, rid2.SlotNum)
	}
}

func getFreeBytesForPage(t *testing.T, s *Store, pageNum uint32) uint16 {
	t.Helper()
	pg, err := s.fh.ReadPage(pageNum)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	return getFreeBytes(pg)
}

func TestScanWithPredicate(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	for i := 0; i < 10; i++ {
		if _, err := s.Insert(desc, []tuple.Value{tuple.IntValue(int32(i)), tuple.StrValue(fmt.Sprintf("n%d", i)), tuple.RealValue(float32(i))}); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	it := s.Scan(desc, 0, types.GE, tuple.IntValue(7), nil)
	count := 0
	for {
		values, _, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		if values[0].Int < 7 {
			t.Fatalf("predicate pushdown returned id %d", values[0].Int)
		}
		count++
	}
	if count != 3 {
		t.Fatalf("scan with predicate returned %d rows, want 3", count)
	}
}

func TestScanAcrossManyPages(t *testing.T) {
	s := openStore(t)
	desc := empDesc()
	n := 2000
	for i := 0; i < n; i++ {
		if _, err := s.Insert(desc, []tuple.Value{tuple.IntValue(int32(i)), tuple.StrValue("row"), tuple.RealValue(1)}); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	it := s.Scan(desc, -1, types.NoOp, tuple.Value{}, nil)
	count := 0
	for {
		_, _, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != n {
		t.Fatalf("scan across many pages returned %d rows, want %d", count, n)
	}
}
