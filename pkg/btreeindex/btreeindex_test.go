package btreeindex

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
	return filepath.Join(dir, "test.idx")
}

func openIntIndex(t *testing.T) *Index {
	t.Helper()
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	attr := types.Attribute{Name: "id", Type: types.IntType, Length: types.FixedFieldSize}
	ix, err := Open(path, attr, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestInsertAndScanSingleKey(t *testing.T) {
	ix := openIntIndex(t)
	rid := types.RID{PageNum: 1, SlotNum: 0}
	if err := ix.InsertEntry(tuple.IntValue(5), rid); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	it, err := ix.Scan(nil, nil, true, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	gotRID, gotKey, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if gotKey.Int != 5 || gotRID != rid {
		t.Fatalf("Next returned key=%d rid=%v", gotKey.Int, gotRID)
	}
	_, _, ok, err = it.Next()
	if err != nil || ok {
		t.Fatalf("expected exhausted iterator, ok=%v err=%v", ok, err)
	}
}

func TestDuplicateInsertRejected(t *testing.T) {
	ix := openIntIndex(t)
	rid := types.RID{PageNum: 1, SlotNum: 0}
	if err := ix.InsertEntry(tuple.IntValue(1), rid); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if err := ix.InsertEntry(tuple.IntValue(1), rid); err == nil {
		t.Fatalf("expected duplicate insert to fail")
	}
}

func TestDuplicateKeyDistinctRIDs(t *testing.T) {
	ix := openIntIndex(t)
	rid1 := types.RID{PageNum: 1, SlotNum: 0}
	rid2 := types.RID{PageNum: 1, SlotNum: 1}
	if err := ix.InsertEntry(tuple.IntValue(7), rid1); err != nil {
		t.Fatalf("InsertEntry rid1: %v", err)
	}
	if err := ix.InsertEntry(tuple.IntValue(7), rid2); err != nil {
		t.Fatalf("InsertEntry rid2: %v", err)
	}

	it, err := ix.Scan(nil, nil, true, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
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
	if count != 2 {
		t.Fatalf("scan returned %d entries for duplicate key, want 2", count)
	}
}

func TestDeleteEntry(t *testing.T) {
	ix := openIntIndex(t)
	rid := types.RID{PageNum: 2, SlotNum: 3}
	if err := ix.InsertEntry(tuple.IntValue(9), rid); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if err := ix.DeleteEntry(tuple.IntValue(9), rid); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := ix.DeleteEntry(tuple.IntValue(9), rid); err == nil {
		t.Fatalf("expected second delete to fail")
	}
}

func TestInsertManyForcesSplit(t *testing.T) {
	ix := openIntIndex(t)
	n := 2000
	for i := 0; i < n; i++ {
		rid := types.RID{PageNum: uint32(i/200 + 1), SlotNum: uint32(i % 200)}
		if err := ix.InsertEntry(tuple.IntValue(int32(i)), rid); err != nil {
			t.Fatalf("InsertEntry %d: %v", i, err)
		}
	}

	it, err := ix.Scan(nil, nil, true, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	prev := int32(-1)
	count := 0
	for {
		_, key, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		if key.Int <= prev {
			t.Fatalf("scan not in ascending order: prev=%d cur=%d", prev, key.Int)
		}
		prev = key.Int
		count++
	}
	if count != n {
		t.Fatalf("scan returned %d entries, want %d", count, n)
	}
}

func TestRangeScanBounds(t *testing.T) {
	ix := openIntIndex(t)
	for i := 0; i < 100; i++ {
		rid := types.RID{PageNum: 1, SlotNum: uint32(i)}
		if err := ix.InsertEntry(tuple.IntValue(int32(i)), rid); err != nil {
			t.Fatalf("InsertEntry %d: %v", i, err)
		}
	}

	low := tuple.IntValue(10)
	high := tuple.IntValue(20)
	it, err := ix.Scan(&low, &high, false, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var got []int32
	for {
		_, key, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, key.Int)
	}
	if len(got) != 10 {
		t.Fatalf("range scan (10,20] returned %d entries, want 10: %v", len(got), got)
	}
	if got[0] != 11 || got[len(got)-1] != 20 {
		t.Fatalf("range scan bounds wrong: got %v", got)
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	attr := types.Attribute{Name: "id", Type: types.IntType, Length: types.FixedFieldSize}
	ix, err := Open(path, attr, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 500; i++ {
		if err := ix.InsertEntry(tuple.IntValue(int32(i)), types.RID{PageNum: 1, SlotNum: uint32(i)}); err != nil {
			t.Fatalf("InsertEntry %d: %v", i, err)
		}
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ix2, err := Open(path, attr, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ix2.Close()

	it, err := ix2.Scan(nil, nil, true, true)
	if err != nil {
		t.Fatalf("Scan after reopen: %v", err)
	}
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
	if count != 500 {
		t.Fatalf("scan after reopen returned %d entries, want 500", count)
	}
}

func TestVarCharKeyOrdering(t *testing.T) {
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	attr := types.Attribute{Name: "name", Type: types.VarCharType, Length: 10}
	ix, err := Open(path, attr, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ix.Close()

	names := []string{"charlie", "alice", "bob"}
	for i, n := range names {
		if err := ix.InsertEntry(tuple.StrValue(n), types.RID{PageNum: 1, SlotNum: uint32(i)}); err != nil {
			t.Fatalf("InsertEntry %q: %v", n, err)
		}
	}

	it, err := ix.Scan(nil, nil, true, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var got []string
	for {
		_, key, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, key.Str)
	}
	want := []string{"alice", "bob", "charlie"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("VarChar scan order = %v, want %v", got, want)
	}
}

func TestPrint(t *testing.T) {
	ix := openIntIndex(t)
	for i := 0; i < 5; i++ {
		if err := ix.InsertEntry(tuple.IntValue(int32(i)), types.RID{PageNum: 1, SlotNum: uint32(i)}); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}
	out, err := ix.Print()
	if err != nil {
		t.Fatalf("Print: %v", err)
	}
	if out == "" {
		t.Fatalf("Print returned empty string")
	}
}
