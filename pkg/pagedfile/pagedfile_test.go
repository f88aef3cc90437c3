package pagedfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"relstore/pkg/page"
)

func tempPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.rel")
}

func TestCreateOpenClose(t *testing.T) {
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Create(path); err == nil {
		t.Fatalf("Create on existing path expected error, got nil")
	}

	fh, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if fh.NumPages() != 1 {
		t.Fatalf("NumPages() = %d, want 1", fh.NumPages())
	}
	if err := fh.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestAppendAndReadPage(t *testing.T) {
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fh, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	pg := page.New(0)
	copy(pg.Data[:], []byte("hello page"))
	num, err := fh.AppendPage(pg)
	if err != nil {
		t.Fatalf("AppendPage: %v", err)
	}
	if num != 1 {
		t.Fatalf("AppendPage returned %d, want 1 (page 0 is the header)", num)
	}
	if fh.NumPages() != 2 {
		t.Fatalf("NumPages() = %d, want 2", fh.NumPages())
	}

	got, err := fh.ReadPage(1)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.HasPrefix(got.Data[:], []byte("hello page")) {
		t.Fatalf("ReadPage returned unexpected content: %q", got.Data[:16])
	}

	if _, err := fh.ReadPage(5); err == nil {
		t.Fatalf("ReadPage out of range expected error, got nil")
	}

	if err := fh.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestWritePage(t *testing.T) {
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fh, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	pg := page.New(0)
	if _, err := fh.AppendPage(pg); err != nil {
		t.Fatalf("AppendPage: %v", err)
	}

	pg.Num = 1
	copy(pg.Data[:], []byte("updated"))
	if err := fh.WritePage(pg); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	got, err := fh.ReadPage(1)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.HasPrefix(got.Data[:], []byte("updated")) {
		t.Fatalf("ReadPage after WritePage returned %q", got.Data[:16])
	}
	fh.Close()
}

func TestCountersSurviveReopen(t *testing.T) {
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fh, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	pg := page.New(0)
	fh.AppendPage(pg)
	fh.AppendPage(pg)
	fh.WritePage(pg)
	fh.ReadPage(1)
	fh.ReadPage(2)
	fh.ReadPage(1)

	wantRead, wantWrite, wantAppend := fh.ReadPageCount(), fh.WritePageCount(), fh.AppendPageCount()
	if err := fh.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fh2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer fh2.Close()

	if fh2.ReadPageCount() != wantRead {
		t.Errorf("ReadPageCount after reopen = %d, want %d", fh2.ReadPageCount(), wantRead)
	}
	if fh2.WritePageCount() != wantWrite {
		t.Errorf("WritePageCount after reopen = %d, want %d", fh2.WritePageCount(), wantWrite)
	}
	if fh2.AppendPageCount() != wantAppend {
		t.Errorf("AppendPageCount after reopen = %d, want %d", fh2.AppendPageCount(), wantAppend)
	}
}

func TestDestroy(t *testing.T) {
	path := tempPath(t)
	if err := Create(path); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Destroy(path); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still exists after Destroy")
	}
}
