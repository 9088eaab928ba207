package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "sessions.db")
	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-wal", []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := filepath.Join(dir, "cache")
	if err := os.MkdirAll(filepath.Join(cache, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cache, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cache, "nested", "b"), []byte("xyz"), 0644); err != nil {
		t.Fatal(err)
	}

	usage, total, err := DiskUsage(db, cache, "", filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if len(usage) != 3 {
		t.Fatalf("got %d entries, want 3 (blank path skipped)", len(usage))
	}
	if usage[0].Bytes != 8 {
		t.Errorf("db with wal: got %d bytes, want 8", usage[0].Bytes)
	}
	if usage[1].Bytes != 5 {
		t.Errorf("directory: got %d bytes, want 5", usage[1].Bytes)
	}
	if usage[2].Bytes != 0 {
		t.Errorf("missing path: got %d bytes, want 0", usage[2].Bytes)
	}
	if total != 13 {
		t.Errorf("total = %d, want 13", total)
	}
}
