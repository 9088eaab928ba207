package embedding

import (
	"path/filepath"
	"testing"
)

func TestBoltCache_PutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "embeddings.db")
	c, err := OpenBoltCache(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.PutBatch("m1", []string{"hello", "world"}, [][]float32{{1, 2}, {3, 4}}); err != nil {
		t.Fatal(err)
	}
	v, ok := c.Get("m1", "world")
	if !ok || len(v) != 2 || v[0] != 3 || v[1] != 4 {
		t.Errorf("Get = %v, %v", v, ok)
	}
	if _, ok := c.Get("m2", "world"); ok {
		t.Error("entries must be scoped by model")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d", c.Len())
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenBoltCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if _, ok := reopened.Get("m1", "hello"); !ok {
		t.Error("expected entry to survive reopen")
	}
}

func TestBoltCache_LengthMismatch(t *testing.T) {
	c, err := OpenBoltCache(filepath.Join(t.TempDir(), "e.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.PutBatch("m", []string{"a"}, nil); err == nil {
		t.Error("expected error")
	}
}
