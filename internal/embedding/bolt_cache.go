package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var embeddingsBucket = []byte("embeddings")

// BoltCache persists embeddings across restarts, keyed by model name and text.
// Re-ingesting the same document skips the model for every chunk already seen.
type BoltCache struct {
	db *bolt.DB
}

// OpenBoltCache opens (or creates) the cache database at path.
func OpenBoltCache(path string) (*BoltCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for embedding cache: %w", err)
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(embeddingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltCache{db: db}, nil
}

// Get returns the stored embedding for (model, text).
func (c *BoltCache) Get(model, text string) ([]float32, bool) {
	var out []float32
	_ = c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(embeddingsBucket).Get(cacheKey(model, text)); v != nil {
			out = bytesToFloat32Slice(v)
		}
		return nil
	})
	return out, out != nil
}

// PutBatch stores several embeddings for model in one transaction.
func (c *BoltCache) PutBatch(model string, texts []string, vecs [][]float32) error {
	if len(texts) != len(vecs) {
		return fmt.Errorf("texts and vectors length mismatch")
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(embeddingsBucket)
		for i, text := range texts {
			if err := b.Put(cacheKey(model, text), float32SliceToBytes(vecs[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of stored embeddings.
func (c *BoltCache) Len() int {
	n := 0
	_ = c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(embeddingsBucket).Stats().KeyN
		return nil
	})
	return n
}

// Close closes the database.
func (c *BoltCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func cacheKey(model, text string) []byte {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return h[:]
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
