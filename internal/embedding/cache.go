package embedding

import (
	"container/list"
	"sync"
)

// Cache stores vectors per (model, text) pair. BoltCache and MemoryCache both
// satisfy it.
type Cache interface {
	Get(model, text string) ([]float32, bool)
	PutBatch(model string, texts []string, vecs [][]float32) error
}

type memKey struct {
	model string
	text  string
}

type memEntry struct {
	key memKey
	vec []float32
}

// MemoryCache is a bounded LRU of embeddings. Vectors from different models
// never share a slot, so switching models cannot serve stale dimensions.
type MemoryCache struct {
	mu      sync.Mutex
	limit   int
	entries map[memKey]*list.Element
	order   *list.List
	hits    uint64
	misses  uint64
}

// NewMemoryCache holds at most limit vectors. A non-positive limit keeps one.
func NewMemoryCache(limit int) *MemoryCache {
	if limit < 1 {
		limit = 1
	}
	return &MemoryCache{
		limit:   limit,
		entries: make(map[memKey]*list.Element, limit),
		order:   list.New(),
	}
}

// Get returns the vector for text under model and marks it recently used.
func (c *MemoryCache) Get(model, text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[memKey{model, text}]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*memEntry).vec, true
}

// Put stores one vector.
func (c *MemoryCache) Put(model, text string, vec []float32) {
	c.mu.Lock()
	c.put(memKey{model, text}, vec)
	c.mu.Unlock()
}

// PutBatch stores vecs[i] for texts[i]. Extra texts without a vector are ignored.
func (c *MemoryCache) PutBatch(model string, texts []string, vecs [][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, text := range texts {
		if i >= len(vecs) {
			break
		}
		c.put(memKey{model, text}, vecs[i])
	}
	return nil
}

func (c *MemoryCache) put(k memKey, vec []float32) {
	if el, ok := c.entries[k]; ok {
		el.Value.(*memEntry).vec = vec
		c.order.MoveToFront(el)
		return
	}
	c.entries[k] = c.order.PushFront(&memEntry{key: k, vec: vec})
	for c.order.Len() > c.limit {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*memEntry).key)
	}
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns lookup hit and miss counts since creation.
func (c *MemoryCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*BoltCache)(nil)
)
