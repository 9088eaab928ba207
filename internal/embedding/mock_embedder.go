package embedding

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/hyperjump/astrali/pkg/utils"
)

// MockEmbedder is a deterministic bag-of-words embedder for tests and offline use.
// Each lower-cased word is hashed into a bucket, so texts that share words land
// close together under L2 distance.
type MockEmbedder struct {
	dimensions int
	batchCalls atomic.Int64
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic unit-length embedding for text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, word := range SplitWords(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		if word == "" {
			continue
		}
		emb[HashString(word)%e.dimensions]++
	}
	emb[0] += 0.01
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch embeds each text and counts the call.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls.Add(1)
	return embedEach(ctx, e, texts)
}

// BatchCalls returns how many times EmbedBatch was called.
func (e *MockEmbedder) BatchCalls() int {
	return int(e.batchCalls.Load())
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
