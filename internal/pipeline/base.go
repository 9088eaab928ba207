package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/astrali/internal/llm"
	"github.com/hyperjump/astrali/internal/models"
	"github.com/hyperjump/astrali/internal/rerank"
	"github.com/hyperjump/astrali/internal/vector"
	"github.com/hyperjump/astrali/pkg/utils"
	"go.uber.org/zap"
)

// base holds the state machine, chunk list and index shared by both pipeline kinds.
type base struct {
	id       string
	svc      *Services
	settings Settings
	logger   *zap.Logger

	mu        sync.RWMutex
	state     State
	err       error
	chunks    []*models.Chunk
	index     *vector.FlatIndex
	updatedAt time.Time
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *base) { b.logger = l }
}

func (b *base) init(id string, svc *Services, settings Settings, opts []Option) {
	b.id = id
	b.svc = svc
	b.settings = settings
	b.state = StateEmpty
	b.updatedAt = time.Now()
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger).With(zap.String("pipeline", id))
}

// ID returns the pipeline identifier.
func (b *base) ID() string { return b.id }

// State returns the current lifecycle state.
func (b *base) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Err returns the failure that moved the pipeline to Failed, or nil.
func (b *base) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// ChunkCount returns the number of indexed chunks (0 unless Ready).
func (b *base) ChunkCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks)
}

// Chunks returns the indexed chunks in ID order. The slice is a copy; the chunks are shared
// and must not be modified.
func (b *base) Chunks() []*models.Chunk {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*models.Chunk, len(b.chunks))
	copy(out, b.chunks)
	return out
}

// UpdatedAt returns the time of the last state change.
func (b *base) UpdatedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updatedAt
}

// begin moves Empty to the given working state.
func (b *base) begin(working State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateEmpty {
		return fmt.Errorf("%w (state %s)", ErrAlreadyStarted, b.state)
	}
	b.state = working
	b.updatedAt = time.Now()
	return nil
}

// finish records the outcome of a build. On failure nothing built is retained.
func (b *base) finish(chunks []*models.Chunk, index *vector.FlatIndex, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updatedAt = time.Now()
	if err != nil {
		b.state = StateFailed
		b.err = err
		b.chunks = nil
		b.index = nil
		return
	}
	b.state = StateReady
	b.chunks = chunks
	b.index = index
}

// snapshot returns the read-only chunk list and index of a Ready pipeline.
func (b *base) snapshot() ([]*models.Chunk, *vector.FlatIndex, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return nil, nil, fmt.Errorf("%w (state %s)", ErrNotReady, b.state)
	}
	return b.chunks, b.index, nil
}

// embedAndIndex embeds all chunk texts in one batch and builds the index over them.
func (b *base) embedAndIndex(ctx context.Context, chunks []*models.Chunk) (*vector.FlatIndex, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := b.svc.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}
	index, err := vector.Build(vecs)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	return index, nil
}

// retrieve returns the k nearest chunks to question, closest first.
// An empty index is not an error; it yields no hits.
func (b *base) retrieve(ctx context.Context, chunks []*models.Chunk, index *vector.FlatIndex, question string, k int) ([]models.Retrieved, error) {
	q, err := b.svc.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	distances, positions, err := index.Search(q, k)
	if errors.Is(err, vector.ErrEmptyIndex) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	hits := make([]models.Retrieved, len(positions))
	for i, p := range positions {
		hits[i] = models.Retrieved{Chunk: chunks[p], Distance: distances[i]}
	}
	return hits, nil
}

// rerank reorders hits by the reranker and keeps topK. When the reranker fails the hits keep
// retrieval order with score 1/(1+distance).
func (b *base) rerank(ctx context.Context, question string, hits []models.Retrieved, topK int) []models.Source {
	if len(hits) == 0 {
		return nil
	}
	if b.svc.Reranker != nil {
		texts := make([]string, len(hits))
		for i, h := range hits {
			texts[i] = h.Chunk.Text
		}
		results, err := b.svc.Reranker.Rerank(ctx, question, texts, topK)
		if err == nil {
			if sources, ok := toSources(hits, results); ok {
				return sources
			}
			err = fmt.Errorf("reranker returned out-of-range indices")
		}
		b.logger.Warn("rerank failed, keeping retrieval order", zap.Error(err))
	}
	n := len(hits)
	if topK > 0 && topK < n {
		n = topK
	}
	out := make([]models.Source, n)
	for i := 0; i < n; i++ {
		out[i] = models.NewSource(hits[i].Chunk, hits[i].Distance, 1/(1+float64(hits[i].Distance)))
	}
	return out
}

func toSources(hits []models.Retrieved, results []rerank.Result) ([]models.Source, bool) {
	out := make([]models.Source, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(hits) {
			return nil, false
		}
		h := hits[r.Index]
		out = append(out, models.NewSource(h.Chunk, h.Distance, r.Score))
	}
	return out, true
}

// generate renders the template and makes the single generation call. Failures come back as text.
func (b *base) generate(ctx context.Context, tmpl Renderer, contextText, question string) string {
	prompt, err := tmpl.Render(contextText, question)
	if err != nil {
		b.logger.Error("prompt rendering failed", zap.Error(err))
		return llm.ErrorText(err)
	}
	return llm.SafeGenerate(ctx, b.svc.Generator, prompt, b.settings.GenerationTimeout, b.logger)
}
