package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/astrali/pkg/utils"
	"go.uber.org/zap"
)

// Loader builds the underlying embedder. It is called at most once per successful load.
type Loader func(ctx context.Context) (Embedder, error)

// Service is the process-wide embedding handle shared by every pipeline. The model
// is loaded on first use (or by an explicit Load warm-up) and reused afterwards.
// Results are served from an in-memory LRU and, when configured, a persistent cache.
type Service struct {
	model  string
	lazy   *utils.Lazy[Embedder]
	cache  *MemoryCache
	store  *BoltCache
	logger *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = utils.OrNop(l) }
}

// WithCacheSize sets the in-memory LRU capacity.
func WithCacheSize(n int) ServiceOption {
	return func(s *Service) { s.cache = NewMemoryCache(n) }
}

// WithPersistentCache stores embeddings in c across restarts.
func WithPersistentCache(c *BoltCache) ServiceOption {
	return func(s *Service) { s.store = c }
}

// NewService returns a service for model whose embedder is built by load on first use.
func NewService(model string, load Loader, opts ...ServiceOption) *Service {
	s := &Service{
		model:  model,
		cache:  NewMemoryCache(10000),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lazy = utils.NewLazy(func(ctx context.Context) (Embedder, error) {
		s.logger.Info("loading embedding model", zap.String("model", s.model))
		e, err := load(ctx)
		if err != nil {
			s.logger.Error("embedding model load failed", zap.String("model", s.model), zap.Error(err))
			return nil, fmt.Errorf("load embedding model %s: %w", s.model, err)
		}
		s.logger.Info("embedding model ready", zap.String("model", s.model), zap.Int("dimensions", e.Dimensions()))
		return e, nil
	})
	return s
}

// Load warms the model. Safe to call concurrently and repeatedly.
func (s *Service) Load(ctx context.Context) error {
	_, err := s.lazy.Get(ctx)
	return err
}

// Loaded reports whether the model is resident.
func (s *Service) Loaded() bool {
	return s.lazy.Loaded()
}

// Model returns the model name.
func (s *Service) Model() string {
	return s.model
}

// Embed returns the embedding for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch returns one embedding per text, in order. Cache misses are sent to
// the model in a single batch call.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if v, ok := s.cache.Get(s.model, text); ok {
			out[i] = v
			continue
		}
		if s.store != nil {
			if v, ok := s.store.Get(s.model, text); ok {
				s.cache.Put(s.model, text, v)
				out[i] = v
				continue
			}
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	e, err := s.lazy.Get(ctx)
	if err != nil {
		return nil, err
	}
	vecs, err := e.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
	}
	_ = s.cache.PutBatch(s.model, missTexts, vecs)
	if s.store != nil {
		if err := s.store.PutBatch(s.model, missTexts, vecs); err != nil {
			s.logger.Warn("persist embeddings failed", zap.Error(err))
		}
	}
	s.logger.Debug("embedded batch",
		zap.Int("requested", len(texts)),
		zap.Int("computed", len(missTexts)))
	return out, nil
}

// Dimensions returns the embedding width, or 0 before the model is loaded.
func (s *Service) Dimensions() int {
	if e, ok := s.lazy.Peek(); ok {
		return e.Dimensions()
	}
	return 0
}

// Close releases the model and the persistent cache.
func (s *Service) Close() error {
	var err error
	if e, ok := s.lazy.Peek(); ok {
		err = e.Close()
	}
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

var _ Embedder = (*Service)(nil)
