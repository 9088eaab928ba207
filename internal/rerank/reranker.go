// Package rerank scores (query, passage) pairs and reorders retrieval candidates.
package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/astrali/pkg/utils"
	"go.uber.org/zap"
)

// Result is one reranked candidate. Index points into the candidate slice passed to Rerank.
type Result struct {
	Index int
	Score float64
}

// Reranker scores candidates against query and returns at most topK results,
// highest score first. Equal scores keep candidate order.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string, topK int) ([]Result, error)
	Close() error
}

// topResults sorts scores descending (stable by index) and keeps topK.
func topResults(scores []float64, topK int) []Result {
	out := make([]Result, len(scores))
	for i, s := range scores {
		out[i] = Result{Index: i, Score: s}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && topK < len(out) {
		out = out[:topK]
	}
	return out
}

// Loader builds the underlying reranker.
type Loader func(ctx context.Context) (Reranker, error)

// Service is the process-wide reranker handle. The model is loaded on first use.
type Service struct {
	name   string
	lazy   *utils.Lazy[Reranker]
	logger *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = utils.OrNop(l) }
}

// NewService returns a service for the named model built by load on first use.
func NewService(name string, load Loader, opts ...ServiceOption) *Service {
	s := &Service{name: name, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.lazy = utils.NewLazy(func(ctx context.Context) (Reranker, error) {
		s.logger.Info("loading reranker", zap.String("model", s.name))
		r, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load reranker %s: %w", s.name, err)
		}
		return r, nil
	})
	return s
}

// Load warms the model.
func (s *Service) Load(ctx context.Context) error {
	_, err := s.lazy.Get(ctx)
	return err
}

// Loaded reports whether the model is resident.
func (s *Service) Loaded() bool {
	return s.lazy.Loaded()
}

// Rerank loads the model if needed and delegates.
func (s *Service) Rerank(ctx context.Context, query string, candidates []string, topK int) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	r, err := s.lazy.Get(ctx)
	if err != nil {
		return nil, err
	}
	return r.Rerank(ctx, query, candidates, topK)
}

// Close releases the model if it was loaded.
func (s *Service) Close() error {
	if r, ok := s.lazy.Peek(); ok {
		return r.Close()
	}
	return nil
}

var _ Reranker = (*Service)(nil)
