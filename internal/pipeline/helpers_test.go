package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/astrali/internal/embedding"
	"github.com/hyperjump/astrali/internal/extract"
	"github.com/hyperjump/astrali/internal/llm"
	"github.com/hyperjump/astrali/internal/market"
	"github.com/hyperjump/astrali/internal/prompt"
	"github.com/hyperjump/astrali/internal/rerank"
)

type fakeExtractor struct {
	pages []extract.Page
	err   error

	mu       sync.Mutex
	lastPath string
	existed  bool
}

func (f *fakeExtractor) ExtractPages(path string) ([]extract.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPath = path
	_, statErr := os.Stat(path)
	f.existed = statErr == nil
	return f.pages, f.err
}

// orderReranker keeps candidate order with descending scores.
type orderReranker struct{ calls int }

func (r *orderReranker) Rerank(_ context.Context, _ string, candidates []string, topK int) ([]rerank.Result, error) {
	r.calls++
	n := len(candidates)
	if topK > 0 && topK < n {
		n = topK
	}
	out := make([]rerank.Result, n)
	for i := range out {
		out[i] = rerank.Result{Index: i, Score: 1 - 0.1*float64(i)}
	}
	return out, nil
}

type failingReranker struct{}

func (failingReranker) Rerank(context.Context, string, []string, int) ([]rerank.Result, error) {
	return nil, errors.New("model crashed")
}

type recordingGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (g *recordingGenerator) Generate(_ context.Context, p string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	return g.reply, g.err
}

func (g *recordingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeFetcher struct {
	series map[string]*market.Series
	order  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, ticker string, _, _ time.Time) (*market.Series, error) {
	f.order = append(f.order, ticker)
	s, ok := f.series[ticker]
	if !ok {
		return nil, market.ErrNoData
	}
	return s, nil
}

func mockEmbeddingService() *embedding.Service {
	return embedding.NewService("mock", func(context.Context) (embedding.Embedder, error) {
		return embedding.NewMockEmbedder(64), nil
	})
}

func newTestServices(t *testing.T, gen llm.Generator) *Services {
	t.Helper()
	docTmpl, err := prompt.New(prompt.DocumentTemplate, "")
	if err != nil {
		t.Fatal(err)
	}
	mktTmpl, err := prompt.New(prompt.MarketTemplate, "")
	if err != nil {
		t.Fatal(err)
	}
	return &Services{
		Embedder:         mockEmbeddingService(),
		Reranker:         &orderReranker{},
		Generator:        gen,
		DocumentTemplate: docTmpl,
		MarketTemplate:   mktTmpl,
	}
}
