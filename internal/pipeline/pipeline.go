// Package pipeline implements the document and market-data question-answering pipelines.
//
// Each pipeline instance owns its chunks and vector index. Heavy collaborators (embedding
// model, reranker, generator) are injected through Services and shared across instances.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/astrali/internal/config"
	"github.com/hyperjump/astrali/internal/extract"
	"github.com/hyperjump/astrali/internal/llm"
	"github.com/hyperjump/astrali/internal/market"
	"github.com/hyperjump/astrali/internal/rerank"
)

// State is the lifecycle position of a pipeline. Ready and Failed are terminal.
type State string

const (
	StateEmpty      State = "empty"
	StateProcessing State = "processing"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

var (
	// ErrNotReady is returned by Answer on a pipeline that is not Ready.
	ErrNotReady = errors.New("pipeline not ready")
	// ErrAlreadyStarted is returned when Ingest or Load is called twice.
	ErrAlreadyStarted = errors.New("pipeline already started")
	// ErrNoText means extraction produced no characters at all.
	ErrNoText = errors.New("no text extracted")
	// ErrNoChunks means no page or window survived chunking.
	ErrNoChunks = errors.New("no chunks produced")
	// ErrAllFetchesFailed means no ticker could be fetched.
	ErrAllFetchesFailed = errors.New("all market data fetches failed")
)

// Fixed responses for answers that never reach the generator.
const (
	NoDocumentContent = "No relevant content found in the document."
	NoMarketData      = "No relevant market data found for your question."
	EmptyContext      = "Empty context: unable to generate an answer."
)

// Default query sizes.
const (
	DefaultTopRetrieve = 5
	DefaultTopRerank   = 4
	MinTopRerank       = 3
	MaxTopRerank       = 10
)

// Embedder is the embedding capability the pipelines need. Load warms the model.
type Embedder interface {
	Load(ctx context.Context) error
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker scores candidates against a question.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string, topK int) ([]rerank.Result, error)
}

// PageExtractor turns a file into per-page text.
type PageExtractor interface {
	ExtractPages(path string) ([]extract.Page, error)
}

// Renderer fills a prompt template.
type Renderer interface {
	Render(context, question string) (string, error)
}

// Services are the shared collaborators injected into every pipeline.
type Services struct {
	Embedder         Embedder
	Reranker         Reranker
	Generator        llm.Generator
	Extractor        PageExtractor
	Fetcher          market.Fetcher
	DocumentTemplate Renderer
	MarketTemplate   Renderer
}

// Settings are per-pipeline tuning values.
type Settings struct {
	ChunkSize         int
	ChunkOverlap      int
	MinPageChars      int
	GenerationTimeout time.Duration
	// TempDir is the parent of per-ingest scratch directories; empty means os.TempDir().
	TempDir string
	// Now is the clock used for market windows; nil means time.Now.
	Now func() time.Time
}

// SettingsFromConfig extracts pipeline settings from the application config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ChunkSize:         cfg.Pipeline.ChunkSize,
		ChunkOverlap:      cfg.Pipeline.ChunkOverlap,
		MinPageChars:      cfg.Pipeline.MinPageChars,
		GenerationTimeout: cfg.Generation.Timeout,
		TempDir:           cfg.Storage.TempDir,
	}
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AnswerOptions sizes a document query. Zero values select the defaults.
type AnswerOptions struct {
	TopRetrieve int
	// TopRerank is clamped to [MinTopRerank, MaxTopRerank].
	TopRerank int
}

func (o AnswerOptions) normalized() AnswerOptions {
	if o.TopRetrieve <= 0 {
		o.TopRetrieve = DefaultTopRetrieve
	}
	switch {
	case o.TopRerank <= 0:
		o.TopRerank = DefaultTopRerank
	case o.TopRerank < MinTopRerank:
		o.TopRerank = MinTopRerank
	case o.TopRerank > MaxTopRerank:
		o.TopRerank = MaxTopRerank
	}
	return o
}

// MarketAnswerOptions sizes a market query and optionally restricts it to some tickers.
type MarketAnswerOptions struct {
	Tickers     []string
	TopRetrieve int
	TopRerank   int
}

func (o MarketAnswerOptions) normalized() MarketAnswerOptions {
	if o.TopRetrieve <= 0 {
		o.TopRetrieve = DefaultTopRetrieve
	}
	if o.TopRerank <= 0 {
		o.TopRerank = DefaultTopRerank
	}
	if o.TopRerank > MaxTopRerank {
		o.TopRerank = MaxTopRerank
	}
	o.Tickers = market.NormalizeTickers(o.Tickers)
	return o
}

// Option configures a pipeline.
type Option func(*base)
