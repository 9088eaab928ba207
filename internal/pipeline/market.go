package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/astrali/internal/market"
	"github.com/hyperjump/astrali/internal/models"
	"go.uber.org/zap"
)

// MarketPipeline answers questions over weekly and monthly price summaries of a ticker set.
type MarketPipeline struct {
	base

	// set once by Load
	tickers      []string
	loaded       []string
	periodMonths int
}

// NewMarketPipeline returns an Empty market pipeline.
func NewMarketPipeline(id string, svc *Services, settings Settings, opts ...Option) *MarketPipeline {
	p := &MarketPipeline{}
	p.init(id, svc, settings, opts)
	return p
}

// Tickers returns the requested tickers after normalization.
func (p *MarketPipeline) Tickers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.tickers...)
}

// LoadedTickers returns the tickers that produced at least one chunk.
func (p *MarketPipeline) LoadedTickers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.loaded...)
}

// PeriodMonths returns the requested history length.
func (p *MarketPipeline) PeriodMonths() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.periodMonths
}

// Load fetches each ticker in turn, summarizes its weekly and monthly windows and indexes
// the summaries. A ticker that fails is logged and skipped; the load fails only when every
// ticker does or nothing could be summarized.
func (p *MarketPipeline) Load(ctx context.Context, tickers []string, periodMonths int) error {
	if err := p.begin(StateLoading); err != nil {
		return err
	}
	tickers = market.NormalizeTickers(tickers)
	p.mu.Lock()
	p.tickers = tickers
	p.periodMonths = periodMonths
	p.mu.Unlock()

	chunks, loaded, err := p.build(ctx, tickers, periodMonths)
	if err != nil {
		p.logger.Warn("market load failed", zap.Strings("tickers", tickers), zap.Error(err))
		p.finish(nil, nil, err)
		return err
	}
	index, err := p.embedAndIndex(ctx, chunks)
	if err != nil {
		p.finish(nil, nil, err)
		return err
	}
	p.mu.Lock()
	p.loaded = loaded
	p.mu.Unlock()
	p.finish(chunks, index, nil)
	p.logger.Info("market data ready", zap.Strings("tickers", loaded), zap.Int("chunks", len(chunks)))
	return nil
}

func (p *MarketPipeline) build(ctx context.Context, tickers []string, periodMonths int) ([]*models.Chunk, []string, error) {
	if len(tickers) == 0 {
		return nil, nil, fmt.Errorf("%w: no tickers requested", ErrAllFetchesFailed)
	}
	if periodMonths <= 0 {
		return nil, nil, fmt.Errorf("period must be at least one month, got %d", periodMonths)
	}
	if err := p.svc.Embedder.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("load embedding model: %w", err)
	}

	start, end := market.Window(p.settings.now(), periodMonths)
	var (
		chunks  []*models.Chunk
		loaded  []string
		fetched int
	)
	for _, ticker := range tickers {
		series, err := p.svc.Fetcher.Fetch(ctx, ticker, start, end)
		if err != nil {
			p.logger.Warn("market fetch failed", zap.String("ticker", ticker), zap.Error(err))
			continue
		}
		fetched++
		summaries := market.SummarizeSeries(series)
		if len(summaries) == 0 {
			p.logger.Warn("no usable bars", zap.String("ticker", ticker))
			continue
		}
		for _, s := range summaries {
			chunks = append(chunks, models.NewMarketChunk(len(chunks), ticker, s.Text, s.Period, s.Label))
		}
		loaded = append(loaded, ticker)
	}
	if fetched == 0 {
		return nil, nil, ErrAllFetchesFailed
	}
	if len(chunks) == 0 {
		return nil, nil, ErrNoChunks
	}
	return chunks, loaded, nil
}

// Answer retrieves and reranks summaries, then grounds the answer on the top-ranked one only.
// Sources still carry the whole reranked list.
func (p *MarketPipeline) Answer(ctx context.Context, question string, opts MarketAnswerOptions) (*models.QueryAnswer, error) {
	chunks, index, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	opts = opts.normalized()
	scope := opts.Tickers
	if len(scope) == 0 {
		scope = p.Tickers()
	}

	hits, err := p.retrieve(ctx, chunks, index, question, opts.TopRetrieve)
	if err != nil {
		return nil, err
	}
	if len(opts.Tickers) > 0 {
		hits = filterTickers(hits, opts.Tickers)
	}
	if len(hits) == 0 {
		return &models.QueryAnswer{Question: question, Response: NoMarketData, Sources: []models.Source{}, Tickers: scope}, nil
	}

	sources := p.rerank(ctx, question, hits, opts.TopRerank)
	contextText := MarketContext(sources)
	if strings.TrimSpace(contextText) == "" {
		return &models.QueryAnswer{Question: question, Response: EmptyContext, Sources: sources, Context: contextText, Tickers: scope}, nil
	}

	return &models.QueryAnswer{
		Question: question,
		Response: p.generate(ctx, p.svc.MarketTemplate, contextText, question),
		Sources:  sources,
		Context:  contextText,
		Tickers:  scope,
	}, nil
}

// MarketContext is the text of the top-ranked source alone.
func MarketContext(sources []models.Source) string {
	if len(sources) == 0 {
		return ""
	}
	return sources[0].Text
}

func filterTickers(hits []models.Retrieved, tickers []string) []models.Retrieved {
	allowed := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		allowed[t] = true
	}
	out := hits[:0:0]
	for _, h := range hits {
		if allowed[h.Chunk.Ticker()] {
			out = append(out, h)
		}
	}
	return out
}
