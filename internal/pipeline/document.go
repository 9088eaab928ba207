package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hyperjump/astrali/internal/chunker"
	"github.com/hyperjump/astrali/internal/citation"
	"github.com/hyperjump/astrali/internal/extract"
	"github.com/hyperjump/astrali/internal/fileid"
	"github.com/hyperjump/astrali/internal/models"
	"github.com/hyperjump/astrali/internal/vector"
	"go.uber.org/zap"
)

// DocumentPipeline answers questions over one uploaded document.
type DocumentPipeline struct {
	base
	chunker *chunker.Chunker

	// set once by Ingest
	name     string
	sourceID string
	pages    int
}

// NewDocumentPipeline returns an Empty document pipeline.
func NewDocumentPipeline(id string, svc *Services, settings Settings, opts ...Option) *DocumentPipeline {
	p := &DocumentPipeline{chunker: chunker.NewChunker(settings.ChunkSize, settings.ChunkOverlap)}
	p.init(id, svc, settings, opts)
	return p
}

// Name returns the ingested file name.
func (p *DocumentPipeline) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// SourceID returns the content ID of the ingested document.
func (p *DocumentPipeline) SourceID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sourceID
}

// Pages returns the number of extracted pages.
func (p *DocumentPipeline) Pages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pages
}

// IngestFile reads path and ingests it under its base name.
func (p *DocumentPipeline) IngestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if beginErr := p.begin(StateProcessing); beginErr != nil {
			return beginErr
		}
		err = fmt.Errorf("read file: %w", err)
		p.finish(nil, nil, err)
		return err
	}
	return p.Ingest(ctx, filepath.Base(path), data)
}

// Ingest extracts, chunks, embeds and indexes data. It may be called once; on any failure
// the pipeline becomes Failed and keeps nothing.
func (p *DocumentPipeline) Ingest(ctx context.Context, name string, data []byte) error {
	if err := p.begin(StateProcessing); err != nil {
		return err
	}
	name = safeName(name)
	sourceID := fileid.ContentID(data)
	p.mu.Lock()
	p.name = name
	p.sourceID = sourceID
	p.mu.Unlock()

	chunks, pages, index, err := p.build(ctx, name, sourceID, data)
	if err != nil {
		p.logger.Warn("ingest failed", zap.String("file", name), zap.Error(err))
		p.finish(nil, nil, err)
		return err
	}
	p.mu.Lock()
	p.pages = pages
	p.mu.Unlock()
	p.finish(chunks, index, nil)
	p.logger.Info("document ready", zap.String("file", name), zap.Int("pages", pages), zap.Int("chunks", len(chunks)))
	return nil
}

func (p *DocumentPipeline) build(ctx context.Context, name, sourceID string, data []byte) ([]*models.Chunk, int, *vector.FlatIndex, error) {
	dir, err := os.MkdirTemp(p.settings.TempDir, "astrali-ingest-*")
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, 0, nil, fmt.Errorf("write temp file: %w", err)
	}

	// Extraction and model warm-up are independent; both must finish before chunking.
	var (
		wg         sync.WaitGroup
		pages      []extract.Page
		extractErr error
		warmErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		pages, extractErr = p.svc.Extractor.ExtractPages(path)
	}()
	go func() {
		defer wg.Done()
		warmErr = p.svc.Embedder.Load(ctx)
	}()
	wg.Wait()
	if err := errors.Join(wrapErr("extract", extractErr), wrapErr("load embedding model", warmErr)); err != nil {
		return nil, 0, nil, err
	}
	if extract.TotalChars(pages) == 0 {
		return nil, len(pages), nil, ErrNoText
	}

	chunks := p.chunkPages(sourceID, pages)
	if len(chunks) == 0 {
		return nil, len(pages), nil, ErrNoChunks
	}
	index, err := p.embedAndIndex(ctx, chunks)
	if err != nil {
		return nil, len(pages), nil, err
	}
	return chunks, len(pages), index, nil
}

// chunkPages cleans and chunks each page on its own so no chunk spans a page boundary.
// IDs increase in page order.
func (p *DocumentPipeline) chunkPages(sourceID string, pages []extract.Page) []*models.Chunk {
	var chunks []*models.Chunk
	for _, page := range pages {
		text := chunker.Clean(page.Text)
		if n := utf8.RuneCountInString(text); n < p.settings.MinPageChars {
			p.logger.Debug("skipping short page", zap.Int("page", page.Number), zap.Int("chars", n))
			continue
		}
		for _, piece := range p.chunker.Split(text) {
			chunks = append(chunks, models.NewDocumentChunk(len(chunks), sourceID, piece, page.Number))
		}
	}
	return chunks
}

// Answer retrieves, reranks and generates an answer with normalized citations.
func (p *DocumentPipeline) Answer(ctx context.Context, question string, opts AnswerOptions) (*models.QueryAnswer, error) {
	chunks, index, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	opts = opts.normalized()

	hits, err := p.retrieve(ctx, chunks, index, question, opts.TopRetrieve)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &models.QueryAnswer{Question: question, Response: NoDocumentContent, Sources: []models.Source{}}, nil
	}

	sources := p.rerank(ctx, question, hits, opts.TopRerank)
	contextText := DocumentContext(sources)
	if strings.TrimSpace(contextText) == "" {
		return &models.QueryAnswer{Question: question, Response: EmptyContext, Sources: sources, Context: contextText}, nil
	}

	raw := p.generate(ctx, p.svc.DocumentTemplate, contextText, question)
	pages := make([]int, len(sources))
	for i, s := range sources {
		pages[i] = s.Page
	}
	return &models.QueryAnswer{
		Question: question,
		Response: citation.Normalize(raw, pages),
		Sources:  sources,
		Context:  contextText,
	}, nil
}

// DocumentContext renders sources as "[i] (Page p)\n<text>" blocks separated by blank lines.
func DocumentContext(sources []models.Source) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("[%d] (Page %d)\n%s", i+1, s.Page, s.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// safeName strips directories from an uploaded file name.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.pdf"
	}
	return name
}

func wrapErr(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
