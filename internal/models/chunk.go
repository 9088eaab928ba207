// Package models defines the chunk, source and answer types shared by the pipelines.
package models

import "fmt"

// ChunkKind discriminates the chunk variants.
type ChunkKind string

const (
	KindDocument ChunkKind = "document"
	KindMarket   ChunkKind = "market"
)

// PeriodKind is the aggregation window a market chunk summarizes.
type PeriodKind string

const (
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
)

// DocumentMeta holds the provenance of a document chunk.
type DocumentMeta struct {
	// Page is 1-indexed.
	Page int `json:"page"`
}

// MarketMeta holds the provenance of a market chunk.
type MarketMeta struct {
	Ticker string     `json:"ticker"`
	Period PeriodKind `json:"period"`
	// Label is the human period label, e.g. "2024-01-07" or "January 2024".
	Label string `json:"label"`
}

// Chunk is a bounded unit of source text with its provenance. Exactly one of
// Document or Market is set, matching Kind. ID is assigned in creation order
// and never reused within a pipeline.
type Chunk struct {
	ID        int           `json:"chunk_id"`
	SourceID  string        `json:"source_id"`
	Kind      ChunkKind     `json:"kind"`
	Text      string        `json:"text"`
	Document  *DocumentMeta `json:"document,omitempty"`
	Market    *MarketMeta   `json:"market,omitempty"`
	Embedding []float32     `json:"-"`
}

// NewDocumentChunk returns a document chunk for page.
func NewDocumentChunk(id int, sourceID, text string, page int) *Chunk {
	return &Chunk{
		ID:       id,
		SourceID: sourceID,
		Kind:     KindDocument,
		Text:     text,
		Document: &DocumentMeta{Page: page},
	}
}

// NewMarketChunk returns a market chunk for ticker over one window.
func NewMarketChunk(id int, ticker, text string, period PeriodKind, label string) *Chunk {
	return &Chunk{
		ID:       id,
		SourceID: ticker,
		Kind:     KindMarket,
		Text:     text,
		Market:   &MarketMeta{Ticker: ticker, Period: period, Label: label},
	}
}

// Validate checks that the variant fields match Kind.
func (c *Chunk) Validate() error {
	switch c.Kind {
	case KindDocument:
		if c.Document == nil || c.Market != nil {
			return fmt.Errorf("chunk %d: document chunk needs document metadata only", c.ID)
		}
		if c.Document.Page < 1 {
			return fmt.Errorf("chunk %d: page must be >= 1, got %d", c.ID, c.Document.Page)
		}
	case KindMarket:
		if c.Market == nil || c.Document != nil {
			return fmt.Errorf("chunk %d: market chunk needs market metadata only", c.ID)
		}
		if c.Market.Ticker == "" {
			return fmt.Errorf("chunk %d: market chunk needs a ticker", c.ID)
		}
	default:
		return fmt.Errorf("chunk %d: unknown kind %q", c.ID, c.Kind)
	}
	return nil
}

// Page returns the page number of a document chunk, or 0.
func (c *Chunk) Page() int {
	if c.Document == nil {
		return 0
	}
	return c.Document.Page
}

// Ticker returns the ticker of a market chunk, or "".
func (c *Chunk) Ticker() string {
	if c.Market == nil {
		return ""
	}
	return c.Market.Ticker
}
