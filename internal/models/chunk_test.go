package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChunk_Validate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr bool
	}{
		{"document", NewDocumentChunk(0, "doc", "text", 1), false},
		{"market", NewMarketChunk(1, "AAPL", "text", PeriodWeekly, "2024-01-07"), false},
		{"page zero", NewDocumentChunk(2, "doc", "text", 0), true},
		{"missing ticker", NewMarketChunk(3, "", "text", PeriodMonthly, "x"), true},
		{"mixed variant", &Chunk{ID: 4, Kind: KindDocument, Document: &DocumentMeta{Page: 1}, Market: &MarketMeta{Ticker: "X"}}, true},
		{"unknown kind", &Chunk{ID: 5, Kind: "video"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSource_CopiesVariantFields(t *testing.T) {
	doc := NewSource(NewDocumentChunk(3, "report.pdf", "hello", 2), 0.5, 0.9)
	if doc.Page != 2 || doc.Ticker != "" || doc.ChunkID != 3 || doc.RerankScore != 0.9 {
		t.Errorf("document source: %+v", doc)
	}
	mkt := NewSource(NewMarketChunk(7, "MSFT", "x", PeriodMonthly, "March 2024"), 1, 0.2)
	if mkt.Ticker != "MSFT" || mkt.Period != PeriodMonthly || mkt.Page != 0 {
		t.Errorf("market source: %+v", mkt)
	}
}

func TestSource_JSONOmitsForeignVariant(t *testing.T) {
	b, err := json.Marshal(NewSource(NewDocumentChunk(0, "d", "t", 1), 0, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"page":1`) || !strings.Contains(s, `"rerank_score":0.5`) {
		t.Errorf("missing fields: %s", s)
	}
	if strings.Contains(s, "ticker") {
		t.Errorf("document source should not carry ticker: %s", s)
	}
}

func TestChunk_Accessors(t *testing.T) {
	c := NewMarketChunk(0, "TSLA", "t", PeriodWeekly, "2024-01-07")
	if c.Page() != 0 || c.Ticker() != "TSLA" {
		t.Errorf("Page=%d Ticker=%s", c.Page(), c.Ticker())
	}
}
