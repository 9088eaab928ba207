package models

// Retrieved is one nearest-neighbor hit before reranking.
type Retrieved struct {
	Chunk    *Chunk
	Distance float32
}

// Source is a chunk snapshot handed back with an answer.
type Source struct {
	ChunkID     int        `json:"chunk_id"`
	SourceID    string     `json:"source_id"`
	Kind        ChunkKind  `json:"kind"`
	Text        string     `json:"text"`
	Page        int        `json:"page,omitempty"`
	Ticker      string     `json:"ticker,omitempty"`
	Period      PeriodKind `json:"period,omitempty"`
	Label       string     `json:"label,omitempty"`
	Distance    float32    `json:"distance"`
	RerankScore float64    `json:"rerank_score"`
}

// NewSource snapshots c with its retrieval distance and rerank score.
func NewSource(c *Chunk, distance float32, score float64) Source {
	s := Source{
		ChunkID:     c.ID,
		SourceID:    c.SourceID,
		Kind:        c.Kind,
		Text:        c.Text,
		Distance:    distance,
		RerankScore: score,
	}
	if c.Document != nil {
		s.Page = c.Document.Page
	}
	if c.Market != nil {
		s.Ticker = c.Market.Ticker
		s.Period = c.Market.Period
		s.Label = c.Market.Label
	}
	return s
}

// QueryAnswer is the result of one question against a pipeline.
type QueryAnswer struct {
	Question string   `json:"question"`
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
	// Context is the exact text block sent to the generation service.
	Context string `json:"context"`
	// Tickers is the ticker filter a market answer was scoped to.
	Tickers []string `json:"tickers,omitempty"`
}
