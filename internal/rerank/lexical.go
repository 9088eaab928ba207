package rerank

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// LexicalReranker scores candidates by bleve term relevance against the query.
// Each call builds a throwaway in-memory index over the candidates, so it needs
// no model files and works offline. Candidates sharing no term with the query score 0.
type LexicalReranker struct{}

// NewLexicalReranker returns a LexicalReranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Rerank scores candidates and returns the topK best.
func (l *LexicalReranker) Rerank(ctx context.Context, query string, candidates []string, topK int) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i, c := range candidates {
		if err := batch.Index(strconv.Itoa(i), map[string]interface{}{"text": c}); err != nil {
			return nil, fmt.Errorf("index candidate %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("index candidates: %w", err)
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequest(q)
	req.Size = len(candidates)
	res, err := index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("rerank search failed: %w", err)
	}

	scores := make([]float64, len(candidates))
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(scores) {
			continue
		}
		scores[i] = hit.Score
	}
	return topResults(scores, topK), nil
}

// Close is a no-op.
func (l *LexicalReranker) Close() error {
	return nil
}
