package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder embeds through an Ollama server using langchaingo.
type OllamaEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
}

// NewOllamaEmbedder connects to serverURL (empty for the default local server) and uses model.
func NewOllamaEmbedder(serverURL, model string, dimensions int) (*OllamaEmbedder, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	e, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true), embeddings.WithBatchSize(64))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &OllamaEmbedder{embedder: e, dimensions: dimensions}, nil
}

// Embed returns the embedding for text.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := o.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	o.observe(v)
	return v, nil
}

// EmbedBatch embeds texts in batches.
func (o *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vs, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(vs) > 0 {
		o.observe(vs[0])
	}
	return vs, nil
}

func (o *OllamaEmbedder) observe(v []float32) {
	if o.dimensions == 0 {
		o.dimensions = len(v)
	}
}

// Dimensions returns the configured or observed embedding width.
func (o *OllamaEmbedder) Dimensions() int {
	return o.dimensions
}

// Close is a no-op.
func (o *OllamaEmbedder) Close() error {
	return nil
}
