package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/astrali/internal/config"
	"go.uber.org/zap"
)

// NewLoader returns a Loader that builds the provider named in cfg.
func NewLoader(cfg config.EmbeddingConfig, logger *zap.Logger) (Loader, error) {
	switch cfg.Provider {
	case "onnx":
		return func(ctx context.Context) (Embedder, error) {
			return NewONNXEmbedder(ONNXConfig{
				ModelPath:  cfg.ModelPath,
				Dimensions: cfg.Dimensions,
				MaxTokens:  cfg.MaxTokens,
				OutputName: cfg.OutputName,
				Tokenizer:  LoadTokenizer(cfg.TokenizerPath, logger),
			})
		}, nil
	case "tei":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("embedding provider tei requires base_url")
		}
		return func(ctx context.Context) (Embedder, error) {
			return NewTEIEmbedder(cfg.BaseURL, cfg.Dimensions, cfg.Timeout), nil
		}, nil
	case "ollama":
		return func(ctx context.Context) (Embedder, error) {
			return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimensions)
		}, nil
	case "mock":
		return func(ctx context.Context) (Embedder, error) {
			return NewMockEmbedder(cfg.Dimensions), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// NewServiceFromConfig wires a Service for cfg. cachePath, when set, enables the
// persistent embedding cache.
func NewServiceFromConfig(cfg config.EmbeddingConfig, cachePath string, logger *zap.Logger) (*Service, error) {
	load, err := NewLoader(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := []ServiceOption{WithLogger(logger), WithCacheSize(cfg.CacheSize)}
	if cachePath != "" {
		store, err := OpenBoltCache(cachePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPersistentCache(store))
	}
	return NewService(cfg.Model, load, opts...), nil
}
