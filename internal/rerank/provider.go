package rerank

import (
	"context"
	"fmt"

	"github.com/hyperjump/astrali/internal/config"
	"github.com/hyperjump/astrali/internal/embedding"
	"go.uber.org/zap"
)

// NewLoader returns a Loader for the provider named in cfg.
func NewLoader(cfg config.RerankerConfig, logger *zap.Logger) (Loader, error) {
	switch cfg.Provider {
	case "lexical":
		return func(ctx context.Context) (Reranker, error) {
			return NewLexicalReranker(), nil
		}, nil
	case "tei":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("reranker provider tei requires base_url")
		}
		return func(ctx context.Context) (Reranker, error) {
			return NewTEIReranker(cfg.BaseURL, cfg.Timeout), nil
		}, nil
	case "onnx":
		if cfg.ModelPath == "" {
			return nil, fmt.Errorf("reranker provider onnx requires model_path")
		}
		return func(ctx context.Context) (Reranker, error) {
			return NewONNXReranker(cfg.ModelPath, cfg.MaxTokens, embedding.LoadTokenizer(cfg.TokenizerPath, logger))
		}, nil
	default:
		return nil, fmt.Errorf("unknown reranker provider %q", cfg.Provider)
	}
}

// NewServiceFromConfig wires a Service for cfg.
func NewServiceFromConfig(cfg config.RerankerConfig, logger *zap.Logger) (*Service, error) {
	load, err := NewLoader(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewService(cfg.Model, load, WithLogger(logger)), nil
}
