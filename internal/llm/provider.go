package llm

import (
	"context"
	"fmt"

	"github.com/hyperjump/astrali/internal/config"
)

// NewFromConfig builds the generator named by cfg.Provider.
func NewFromConfig(cfg config.GenerationConfig) (Generator, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIGenerator(OpenAIConfig{
			APIKey:      cfg.APIKey(),
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	case "ollama":
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens)
	case "gemini", "googleai":
		return NewGeminiGenerator(context.Background(), cfg.APIKey(), cfg.Model, cfg.Temperature, cfg.MaxTokens)
	case "openai-compatible":
		return NewCompatibleGenerator(cfg.BaseURL, cfg.APIKey(), cfg.Model, cfg.Temperature, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
