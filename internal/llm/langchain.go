package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangChainGenerator generates through any langchaingo model (Ollama, Gemini, OpenAI-compatible gateways).
type LangChainGenerator struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewLangChainGenerator wraps an existing langchaingo model.
func NewLangChainGenerator(model llms.Model, temperature float64, maxTokens int) *LangChainGenerator {
	return &LangChainGenerator{model: model, temperature: temperature, maxTokens: maxTokens}
}

// NewOllamaGenerator talks to a local Ollama server.
func NewOllamaGenerator(serverURL, model string, temperature float64, maxTokens int) (*LangChainGenerator, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	m, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return NewLangChainGenerator(m, temperature, maxTokens), nil
}

// NewCompatibleGenerator talks to an OpenAI-compatible endpoint such as OpenRouter or vLLM.
func NewCompatibleGenerator(baseURL, token, model string, temperature float64, maxTokens int) (*LangChainGenerator, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("openai-compatible: base_url is required")
	}
	m, err := lcopenai.New(
		lcopenai.WithBaseURL(baseURL),
		lcopenai.WithToken(strings.TrimPrefix(token, "Bearer ")),
		lcopenai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai-compatible: %w", err)
	}
	return NewLangChainGenerator(m, temperature, maxTokens), nil
}

// NewGeminiGenerator talks to the Google AI (Gemini) API.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float64, maxTokens int) (*LangChainGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	opts := []googleai.Option{googleai.WithAPIKey(apiKey)}
	if model != "" {
		opts = append(opts, googleai.WithDefaultModel(model))
	}
	m, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return NewLangChainGenerator(m, temperature, maxTokens), nil
}

// Generate implements Generator.
func (g *LangChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, opts...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", errEmptyResponse
	}
	return out, nil
}
