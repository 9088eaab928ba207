package config

import "time"

// DefaultTickers is the market watchlist used when none is configured.
var DefaultTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = 32
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/astrali/data/db/sessions.db"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if cfg.Embedding.Provider == "onnx" && cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/astrali/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}

	if cfg.Reranker.Provider == "" {
		cfg.Reranker.Provider = "lexical"
	}
	if cfg.Reranker.Model == "" {
		cfg.Reranker.Model = "cross-encoder/mmarco-mMiniLMv2-L12-H384-v1"
	}
	if cfg.Reranker.MaxTokens == 0 {
		cfg.Reranker.MaxTokens = 512
	}
	if cfg.Reranker.Timeout == 0 {
		cfg.Reranker.Timeout = 30 * time.Second
	}

	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "openai"
	}
	gemini := cfg.Generation.Provider == "gemini" || cfg.Generation.Provider == "googleai"
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-4o-mini"
		if gemini {
			cfg.Generation.Model = "gemini-2.5-flash"
		}
	}
	if cfg.Generation.APIKeyEnv == "" && cfg.Generation.Provider != "ollama" {
		cfg.Generation.APIKeyEnv = "OPENAI_API_KEY"
		if gemini {
			cfg.Generation.APIKeyEnv = "GOOGLE_API_KEY"
		}
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.3
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 2048
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 30 * time.Second
	}

	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = 500
	}
	if cfg.Pipeline.ChunkOverlap == 0 {
		cfg.Pipeline.ChunkOverlap = 100
	}
	if cfg.Pipeline.MinPageChars == 0 {
		cfg.Pipeline.MinPageChars = 10
	}
	if cfg.Pipeline.TopRetrieve == 0 {
		cfg.Pipeline.TopRetrieve = 5
	}
	if cfg.Pipeline.TopRerank == 0 {
		cfg.Pipeline.TopRerank = 4
	}
	if cfg.Pipeline.Language == "" {
		cfg.Pipeline.Language = "French"
	}

	if cfg.OCR.Languages == "" {
		cfg.OCR.Languages = "fra+eng"
	}
	if cfg.OCR.MinChars == 0 {
		cfg.OCR.MinChars = 50
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = 300
	}

	if cfg.Market.Source == "" {
		cfg.Market.Source = "yahoo"
	}
	if len(cfg.Market.Tickers) == 0 {
		cfg.Market.Tickers = append([]string(nil), DefaultTickers...)
	}
	if cfg.Market.PeriodMonths == 0 {
		cfg.Market.PeriodMonths = 20
	}
	if cfg.Market.Timeout == 0 {
		cfg.Market.Timeout = 30 * time.Second
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".txt", ".md", ".docx", ".odt", ".rtf", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
