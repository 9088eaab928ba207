// Package config provides configuration loading and structs for the Astrali server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Reranker   RerankerConfig   `yaml:"reranker"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	OCR        OCRConfig        `yaml:"ocr"`
	Market     MarketConfig     `yaml:"market"`
	Watch      WatchConfig      `yaml:"watch"`
}

// WatchConfig holds inbox watch settings. Files dropped into these directories are ingested
// as new document sessions.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	MaxUploadMB    int           `yaml:"max_upload_mb"`
	MaxSessions    int           `yaml:"max_sessions"`
	// RequestTimeout bounds one request, ingestion included.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds paths for the session database and the persistent embedding cache.
type StorageConfig struct {
	DatabasePath       string `yaml:"database_path"`
	EmbeddingCachePath string `yaml:"embedding_cache_path"`
	TempDir            string `yaml:"temp_dir"`
}

// EmbeddingConfig selects and configures the sentence embedding provider.
type EmbeddingConfig struct {
	// Provider is one of onnx, tei, ollama, mock.
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	ModelPath     string        `yaml:"model_path"`
	TokenizerPath string        `yaml:"tokenizer_path"`
	OutputName    string        `yaml:"output_name"`
	Dimensions    int           `yaml:"dimensions"`
	MaxTokens     int           `yaml:"max_tokens"`
	CacheSize     int           `yaml:"cache_size"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// OCRConfig controls the Tesseract fallback for scanned PDF pages. It only
// takes effect in binaries built with the ocr tag.
type OCRConfig struct {
	Enabled   bool   `yaml:"enabled"`
	// Force re-reads every page, not only sparse ones.
	Force     bool   `yaml:"force"`
	Languages string `yaml:"languages"`
	MinChars  int    `yaml:"min_chars"`
	DPI       int    `yaml:"dpi"`
}

// RerankerConfig selects and configures the cross-encoder reranker.
type RerankerConfig struct {
	// Provider is one of onnx, tei, lexical.
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	ModelPath     string        `yaml:"model_path"`
	TokenizerPath string        `yaml:"tokenizer_path"`
	MaxTokens     int           `yaml:"max_tokens"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// GenerationConfig configures the answer-generation service.
type GenerationConfig struct {
	// Provider is one of openai, ollama, openai-compatible, gemini (alias googleai).
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// APIKey returns the value of the environment variable named by APIKeyEnv.
func (g *GenerationConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}

// PipelineConfig holds chunking, retrieval and prompt settings shared by both pipelines.
type PipelineConfig struct {
	ChunkSize            int    `yaml:"chunk_size"`
	ChunkOverlap         int    `yaml:"chunk_overlap"`
	MinPageChars         int    `yaml:"min_page_chars"`
	TopRetrieve          int    `yaml:"top_retrieve"`
	TopRerank            int    `yaml:"top_rerank"`
	Language             string `yaml:"language"`
	DocumentTemplatePath string `yaml:"document_template_path"`
	MarketTemplatePath   string `yaml:"market_template_path"`
}

// MarketConfig configures the market-data source.
type MarketConfig struct {
	// Source is one of yahoo, csv.
	Source       string        `yaml:"source"`
	Tickers      []string      `yaml:"tickers"`
	PeriodMonths int           `yaml:"period_months"`
	CSVDir       string        `yaml:"csv_dir"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.EmbeddingCachePath = expandOptional(cfg.Storage.EmbeddingCachePath, configDir)
	cfg.Storage.TempDir = expandOptional(cfg.Storage.TempDir, configDir)
	cfg.Embedding.ModelPath = expandOptional(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.TokenizerPath = expandOptional(cfg.Embedding.TokenizerPath, configDir)
	cfg.Reranker.ModelPath = expandOptional(cfg.Reranker.ModelPath, configDir)
	cfg.Reranker.TokenizerPath = expandOptional(cfg.Reranker.TokenizerPath, configDir)
	cfg.Pipeline.DocumentTemplatePath = expandOptional(cfg.Pipeline.DocumentTemplatePath, configDir)
	cfg.Pipeline.MarketTemplatePath = expandOptional(cfg.Pipeline.MarketTemplatePath, configDir)
	cfg.Market.CSVDir = expandOptional(cfg.Market.CSVDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used by `astrali init` to write a starter config.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

// expandOptional is expandPath for settings where empty means "not configured".
func expandOptional(path string, configDir string) string {
	if path == "" {
		return ""
	}
	return expandPath(path, configDir)
}
