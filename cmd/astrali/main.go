// Package main is the Astrali CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/astrali/internal/cli"
	"github.com/hyperjump/astrali/internal/config"
	"github.com/hyperjump/astrali/internal/embedding"
	"github.com/hyperjump/astrali/internal/extract"
	"github.com/hyperjump/astrali/internal/fileid"
	"github.com/hyperjump/astrali/internal/llm"
	"github.com/hyperjump/astrali/internal/market"
	"github.com/hyperjump/astrali/internal/models"
	"github.com/hyperjump/astrali/internal/pipeline"
	"github.com/hyperjump/astrali/internal/prompt"
	"github.com/hyperjump/astrali/internal/rerank"
	"github.com/hyperjump/astrali/internal/server"
	"github.com/hyperjump/astrali/internal/session"
	"github.com/hyperjump/astrali/internal/storage"
	"github.com/hyperjump/astrali/internal/watcher"
	"github.com/hyperjump/astrali/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/astrali/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, so running from a project dir uses its config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys usually live in .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "market":
		runMarket()
	case "sessions":
		runSessions()
	case "status":
		runStatus()
	case "inbox":
		runInbox()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("astrali version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds the logger and components. It exits on failure.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (inbox events, ingestion, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_provider", cfg.Generation.Provider),
	)

	// Warm the embedding model in the background so the first upload does not pay for it.
	go func() {
		if err := components.Embedding.Load(context.Background()); err != nil {
			logger.Warn("embedding model warm-up failed", zap.Error(err))
		}
	}()

	inbox := watcher.NewWatcher(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		inboxIngest(components.Sessions, logger),
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := inbox.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start inbox watcher", zap.Error(err))
	}
	inbox.SyncExistingFiles()

	srv := server.NewServer(
		components.Sessions,
		components.Storage,
		cfg,
		logger,
		server.WithInbox(inbox, resolvedConfigPath),
		server.WithEmbeddingStatus(components.Embedding),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	inbox.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// inboxIngest returns the watcher callback that turns a dropped file into a document
// session. A file whose content already backs a live session is skipped.
func inboxIngest(sessions *session.Manager, logger *zap.Logger) watcher.IngestFunc {
	return func(ctx context.Context, path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("inbox read failed", zap.String("path", path), zap.Error(err))
			return
		}
		if existing, ok := sessions.FindBySource(fileid.ContentID(data)); ok {
			logger.Debug("inbox file already ingested",
				zap.String("path", path),
				zap.String("session_id", existing.ID))
			return
		}
		sess, err := sessions.CreateDocument(ctx, filepath.Base(path), data)
		if err != nil {
			logger.Warn("inbox ingest failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("inbox document ready",
			zap.String("path", path),
			zap.String("session_id", sess.ID),
			zap.Int("chunks", sess.Record().Chunks))
	}
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: astrali ask [flags] <file> <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  astrali ask report.pdf what was the revenue in 2023
  astrali ask --top-rerank 6 report.pdf "who signed the contract?"
  astrali ask --output json report.pdf summary of risks
`)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them. The flag package stops at
// the first non-flag argument, so "astrali ask doc.pdf question -output json"
// would otherwise leave -output unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitTickers parses a comma-separated ticker list.
func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	topRetrieve := fs.Int("top-retrieve", 0, "chunks retrieved by vector search (default from config)")
	topRerank := fs.Int("top-rerank", 0, "chunks kept after reranking, 3-10 (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 2 {
		printAskUsage(fs)
		os.Exit(1)
	}
	path := fs.Arg(0)
	question := buildQuestion(fs.Args()[1:])
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	if !extract.Supported(filepath.Ext(path)) {
		fmt.Fprintf(os.Stderr, "Unsupported file type: %s\n", filepath.Ext(path))
		os.Exit(1)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	cfg, _, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	sess, err := components.Sessions.CreateDocument(ctx, filepath.Base(path), data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	opts := pipeline.AnswerOptions{TopRetrieve: cfg.Pipeline.TopRetrieve, TopRerank: cfg.Pipeline.TopRerank}
	if *topRetrieve > 0 {
		opts.TopRetrieve = *topRetrieve
	}
	if *topRerank > 0 {
		opts.TopRerank = *topRerank
	}
	ans, err := components.Sessions.AnswerDocument(ctx, sess.ID, question, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, ans, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runMarket() {
	fs := flag.NewFlagSet("market", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	tickers := fs.String("tickers", "", "comma-separated tickers to load (default from config)")
	filter := fs.String("filter", "", "comma-separated tickers to restrict the answer to")
	months := fs.Int("months", 0, "months of history to load (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := buildQuestion(fs.Args())
	if question == "" {
		fmt.Println("Usage: astrali market [--tickers AAPL,MSFT] [--months 6] [--filter AAPL] <question>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	cfg, _, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	load := cfg.Market.Tickers
	if *tickers != "" {
		load = splitTickers(*tickers)
	}
	period := cfg.Market.PeriodMonths
	if *months > 0 {
		period = *months
	}

	ctx := context.Background()
	sess, err := components.Sessions.CreateMarket(ctx, load, period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Market data load failed: %v\n", err)
		os.Exit(1)
	}
	ans, err := components.Sessions.AnswerMarket(ctx, sess.ID, question, pipeline.MarketAnswerOptions{
		Tickers:     splitTickers(*filter),
		TopRetrieve: cfg.Pipeline.TopRetrieve,
		TopRerank:   cfg.Pipeline.TopRerank,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, ans, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSessions() {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the session database directly)")
	stored := fs.Bool("stored", false, "list stored sessions instead of live ones (server mode)")
	limit := fs.Int("limit", 50, "maximum sessions to list from the database")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	var list []*models.Session
	if *serverURL != "" {
		res, err := sessionsViaHTTP(*serverURL, *stored, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List sessions failed: %v\n", err)
			os.Exit(1)
		}
		list = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open session database: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		list, err = store.ListSessions(context.Background(), 0, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List sessions failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSessions(os.Stdout, list, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func sessionsViaHTTP(serverURL string, stored bool, limit int) ([]*models.Session, error) {
	q := url.Values{}
	if stored {
		q.Set("stored", "true")
		q.Set("limit", fmt.Sprint(limit))
	}
	u := serverURL + "/api/v1/sessions"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var out struct {
		Sessions []*models.Session `json:"sessions"`
	}
	if err := getJSON(u, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func getJSON(u string, v interface{}) error {
	resp, err := http.Get(u)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusResponse is the subset of GET /api/v1/status the CLI prints.
type statusResponse struct {
	LiveSessions      int      `json:"live_sessions"`
	StoredSessions    int64    `json:"stored_sessions"`
	QuestionsAnswered int64    `json:"questions_answered"`
	UptimeSeconds     int64    `json:"uptime_seconds"`
	DiskUsageBytes    *int64   `json:"disk_usage_bytes,omitempty"`
	InboxDirectories  []string `json:"inbox_directories,omitempty"`
	Embedding         *struct {
		Model  string `json:"model"`
		Loaded bool   `json:"loaded"`
	} `json:"embedding,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	switch parseFormat(*outputFormat) {
	case cli.OutputJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
	default:
		fmt.Printf("live_sessions:       %d\n", status.LiveSessions)
		fmt.Printf("stored_sessions:     %d\n", status.StoredSessions)
		fmt.Printf("questions_answered:  %d\n", status.QuestionsAnswered)
		fmt.Printf("uptime_seconds:      %d\n", status.UptimeSeconds)
		if status.Embedding != nil {
			fmt.Printf("embedding_model:     %s (loaded: %t)\n", status.Embedding.Model, status.Embedding.Loaded)
		}
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:    %d\n", *status.DiskUsageBytes)
		}
		for _, d := range status.InboxDirectories {
			fmt.Printf("inbox:               %s\n", d)
		}
	}
}

func runInbox() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: astrali inbox <add|remove|list> [path]")
		fmt.Println("  astrali inbox add <path>     Watch a directory for new documents")
		fmt.Println("  astrali inbox remove <path>  Stop watching a directory")
		fmt.Println("  astrali inbox list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("inbox", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[3:])
	endpoint := *serverURL + "/api/v1/inbox/directories"

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: astrali inbox add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: astrali inbox remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(endpoint, &out); err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown inbox subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "where to write the starter config")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeStarterConfig(*configPath, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

// writeStarterConfig saves a config holding every default to path.
func writeStarterConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	return config.Save(path, &cfg)
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Embedding *embedding.Service
	Reranker  *rerank.Service
	Sessions  *session.Manager
	Services  *pipeline.Services
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedding != nil {
		_ = c.Embedding.Close()
	}
	if c.Reranker != nil {
		_ = c.Reranker.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	c := &Components{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	c.Embedding, err = embedding.NewServiceFromConfig(cfg.Embedding, cfg.Storage.EmbeddingCachePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding: %w", err)
	}
	c.Reranker, err = rerank.NewServiceFromConfig(cfg.Reranker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reranker: %w", err)
	}
	generator, err := llm.NewFromConfig(cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	fetcher, err := market.NewFetcherFromConfig(cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market source: %w", err)
	}
	docTemplate, err := prompt.Load(cfg.Pipeline.DocumentTemplatePath, prompt.DocumentTemplate, cfg.Pipeline.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load document prompt: %w", err)
	}
	marketTemplate, err := prompt.Load(cfg.Pipeline.MarketTemplatePath, prompt.MarketTemplate, cfg.Pipeline.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load market prompt: %w", err)
	}

	extractOpts := []extract.ExtractorOption{}
	if debug {
		extractOpts = append(extractOpts, extract.WithLogger(logger))
	}
	if cfg.OCR.Enabled {
		ocr, err := extract.NewTesseract(extract.TesseractConfig{
			Languages: cfg.OCR.Languages,
			DPI:       cfg.OCR.DPI,
		}, logger)
		if err != nil {
			logger.Warn("OCR unavailable, scanned pages will stay empty", zap.Error(err))
		} else {
			extractOpts = append(extractOpts, extract.WithOCR(ocr, cfg.OCR.MinChars, cfg.OCR.Force))
		}
	}
	c.Services = &pipeline.Services{
		Embedder:         c.Embedding,
		Reranker:         c.Reranker,
		Generator:        generator,
		Extractor:        extract.NewExtractor(extractOpts...),
		Fetcher:          fetcher,
		DocumentTemplate: docTemplate,
		MarketTemplate:   marketTemplate,
	}
	c.Sessions = session.NewManager(c.Services, pipeline.SettingsFromConfig(cfg),
		session.WithStorage(store),
		session.WithMaxSessions(cfg.Server.MaxSessions),
		session.WithLogger(logger),
	)
	ok = true
	return c, nil
}

func printUsage() {
	fmt.Println(`astrali - Question answering over documents and market data

Usage:
  astrali server [flags]                  Start the HTTP server and inbox watcher
  astrali ask [flags] <file> <question>   Ingest a document and answer one question
  astrali market [flags] <question>       Load market data and answer one question
  astrali sessions [flags]                List sessions
  astrali status [flags]                  Show server status
  astrali inbox <add|remove|list>         Manage inbox directories
  astrali init [flags]                    Write a starter config
  astrali version                         Show version
  astrali help                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/astrali/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --top-retrieve int  Chunks retrieved by vector search
  --top-rerank int    Chunks kept after reranking (3-10)
  --output string     Output format: text or json (default: text)

Market Flags:
  --tickers string   Comma-separated tickers to load (default from config)
  --months int       Months of history (default from config)
  --filter string    Restrict the answer to these tickers
  --output string    Output format: text or json (default: text)

Sessions Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to read the database directly.
  --stored           List stored sessions instead of live ones
  --output string    Output format: text or json

Examples:
  astrali init
  astrali server
  astrali ask annual-report.pdf what was the net income
  astrali market --tickers AAPL,MSFT --months 6 how did apple trade in march
  astrali sessions --output json
  astrali inbox add ~/Documents/inbox`)
}
