// Package main is the petqa CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

	"github.com/hyperjump/petqa/internal/cli"
	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/indexer"
	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/internal/search"
	"github.com/hyperjump/petqa/internal/server"
	"github.com/hyperjump/petqa/internal/storage"
	"github.com/hyperjump/petqa/internal/watcher"
	"github.com/hyperjump/petqa/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "petqa.yaml"

// loadConfig loads config from path. When path is the default and no such file exists,
// the defaults are used with paths relative to the current directory.
// Returns the config and the path that was actually loaded (empty for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, "", err
			}
			return config.Default(cwd), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	abs, _ := filepath.Abs(path)
	return cfg, abs, nil
}

func main() {
	if len(os.Args) < 2 {
		runBuild(nil)
		return
	}
	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "build":
		runBuild(args)
	case "search":
		runSearch(args)
	case "suggest":
		runSuggest(args)
	case "popular":
		runPopular(args)
	case "serve", "server":
		runServe(args)
	case "status":
		runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("petqa version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and creates the logger shared by every subcommand.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	if resolved == "" {
		logger.Debug("no config file, using defaults", zap.String("content_path", cfg.Corpus.ContentPath))
	} else {
		logger.Debug("config loaded", zap.String("config_path", resolved))
	}
	return cfg, logger
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	store, err := storage.Open(cfg.Snapshot)
	if err != nil {
		fatalf("Failed to open snapshot store: %v", err)
	}
	defer store.Close()

	fmt.Printf("Building search index from %s\n", cfg.Corpus.ContentPath)
	builder := indexer.NewBuilder(cfg.Corpus, store,
		indexer.WithLogger(logger),
		indexer.WithProgress(func(section string, records int) {
			fmt.Printf("  %-12s %d questions\n", section, records)
		}))
	_, report, err := builder.Build(context.Background())
	if err != nil {
		fatalf("Build failed: %v", err)
	}
	for _, dir := range report.Missing {
		fmt.Printf("  %-12s missing, skipped\n", dir)
	}
	fmt.Printf("Indexed %d questions (%d skipped) in %s\n", report.Entries, report.Skipped, report.Duration.Round(time.Millisecond))
	fmt.Printf("Snapshot written to %s (build %s)\n", report.Location, report.BuildID)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: petqa search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
When nothing matches, the search is retried once with --fuzzy.

Examples:
  petqa search can dogs eat grapes
  petqa search --category cats --limit 5 tuna
  petqa search --output json "why do cats purr"
  petqa search --server http://localhost:8080 grapes
  petqa search --snapshot-url https://example.com/_data/search-index.json grapes
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "petqa search grapes -limit 3"
// would otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
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

// searchFunc runs one search and returns its wire form.
type searchFunc func(ctx context.Context, query string, opts models.SearchOptions) (*models.SearchResponseView, error)

// searchWithFuzzyRetry retries an empty non-fuzzy search with fuzzy matching on and
// marks the response when the retry found something.
func searchWithFuzzyRetry(ctx context.Context, fn searchFunc, query string, opts models.SearchOptions) (*models.SearchResponseView, error) {
	resp, err := fn(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	if opts.Fuzzy || resp.Total > 0 || resp.IsLoading || models.TooShort(query) {
		return resp, nil
	}
	opts.Fuzzy = true
	fuzzy, err := fn(ctx, query, opts)
	if err == nil && fuzzy.Total > 0 {
		fuzzy.AutoFuzzy = true
		return fuzzy, nil
	}
	return resp, nil
}

func engineSearch(engine *search.Engine) searchFunc {
	return func(ctx context.Context, query string, opts models.SearchOptions) (*models.SearchResponseView, error) {
		resp, err := engine.Search(ctx, query, opts)
		if err != nil {
			return nil, err
		}
		return resp.View(), nil
	}
}

func httpSearch(client *http.Client, serverURL string) searchFunc {
	return func(ctx context.Context, query string, opts models.SearchOptions) (*models.SearchResponseView, error) {
		body, err := json.Marshal(map[string]interface{}{
			"query":          query,
			"limit":          opts.Limit,
			"category":       opts.Category,
			"includeSnippet": opts.WantSnippet(),
			"fuzzy":          opts.Fuzzy,
		})
		if err != nil {
			return nil, err
		}
		var out models.SearchResponseView
		if err := doJSON(ctx, client, http.MethodPost, strings.TrimRight(serverURL, "/")+"/api/v1/search", body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
}

// doJSON performs a request against a petqa server and decodes a 200 response into out.
func doJSON(ctx context.Context, client *http.Client, method, target string, body []byte, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusServiceUnavailable {
		return search.ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// openStore returns the configured snapshot store, or a read-only HTTP store when
// snapshotURL is set.
func openStore(cfg *config.Config, snapshotURL string) (storage.SnapshotStore, error) {
	if snapshotURL != "" {
		return storage.NewHTTPSnapshotStore(snapshotURL, nil), nil
	}
	return storage.Open(cfg.Snapshot)
}

// loadEngine creates an engine and waits for the snapshot in store to load.
func loadEngine(ctx context.Context, cfg *config.Config, store storage.SnapshotStore, logger *zap.Logger) (*search.Engine, error) {
	engine := search.NewEngine(cfg.Search, search.WithLogger(logger))
	err := <-engine.Load(ctx, func(ctx context.Context) (*models.SearchIndex, error) {
		return storage.LoadIndex(ctx, store)
	})
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// localEngine opens the snapshot named by the flags and loads it, exiting on failure.
func localEngine(ctx context.Context, cfg *config.Config, snapshotURL string, logger *zap.Logger) *search.Engine {
	store, err := openStore(cfg, snapshotURL)
	if err != nil {
		fatalf("Failed to open snapshot store: %v", err)
	}
	defer store.Close()
	engine, err := loadEngine(ctx, cfg, store, logger)
	if errors.Is(err, storage.ErrSnapshotMissing) {
		fatalf("No search index at %s; run \"petqa build\" first", store.Location())
	}
	if err != nil {
		logger.Debug("snapshot load failed", zap.Error(err))
		fatalf("%v", search.ErrUnavailable)
	}
	return engine
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "petqa server URL (empty = load the snapshot directly)")
	snapshotURL := fs.String("snapshot-url", "", "load the snapshot from this URL instead of the configured store")
	limit := fs.Int("limit", 0, "number of results (0 = configured default)")
	category := fs.String("category", "", "restrict results to one category, e.g. Dogs")
	snippet := fs.Bool("snippet", true, "include highlighted snippets")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	outputFormat := fs.String("output", "text", "output format: text, compact (one result per line), or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(args))

	query := buildSearchQuery(fs.Args())
	if query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	opts := models.SearchOptions{
		Limit:          *limit,
		Category:       *category,
		IncludeSnippet: snippet,
		Fuzzy:          *fuzzy,
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	ctx := context.Background()

	var fn searchFunc
	if *serverURL != "" {
		fn = httpSearch(&http.Client{Timeout: 30 * time.Second}, *serverURL)
	} else {
		fn = engineSearch(localEngine(ctx, cfg, *snapshotURL, logger))
	}
	resp, err := searchWithFuzzyRetry(ctx, fn, query, opts)
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runSuggest(args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "petqa server URL (empty = load the snapshot directly)")
	snapshotURL := fs.String("snapshot-url", "", "load the snapshot from this URL instead of the configured store")
	limit := fs.Int("limit", 0, "number of suggestions (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(searchArgsReorder(args))

	prefix := buildSearchQuery(fs.Args())
	if prefix == "" {
		fmt.Println("Usage: petqa suggest [flags] <prefix>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	ctx := context.Background()

	var titles []string
	if *serverURL != "" {
		q := url.Values{"q": {prefix}, "limit": {fmt.Sprint(*limit)}}
		var out struct {
			Suggestions []string `json:"suggestions"`
		}
		err = doJSON(ctx, http.DefaultClient, http.MethodGet, strings.TrimRight(*serverURL, "/")+"/api/v1/suggest?"+q.Encode(), nil, &out)
		titles = out.Suggestions
	} else {
		titles, err = localEngine(ctx, cfg, *snapshotURL, logger).Suggest(prefix, *limit)
	}
	if err != nil {
		fatalf("Suggest failed: %v", err)
	}
	if err := cli.WriteTitles(os.Stdout, titles, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runPopular(args []string) {
	fs := flag.NewFlagSet("popular", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "petqa server URL (empty = load the snapshot directly)")
	snapshotURL := fs.String("snapshot-url", "", "load the snapshot from this URL instead of the configured store")
	category := fs.String("category", "", "only questions whose category contains this text")
	limit := fs.Int("limit", 0, "number of questions (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	ctx := context.Background()

	var titles []string
	if *serverURL != "" {
		q := url.Values{"category": {*category}, "limit": {fmt.Sprint(*limit)}}
		var out struct {
			Questions []string `json:"questions"`
		}
		err = doJSON(ctx, http.DefaultClient, http.MethodGet, strings.TrimRight(*serverURL, "/")+"/api/v1/popular?"+q.Encode(), nil, &out)
		titles = out.Questions
	} else {
		titles, err = localEngine(ctx, cfg, *snapshotURL, logger).Popular(*category, *limit)
	}
	if err != nil {
		fatalf("Popular failed: %v", err)
	}
	if err := cli.WriteTitles(os.Stdout, titles, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, rebuilds, watched changes)")
	_ = fs.Parse(args)

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	store, err := storage.Open(cfg.Snapshot)
	if err != nil {
		logger.Fatal("Failed to open snapshot store", zap.Error(err))
	}
	defer store.Close()

	// A remote snapshot cannot be written; rebuilds then only refresh memory.
	var persist storage.SnapshotStore = store
	if cfg.Snapshot.Backend == config.BackendHTTP {
		persist = nil
	}
	engine := search.NewEngine(cfg.Search, search.WithLogger(logger))
	builder := indexer.NewBuilder(cfg.Corpus, persist, indexer.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv *server.Server
	srvOpts := []server.Option{server.WithBuilder(builder)}
	var watchSvc *watcher.Watcher
	if cfg.Watch.Enabled {
		categories := make([]string, 0, len(cfg.Corpus.Categories))
		for _, c := range cfg.Corpus.Categories {
			categories = append(categories, c.Dir)
		}
		watchSvc = watcher.NewWatcher(cfg.Corpus.ContentPath, categories, cfg.Corpus.Extensions,
			func(paths []string) {
				logger.Info("corpus changed, rebuilding", zap.Int("files", len(paths)))
				if _, err := srv.Rebuild(ctx); err != nil {
					logger.Warn("rebuild after change failed", zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce()))
		srvOpts = append(srvOpts, server.WithWatch(watchSvc))
	}
	srv = server.NewServer(engine, store, cfg, logger, srvOpts...)

	loadErr := engine.Load(ctx, func(ctx context.Context) (*models.SearchIndex, error) {
		return storage.LoadIndex(ctx, store)
	})
	go func() {
		err := <-loadErr
		if err == nil {
			return
		}
		if !cfg.Search.RebuildOnLoadFailure {
			logger.Error("snapshot load failed; search unavailable until reindex", zap.Error(err))
			return
		}
		logger.Warn("snapshot load failed, rebuilding from corpus", zap.Error(err))
		if _, err := srv.Rebuild(ctx); err != nil {
			logger.Error("rebuild failed", zap.Error(err))
		}
	}()

	if watchSvc != nil {
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	store, err := storage.Open(cfg.Snapshot)
	if err != nil {
		fatalf("Failed to open snapshot store: %v", err)
	}
	defer store.Close()

	idx, err := storage.LoadIndex(context.Background(), store)
	if err != nil && !errors.Is(err, storage.ErrSnapshotMissing) {
		fatalf("Failed to load snapshot: %v", err)
	}
	st := cli.NewStatus(cfg.Snapshot.Backend, store.Location(), idx)
	st.ContentPath = cfg.Corpus.ContentPath
	if n, err := storage.SnapshotBytes(store); err == nil && idx != nil {
		st.DiskUsageBytes = &n
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func printUsage() {
	fmt.Println(`petqa - search index builder and query engine for the pet Q&A site

Usage:
  petqa                            Build the search index (same as "petqa build")
  petqa build [flags]              Scan the corpus and write the snapshot
  petqa search [flags] <query>     Search questions
  petqa suggest [flags] <prefix>   Suggest question titles for a partial query
  petqa popular [flags]            List popular question titles
  petqa serve [flags]              Start the HTTP API
  petqa status [flags]             Show snapshot status
  petqa version                    Show version
  petqa help                       Show this help

Common Flags:
  --config string    Config file path (default: petqa.yaml; defaults are used when it does not exist)

Search Flags:
  --limit int             Number of results (default from config, 10)
  --category string       Restrict to one category (Dogs, Cats, Rabbits, Fish)
  --snippet               Include highlighted snippets (default: true)
  --fuzzy                 Enable fuzzy matching (retried automatically when nothing matches)
  --output string         text, compact, or json (default: text)
  --server string         Query a running petqa server instead of the local snapshot
  --snapshot-url string   Load the snapshot over HTTP, e.g. a deployed /_data/search-index.json

Popular Flags:
  --category string  Only categories containing this text

Serve Flags:
  --debug            Enable debug logging

Examples:
  petqa
  petqa search can dogs eat grapes
  petqa search --output json --category cats tuna
  petqa suggest can dogs
  petqa popular --category dogs
  petqa serve --config site/petqa.yaml
  petqa status --output json`)
}
