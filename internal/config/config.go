// Package config provides configuration loading and structs for petqa.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Search   SearchConfig   `yaml:"search"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the API token bucket. Zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CategoryConfig maps one corpus directory to its display category.
type CategoryConfig struct {
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// CorpusConfig locates the markdown corpus.
type CorpusConfig struct {
	ContentPath string           `yaml:"content_path"`
	Extensions  []string         `yaml:"extensions"`
	Categories  []CategoryConfig `yaml:"categories"`
}

// CategoryName returns the display name for a corpus directory, or the directory itself when unmapped.
func (c *CorpusConfig) CategoryName(dir string) string {
	for _, cat := range c.Categories {
		if cat.Dir == dir && cat.Name != "" {
			return cat.Name
		}
	}
	return dir
}

// Snapshot backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// SnapshotConfig selects where the search index snapshot lives.
type SnapshotConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	// URL is used by the http backend (read-only, e.g. a deployed /_data/search-index.json).
	URL    string `yaml:"url"`
	Pretty *bool  `yaml:"pretty"`
}

// PrettyOrDefault returns whether the JSON snapshot is indented; defaults to true when unset.
func (s *SnapshotConfig) PrettyOrDefault() bool {
	if s.Pretty != nil {
		return *s.Pretty
	}
	return true
}

// SearchConfig holds query engine settings.
type SearchConfig struct {
	DefaultLimit    int   `yaml:"default_limit"`
	MaxLimit        int   `yaml:"max_limit"`
	CacheSize       int   `yaml:"cache_size"`
	SuggestionLimit int   `yaml:"suggestion_limit"`
	PopularLimit    int   `yaml:"popular_limit"`
	DidYouMean      *bool `yaml:"did_you_mean"`
	// RebuildOnLoadFailure makes the server rebuild from the corpus when the snapshot cannot be loaded.
	RebuildOnLoadFailure bool `yaml:"rebuild_on_load_failure"`
}

// DidYouMeanOrDefault returns whether corrected queries are offered; defaults to true when unset.
func (s *SearchConfig) DidYouMeanOrDefault() bool {
	if s.DidYouMean != nil {
		return *s.DidYouMean
	}
	return true
}

// WatchConfig holds corpus watch settings used while serving.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Debounce returns the debounce interval as a duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
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
	ResolvePaths(&cfg, filepath.Dir(path))
	return &cfg, nil
}

// Default returns a config with every default applied and paths resolved against baseDir.
func Default(baseDir string) *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	ResolvePaths(cfg, baseDir)
	return cfg
}

// ResolvePaths makes relative corpus and snapshot paths absolute against baseDir.
func ResolvePaths(cfg *Config, baseDir string) {
	cfg.Corpus.ContentPath = expandPath(cfg.Corpus.ContentPath, baseDir)
	cfg.Snapshot.Path = expandPath(cfg.Snapshot.Path, baseDir)
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Relative paths are relative to baseDir,
// which is the directory of the config file (the site root in a typical layout).
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(filepath.Join(baseDir, path)); err == nil {
		return abs
	}
	return filepath.Join(baseDir, path)
}
