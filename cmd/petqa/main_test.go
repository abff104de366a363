package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/internal/search"
	"github.com/hyperjump/petqa/internal/storage"
	"go.uber.org/zap"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"can dogs eat grapes", "-limit", "5"},
			expected: []string{"-limit", "5", "can dogs eat grapes"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "5", "can dogs eat grapes"},
			expected: []string{"-limit", "5", "can dogs eat grapes"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"can dogs eat grapes"},
			expected: []string{"can dogs eat grapes"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"cats", "purr", "--category", "Cats"},
			expected: []string{"--category", "Cats", "cats", "purr"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"grapes"}, "grapes"},
		{"multiple words", []string{"dogs", "grapes"}, "dogs grapes"},
		{"single quoted phrase", []string{"can dogs eat grapes"}, "can dogs eat grapes"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSearchQuery(tt.args); got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_defaultMissing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg, path, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty for defaults", path)
	}
	if cfg.Snapshot.Backend != config.BackendJSON || len(cfg.Corpus.Categories) != 6 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !filepath.IsAbs(cfg.Corpus.ContentPath) {
		t.Errorf("content path not resolved: %q", cfg.Corpus.ContentPath)
	}
}

func TestLoadConfig_explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	if err := os.WriteFile(path, []byte("snapshot:\n  backend: sqlite\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Snapshot.Path != filepath.Join(dir, "_data", "search-index.db") {
		t.Errorf("snapshot path = %q", cfg.Snapshot.Path)
	}

	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("an explicit missing config should fail")
	}
}

func TestSearchWithFuzzyRetry(t *testing.T) {
	var calls []bool
	fn := func(ctx context.Context, query string, opts models.SearchOptions) (*models.SearchResponseView, error) {
		calls = append(calls, opts.Fuzzy)
		if opts.Fuzzy {
			return &models.SearchResponseView{Query: query, Total: 1, Results: []models.ResultView{{ID: "x", Rank: 1}}}, nil
		}
		return &models.SearchResponseView{Query: query, Results: []models.ResultView{}}, nil
	}

	resp, err := searchWithFuzzyRetry(context.Background(), fn, "grpes", models.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.AutoFuzzy || resp.Total != 1 || !reflect.DeepEqual(calls, []bool{false, true}) {
		t.Errorf("resp = %+v, calls = %v", resp, calls)
	}

	calls = nil
	resp, _ = searchWithFuzzyRetry(context.Background(), fn, "grpes", models.SearchOptions{Fuzzy: true})
	if resp.AutoFuzzy || len(calls) != 1 {
		t.Errorf("explicit fuzzy should not retry: %+v, calls = %v", resp, calls)
	}

	calls = nil
	_, _ = searchWithFuzzyRetry(context.Background(), fn, "a", models.SearchOptions{})
	if len(calls) != 1 {
		t.Errorf("short query should not retry, calls = %v", calls)
	}

	failing := func(context.Context, string, models.SearchOptions) (*models.SearchResponseView, error) {
		return nil, search.ErrUnavailable
	}
	if _, err := searchWithFuzzyRetry(context.Background(), failing, "grapes", models.SearchOptions{}); !errors.Is(err, search.ErrUnavailable) {
		t.Errorf("err = %v", err)
	}
}

func TestHTTPSearch(t *testing.T) {
	var got map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/search" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.SearchResponseView{Query: "grapes", Total: 1, Results: []models.ResultView{{ID: "dogs1-x", Rank: 1}}})
	}))
	defer ts.Close()

	fn := httpSearch(ts.Client(), ts.URL+"/")
	resp, err := fn(context.Background(), "grapes", models.SearchOptions{Limit: 3, Category: "Dogs"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].ID != "dogs1-x" {
		t.Errorf("resp = %+v", resp)
	}
	if got["query"] != "grapes" || got["limit"].(float64) != 3 || got["category"] != "Dogs" || got["includeSnippet"] != true {
		t.Errorf("request body = %v", got)
	}
}

func TestHTTPSearch_unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"search temporarily unavailable"}`, http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	_, err := httpSearch(ts.Client(), ts.URL)(context.Background(), "grapes", models.SearchOptions{})
	if !errors.Is(err, search.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestLoadEngine(t *testing.T) {
	cfg := config.Default(t.TempDir())
	store := storage.NewJSONSnapshotStore(cfg.Snapshot.Path, false)

	if _, err := loadEngine(context.Background(), cfg, store, zap.NewNop()); !errors.Is(err, storage.ErrSnapshotMissing) {
		t.Fatalf("err = %v, want ErrSnapshotMissing", err)
	}

	idx := &models.SearchIndex{
		Entries: []*models.DocumentRecord{{
			ID: "dogs1-can-dogs-eat-grapes", Title: "Can Dogs Eat Grapes", Category: "Dogs",
			Keywords: []string{"grapes"}, SearchText: "can dogs eat grapes grapes", URL: "/dogs1/can-dogs-eat-grapes",
		}},
		BuiltAt: time.UnixMilli(1700000000000),
		BuildID: "b1",
	}
	if err := store.Save(context.Background(), idx.Snapshot()); err != nil {
		t.Fatal(err)
	}
	engine, err := loadEngine(context.Background(), cfg, store, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	resp, err := engineSearch(engine)(context.Background(), "grapes", models.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].URL != "/dogs1/can-dogs-eat-grapes" {
		t.Errorf("resp = %+v", resp)
	}
}
