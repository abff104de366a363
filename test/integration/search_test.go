// Package integration provides end-to-end tests over a corpus on disk.
package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/indexer"
	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/internal/search"
	"github.com/hyperjump/petqa/internal/server"
	"github.com/hyperjump/petqa/internal/storage"
	"go.uber.org/zap"
)

var corpus = map[string]string{
	"dogs1/can-dogs-eat-grapes.md":     "---\ntitle: \"Can Dogs Eat Grapes\"\n---\nGrapes and raisins are toxic to dogs. Even a few grapes can cause kidney failure.\n",
	"dogs2/how-to-trim-dog-nails.md":   "---\ntitle: How To Trim Dog Nails\n---\nUse sharp clippers and trim a little at a time.\n",
	"cat/why-do-cats-purr.md":          "Cats purr when content and sometimes when stressed.\n",
	"cat/broken.md":                    "---\ntitle: Broken\nno closing delimiter\n",
	"rabbit/can-rabbits-eat-grapes.md": "---\ntitle: Can Rabbits Eat Grapes\n---\nOnly as a rare treat.\n",
}

func writeCorpus(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default(root)
	for rel, content := range corpus {
		path := filepath.Join(cfg.Corpus.ContentPath, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func buildAndLoad(t *testing.T, cfg *config.Config, store storage.SnapshotStore) *search.Engine {
	t.Helper()
	ctx := context.Background()
	_, report, err := indexer.NewBuilder(cfg.Corpus, store).Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Entries != 4 || report.Skipped != 1 {
		t.Fatalf("report: entries=%d skipped=%d", report.Entries, report.Skipped)
	}

	engine := search.NewEngine(cfg.Search, search.WithLogger(zap.NewNop()))
	if err := <-engine.Load(ctx, func(ctx context.Context) (*models.SearchIndex, error) {
		return storage.LoadIndex(ctx, store)
	}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return engine
}

func checkSearch(t *testing.T, engine *search.Engine) {
	t.Helper()
	ctx := context.Background()
	resp, err := engine.Search(ctx, "dogs eat grapes", models.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) < 2 {
		t.Fatalf("want at least 2 results, got %d", len(resp.Results))
	}
	top := resp.Results[0]
	if top.Record.ID != "dogs1-can-dogs-eat-grapes" || top.Record.URL != "/dogs1/can-dogs-eat-grapes" || top.Record.Category != "Dogs" {
		t.Errorf("top result = %+v", top.Record)
	}
	if top.Score < 1000 {
		t.Errorf("exact title phrase should score at least 1000, got %d", top.Score)
	}

	resp, err = engine.Search(ctx, "purr", models.SearchOptions{Category: "cats"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Record.Title != "Why do cats purr" {
		t.Errorf("purr results = %+v", resp.View())
	}

	popular, err := engine.Popular("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(popular) != 3 || popular[0] != "Can Rabbits Eat Grapes" {
		t.Errorf("popular = %v", popular)
	}
}

func TestIntegration_JSONSnapshot(t *testing.T) {
	cfg := writeCorpus(t)
	store := storage.NewJSONSnapshotStore(cfg.Snapshot.Path, true)
	checkSearch(t, buildAndLoad(t, cfg, store))
}

func TestIntegration_SQLiteSnapshot(t *testing.T) {
	cfg := writeCorpus(t)
	cfg.Snapshot = config.SnapshotConfig{Backend: config.BackendSQLite, Path: filepath.Join(t.TempDir(), "index.db")}
	store, err := storage.Open(cfg.Snapshot)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	checkSearch(t, buildAndLoad(t, cfg, store))
}

func TestIntegration_HTTPSnapshot(t *testing.T) {
	cfg := writeCorpus(t)
	store := storage.NewJSONSnapshotStore(cfg.Snapshot.Path, false)
	engine := buildAndLoad(t, cfg, store)

	ts := httptest.NewServer(server.NewServer(engine, store, cfg, zap.NewNop()).Routes())
	defer ts.Close()

	remote := storage.NewHTTPSnapshotStore(ts.URL+"/_data/search-index.json", ts.Client())
	defer remote.Close()
	client := search.NewEngine(cfg.Search)
	if err := <-client.Load(context.Background(), func(ctx context.Context) (*models.SearchIndex, error) {
		return storage.LoadIndex(ctx, remote)
	}); err != nil {
		t.Fatalf("Load over HTTP: %v", err)
	}
	if client.Index().BuildID != engine.Index().BuildID {
		t.Errorf("build id = %q, want %q", client.Index().BuildID, engine.Index().BuildID)
	}
	checkSearch(t, client)
}
