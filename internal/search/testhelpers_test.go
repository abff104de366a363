package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/extract"
	"github.com/hyperjump/petqa/internal/models"
)

type doc struct {
	section, category, filename, content string
}

func testConfig() config.SearchConfig {
	cfg := config.Default(".")
	return cfg.Search
}

func buildIndex(t testing.TB, docs ...doc) *models.SearchIndex {
	t.Helper()
	idx := &models.SearchIndex{BuildID: "test"}
	for _, d := range docs {
		rec, err := extract.Parse(d.content, d.filename, extract.Category{Section: d.section, Name: d.category})
		require.NoError(t, err)
		idx.Entries = append(idx.Entries, rec)
	}
	return idx
}

func grapesDoc() doc {
	return doc{"dogs1", "Dogs", "can-dogs-eat-grapes.md",
		"---\ntitle: Can Dogs Eat Grapes\n---\nGrapes are toxic to dogs in any amount."}
}

func corpus() []doc {
	return []doc{
		grapesDoc(),
		{"cat", "Cats", "why-do-cats-purr.md", "---\ntitle: Why Do Cats Purr\n---\nPurring is how cats communicate comfort."},
		{"cat", "Cats", "can-cats-eat-grapes.md", "---\ntitle: Can Cats Eat Grapes\n---\nGrapes may harm cats too."},
		{"rabbit", "Rabbits", "how-much-hay-should-a-rabbit-eat.md", "---\ntitle: How Much Hay Should A Rabbit Eat\n---\nHay should make up most of a rabbit diet."},
		{"fish", "Fish", "do-fish-sleep.md", "---\ntitle: Do Fish Sleep\n---\nFish rest without closing their eyes."},
	}
}

func newTestEngine(t testing.TB, docs ...doc) *Engine {
	t.Helper()
	return NewEngine(testConfig(), WithIndex(buildIndex(t, docs...)))
}
