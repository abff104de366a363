package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/petqa/internal/extract"
	"github.com/hyperjump/petqa/internal/models"
)

func record(title, filename string, keywords []string, excerpt string) *models.DocumentRecord {
	return &models.DocumentRecord{
		Title:      title,
		Filename:   filename,
		Keywords:   keywords,
		Excerpt:    excerpt,
		SearchText: extract.BuildSearchText(title, keywords, excerpt),
	}
}

func TestScore_grapesScenario(t *testing.T) {
	idx := buildIndex(t, grapesDoc())
	rec := idx.Entries[0]
	q := models.NormalizeQuery("dogs eat grapes")

	got := Score(rec, q, models.QueryWords(q), false)
	assert.GreaterOrEqual(t, got, exactPhraseBonus)
	// 1000 phrase; dogs 500+2*10; eat 490+200+2*10; grapes 480+200+3*10; 50 filename marker.
	assert.Equal(t, 2990, got)

	assert.Zero(t, Score(rec, "cats", []string{"cats"}, false))
}

func TestScore_exactPhraseMonotonic(t *testing.T) {
	with := record("rabbit hay guide", "a.md", nil, "")
	without := record("hay rabbit guide", "a.md", nil, "")
	q := "rabbit hay"
	words := models.QueryWords(q)
	assert.Equal(t, Score(without, q, words, false)+exactPhraseBonus, Score(with, q, words, false))
}

func TestScore_wordPositionBonus(t *testing.T) {
	rec := record("zzz", "a.md", nil, "")
	words := make([]string, 60)
	for i := range words {
		words[i] = "zzz"
	}
	// Title bonus bottoms out at zero after the 50th word: sum(500-10i, i<50) + 60*(300+10).
	assert.Equal(t, 12750+60*310, Score(rec, "no phrase", words, false))
}

func TestScore_popularMarkerNeedsAMatch(t *testing.T) {
	rec := record("Something", "how-to-groom.md", nil, "grooming")
	assert.Zero(t, Score(rec, "parrot", []string{"parrot"}, false))
	assert.Equal(t, 10+popularBonus, Score(rec, "groom", []string{"groom"}, false))
}

func TestScore_occurrencesAreNonOverlapping(t *testing.T) {
	rec := record("x", "x.md", nil, "aaaa")
	// searchText is "x  aaaa": "aa" occurs twice without overlap.
	assert.Equal(t, 20, Score(rec, "aa", []string{"aa"}, false))
}

func TestScore_fuzzy(t *testing.T) {
	rec := record("Can Dogs Eat Grapes", "c.md", []string{"grapes"}, "")
	assert.Zero(t, Score(rec, "grps", []string{"grps"}, false))
	assert.Equal(t, fuzzyWordBonus, Score(rec, "grps", []string{"grps"}, true))
	assert.Zero(t, Score(rec, "cd", []string{"cd"}, true), "short words never fuzzy match")
	assert.Equal(t, 2*fuzzyWordBonus, Score(rec, "dgs grp", []string{"dgs", "grp"}, true))
}

func TestIsSubsequence(t *testing.T) {
	assert.True(t, isSubsequence("abc", "a-b-c"))
	assert.True(t, isSubsequence("", "anything"))
	assert.False(t, isSubsequence("abc", "acb"))
	assert.True(t, isSubsequence("çat", "ç a t"))
}
