package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet_wordAtOffset900(t *testing.T) {
	text := strings.Repeat("x", 900) + "grapes" + strings.Repeat("x", 94)
	assert.Equal(t, 1000, len(text))

	got := Snippet(text, []string{"grapes"})
	assert.True(t, strings.HasPrefix(got, ellipsis))
	assert.True(t, strings.HasSuffix(got, ellipsis))
	assert.Contains(t, got, "<mark>grapes</mark>")

	window := strings.TrimSuffix(strings.TrimPrefix(PlainSnippet(got), ellipsis), ellipsis)
	assert.Equal(t, SnippetLength, utf8.RuneCountInString(window))
	assert.Equal(t, text[720:920], window)
}

func TestSnippet_shortTextIsWhole(t *testing.T) {
	got := Snippet("Grapes are toxic to dogs.", []string{"grapes", "dogs"})
	assert.Equal(t, "<mark>Grapes</mark> are toxic to <mark>dogs</mark>.", got)
}

func TestSnippet_noExcerpt(t *testing.T) {
	assert.Equal(t, NoPreview, Snippet("", []string{"dogs"}))
	assert.Equal(t, NoPreview, Snippet("   \n", []string{"dogs"}))
}

func TestSnippet_firstBestWindowWins(t *testing.T) {
	text := "dogs " + strings.Repeat("y", 300) + " dogs " + strings.Repeat("z", 300)
	got := Snippet(text, []string{"dogs"})
	assert.True(t, strings.HasPrefix(got, "<mark>dogs</mark>"))
	assert.True(t, strings.HasSuffix(got, ellipsis))
}

func TestSnippet_mostDistinctWordsWins(t *testing.T) {
	text := "hay hay hay " + strings.Repeat("q", 300) + " hay water " + strings.Repeat("q", 300)
	got := PlainSnippet(Snippet(text, []string{"hay", "water"}))
	assert.Contains(t, got, "hay water")
	assert.True(t, strings.HasPrefix(got, ellipsis))
}

func TestHighlighter_escapesAndPrefersLongest(t *testing.T) {
	h := NewHighlighter([]string{"c++", "grape", "grapes", "grape"})
	assert.Equal(t, "learn <mark>C++</mark> with <mark>GRAPES</mark> and a <mark>grape</mark>",
		h.Snippet("learn C++ with GRAPES and a grape"))
	assert.Len(t, h.words, 3, "duplicate words are dropped")
}

func TestHighlighter_unicodeWindow(t *testing.T) {
	text := strings.Repeat("é", 250)
	got := Snippet(text, []string{"zz"})
	assert.Equal(t, strings.Repeat("é", SnippetLength)+ellipsis, got)
}
