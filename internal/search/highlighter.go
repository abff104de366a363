package search

import (
	"regexp"
	"sort"
	"strings"
)

// Snippet geometry, in characters.
const (
	SnippetLength = 200
	snippetStep   = 20
)

// NoPreview is returned for records without an excerpt.
const NoPreview = "No preview available"

const (
	ellipsis  = "..."
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Highlighter produces snippets for one query. Build it once per query and reuse it for
// every result.
type Highlighter struct {
	words   []string
	pattern *regexp.Regexp
}

// NewHighlighter compiles a single case-insensitive pattern matching any of the query words.
func NewHighlighter(words []string) *Highlighter {
	distinct := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		distinct = append(distinct, w)
	}
	h := &Highlighter{words: distinct}
	if len(distinct) == 0 {
		return h
	}
	// Longest first so "grapes" wins over "grape" at the same position.
	alts := append([]string(nil), distinct...)
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	for i, a := range alts {
		alts[i] = regexp.QuoteMeta(a)
	}
	h.pattern = regexp.MustCompile(`(?i)` + strings.Join(alts, "|"))
	return h
}

// Snippet returns the best SnippetLength window of text with query words wrapped in
// <mark> tags. The best window is the first one containing the most distinct query words.
func (h *Highlighter) Snippet(text string) string {
	if strings.TrimSpace(text) == "" {
		return NoPreview
	}
	runes := []rune(text)
	start := h.bestWindow(runes)
	end := min(start+SnippetLength, len(runes))

	window := string(runes[start:end])
	if h.pattern != nil {
		window = h.pattern.ReplaceAllString(window, markOpen+"${0}"+markClose)
	}
	if start > 0 {
		window = ellipsis + window
	}
	if end < len(runes) {
		window += ellipsis
	}
	return window
}

func (h *Highlighter) bestWindow(runes []rune) int {
	if len(h.words) == 0 {
		return 0
	}
	best, bestMatches := 0, 0
	last := max(0, len(runes)-SnippetLength)
	for i := 0; i <= last; i += snippetStep {
		section := strings.ToLower(string(runes[i:min(i+SnippetLength, len(runes))]))
		matches := 0
		for _, w := range h.words {
			if strings.Contains(section, w) {
				matches++
			}
		}
		if matches > bestMatches {
			best, bestMatches = i, matches
		}
	}
	return best
}

// Snippet is a convenience for a single text; prefer a shared Highlighter across results.
func Snippet(text string, words []string) string {
	return NewHighlighter(words).Snippet(text)
}

var markStripper = strings.NewReplacer(markOpen, "", markClose, "")

// PlainSnippet removes highlight tags, for plain-text output.
func PlainSnippet(s string) string {
	return markStripper.Replace(s)
}
