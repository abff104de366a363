package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/petqa/internal/models"
)

const (
	defaultSuggestionLimit = 5
	defaultPopularLimit    = 10
)

var popularPhrases = []string{"can ", "how "}

// Suggest returns up to limit titles for a partial query: titles starting with it first,
// then titles containing it. limit <= 0 uses the configured suggestion limit.
func (e *Engine) Suggest(query string, limit int) ([]string, error) {
	gen := e.current.Load()
	if gen == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = e.cfg.SuggestionLimit
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	out := []string{}
	if models.TooShort(query) {
		return out, nil
	}
	q := models.NormalizeQuery(query)
	seen := make(map[string]struct{})
	add := func(title string) {
		if _, ok := seen[title]; ok {
			return
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	for _, rec := range gen.index.Entries {
		if len(out) >= limit {
			return out, nil
		}
		if strings.HasPrefix(strings.ToLower(rec.Title), q) {
			add(rec.Title)
		}
	}
	for _, rec := range gen.index.Entries {
		if len(out) >= limit {
			break
		}
		title := strings.ToLower(rec.Title)
		if strings.Contains(title, q) && !strings.HasPrefix(title, q) {
			add(rec.Title)
		}
	}
	return out, nil
}

// Popular returns question-style titles ("can ...", "how ..."), longest first, optionally
// restricted to categories containing category. limit <= 0 uses the configured popular limit.
func (e *Engine) Popular(category string, limit int) ([]string, error) {
	gen := e.current.Load()
	if gen == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = e.cfg.PopularLimit
	}
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	category = strings.ToLower(strings.TrimSpace(category))
	var picked []*models.DocumentRecord
	for _, rec := range gen.index.Entries {
		if category != "" && !strings.Contains(strings.ToLower(rec.Category), category) {
			continue
		}
		if isQuestionTitle(rec.Title) {
			picked = append(picked, rec)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return utf8.RuneCountInString(picked[i].Title) > utf8.RuneCountInString(picked[j].Title)
	})
	if len(picked) > limit {
		picked = picked[:limit]
	}
	out := make([]string, len(picked))
	for i, rec := range picked {
		out[i] = rec.Title
	}
	return out, nil
}

func isQuestionTitle(title string) bool {
	t := strings.ToLower(title)
	for _, p := range popularPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
