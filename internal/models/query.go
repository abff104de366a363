package models

import (
	"fmt"
	"strings"
)

const (
	// DefaultLimit is the number of results returned when no limit is given.
	DefaultLimit = 10
	// DefaultMaxLimit caps the number of results per query.
	DefaultMaxLimit = 100
	// MinQueryLength is the shortest trimmed query that is searched at all.
	MinQueryLength = 2
)

// SearchOptions controls a single search.
type SearchOptions struct {
	Limit int `json:"limit,omitempty"`
	// Category restricts results to one display category (case-insensitive). Empty means all.
	Category string `json:"category,omitempty"`
	// IncludeSnippet defaults to true when nil.
	IncludeSnippet *bool `json:"includeSnippet,omitempty"`
	// Fuzzy enables the permissive subsequence fallback for records that otherwise score zero.
	Fuzzy bool `json:"fuzzy,omitempty"`
}

// Normalize applies defaults: a non-positive limit becomes DefaultLimit and a limit
// above maxLimit is capped (maxLimit <= 0 means DefaultMaxLimit).
func (o SearchOptions) Normalize(maxLimit int) SearchOptions {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	o.Category = strings.TrimSpace(o.Category)
	if o.IncludeSnippet == nil {
		t := true
		o.IncludeSnippet = &t
	}
	return o
}

// WantSnippet reports whether snippets should be generated.
func (o SearchOptions) WantSnippet() bool {
	return o.IncludeSnippet == nil || *o.IncludeSnippet
}

// Key is a stable serialization of the options, used in cache keys.
func (o SearchOptions) Key() string {
	return fmt.Sprintf("limit=%d|category=%s|snippet=%t|fuzzy=%t",
		o.Limit, strings.ToLower(o.Category), o.WantSnippet(), o.Fuzzy)
}

// NormalizeQuery lower-cases and trims a raw query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// QueryWords splits a normalized query into whitespace-delimited words longer than one character.
func QueryWords(normalized string) []string {
	fields := strings.Fields(normalized)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			words = append(words, f)
		}
	}
	return words
}

// TooShort reports whether a raw query is below the minimum searchable length.
func TooShort(query string) bool {
	return len([]rune(strings.TrimSpace(query))) < MinQueryLength
}
