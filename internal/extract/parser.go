// Package extract turns raw Q&A markdown files into index records.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/petqa/internal/fileid"
	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/pkg/utils"
)

const metadataDelimiter = "---"

var (
	// ErrUnterminatedMetadata is returned when a metadata block is opened but never closed.
	ErrUnterminatedMetadata = errors.New("unterminated metadata block")
	// ErrEmptySlug is returned when no slug can be read or derived.
	ErrEmptySlug = errors.New("empty slug")
)

// ParseError reports a single document that could not be turned into a record.
// It is recoverable: the build logs it and skips the file.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Category identifies where a document lives in the corpus.
type Category struct {
	// Section is the corpus directory, used in IDs and URLs.
	Section string
	// Name is the display category, used for filtering.
	Name string
}

// Metadata holds the recognized keys of a document's leading metadata block.
type Metadata struct {
	Title string
	Slug  string
}

// SplitMetadata separates the leading metadata block from the body. The block is
// recognized only when the first non-blank line is the delimiter. found reports whether
// a block was present.
func SplitMetadata(content string) (meta Metadata, body string, found bool, err error) {
	lines := strings.Split(content, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) || strings.TrimSpace(lines[start]) != metadataDelimiter {
		return Metadata{}, strings.TrimSpace(content), false, nil
	}
	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == metadataDelimiter {
			body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return meta, body, true, nil
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "title":
			meta.Title = unquote(value)
		case "slug":
			meta.Slug = unquote(value)
		}
	}
	// Rejected rather than read as body: a corpus of one well-formed file and one with an
	// unclosed block must index exactly one record.
	return Metadata{}, "", true, ErrUnterminatedMetadata
}

func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			v = v[1 : len(v)-1]
		}
	}
	return strings.TrimSpace(v)
}

// TitleFromFilename derives a human-readable title: extension stripped, separators
// replaced by spaces, first letter upper-cased.
func TitleFromFilename(filename string) string {
	stem := fileid.Stem(filename)
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	stem = strings.TrimSpace(stem)
	r, size := utf8.DecodeRuneInString(stem)
	if r == utf8.RuneError {
		return stem
	}
	return string(unicode.ToUpper(r)) + stem[size:]
}

// Parse builds a record from one raw file. It has no side effects.
func Parse(content, filename string, cat Category) (*models.DocumentRecord, error) {
	meta, body, _, err := SplitMetadata(content)
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	title := meta.Title
	if title == "" {
		title = TitleFromFilename(filename)
	}
	slug := meta.Slug
	if slug == "" {
		slug = fileid.Stem(filename)
	}
	if slug == "" {
		return nil, &ParseError{Filename: filename, Err: ErrEmptySlug}
	}
	if title == "" {
		title = TitleFromFilename(slug)
	}

	keywords := ExtractKeywords(title, body)
	excerpt := utils.PrefixRunes(body, models.ExcerptLength)
	category := cat.Name
	if category == "" {
		category = cat.Section
	}
	return &models.DocumentRecord{
		ID:         fileid.RecordID(cat.Section, slug),
		Title:      title,
		Slug:       slug,
		Category:   category,
		Section:    cat.Section,
		Filename:   filename,
		Keywords:   keywords,
		Excerpt:    excerpt,
		SearchText: BuildSearchText(title, keywords, excerpt),
		URL:        fileid.URL(cat.Section, slug),
	}, nil
}

// BuildSearchText returns the lower-cased concatenation scored by the query engine.
func BuildSearchText(title string, keywords []string, excerpt string) string {
	return strings.ToLower(title + " " + strings.Join(keywords, " ") + " " + excerpt)
}
