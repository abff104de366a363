// Package models defines core data structures for indexed records, snapshots, queries, and results.
package models

import "time"

// DocumentRecord is one indexed Q&A page.
type DocumentRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Category string   `json:"category"`
	Section  string   `json:"section"`
	Filename string   `json:"filename"`
	Keywords []string `json:"keywords"`
	// Excerpt is the first ExcerptLength characters of the body, used for snippets.
	Excerpt string `json:"excerpt"`
	// SearchText is the lower-cased title, keywords and excerpt. Built once at index time.
	SearchText string `json:"searchText"`
	URL        string `json:"url"`
}

// ExcerptLength is the maximum number of characters kept from a document body.
const ExcerptLength = 500

// SearchIndex is the full in-memory corpus. It is never mutated after construction;
// a rebuild produces a new SearchIndex.
type SearchIndex struct {
	Entries []*DocumentRecord
	BuiltAt time.Time
	BuildID string
}

// Len returns the number of entries.
func (idx *SearchIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

// Snapshot is the persisted form of a SearchIndex.
type Snapshot struct {
	Timestamp int64             `json:"timestamp"`
	Count     int               `json:"count"`
	BuildID   string            `json:"buildId,omitempty"`
	Index     []*DocumentRecord `json:"index"`
}

// Snapshot converts the index into its persisted form.
func (idx *SearchIndex) Snapshot() *Snapshot {
	return &Snapshot{
		Timestamp: idx.BuiltAt.UnixMilli(),
		Count:     len(idx.Entries),
		BuildID:   idx.BuildID,
		Index:     idx.Entries,
	}
}

// SearchIndexFromSnapshot builds an in-memory index from a loaded snapshot.
func SearchIndexFromSnapshot(s *Snapshot) *SearchIndex {
	entries := s.Index
	if entries == nil {
		entries = []*DocumentRecord{}
	}
	return &SearchIndex{
		Entries: entries,
		BuiltAt: time.UnixMilli(s.Timestamp),
		BuildID: s.BuildID,
	}
}
