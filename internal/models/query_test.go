package models

import (
	"reflect"
	"testing"
	"time"
)

func TestSearchOptions_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		opts      SearchOptions
		maxLimit  int
		wantLimit int
	}{
		{"sets default limit", SearchOptions{}, 100, 10},
		{"negative limit uses default", SearchOptions{Limit: -3}, 100, 10},
		{"keeps valid limit", SearchOptions{Limit: 25}, 100, 25},
		{"caps at max", SearchOptions{Limit: 500}, 100, 100},
		{"zero max uses default max", SearchOptions{Limit: 500}, 0, DefaultMaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.Normalize(tt.maxLimit)
			if got.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", got.Limit, tt.wantLimit)
			}
			if !got.WantSnippet() {
				t.Error("snippets should default to on")
			}
		})
	}
}

func TestSearchOptions_Key(t *testing.T) {
	off := false
	a := SearchOptions{Limit: 10, Category: "Dogs"}.Normalize(100)
	b := SearchOptions{Category: "dogs"}.Normalize(100)
	if a.Key() != b.Key() {
		t.Errorf("equivalent options should share a key: %q vs %q", a.Key(), b.Key())
	}
	def := SearchOptions{}.Normalize(100)
	c := SearchOptions{IncludeSnippet: &off}.Normalize(100)
	if c.Key() == def.Key() {
		t.Error("snippet flag should change the key")
	}
	d := SearchOptions{Fuzzy: true}.Normalize(100)
	if d.Key() == def.Key() {
		t.Error("fuzzy flag should change the key")
	}
}

func TestQueryWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"dogs eat grapes", []string{"dogs", "eat", "grapes"}},
		{"a dog  x", []string{"dog"}},
		{"   ", []string{}},
		{"é ça", []string{"ça"}},
	}
	for _, tt := range tests {
		got := QueryWords(NormalizeQuery(tt.in))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("QueryWords(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTooShort(t *testing.T) {
	for _, q := range []string{"", " ", "a", " b ", "é"} {
		if !TooShort(q) {
			t.Errorf("TooShort(%q) = false, want true", q)
		}
	}
	for _, q := range []string{"ab", " ok ", "cat"} {
		if TooShort(q) {
			t.Errorf("TooShort(%q) = true, want false", q)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	built := time.UnixMilli(1700000000123)
	idx := &SearchIndex{
		Entries: []*DocumentRecord{{ID: "cat-a", Title: "A"}},
		BuiltAt: built,
		BuildID: "b1",
	}
	s := idx.Snapshot()
	if s.Count != 1 || s.Timestamp != 1700000000123 || s.BuildID != "b1" {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	back := SearchIndexFromSnapshot(s)
	if back.Len() != 1 || !back.BuiltAt.Equal(built) || back.BuildID != "b1" {
		t.Errorf("unexpected index: %+v", back)
	}
	empty := SearchIndexFromSnapshot(&Snapshot{})
	if empty.Entries == nil || empty.Len() != 0 {
		t.Error("nil snapshot index should become an empty slice")
	}
}

func TestSearchResponse_View(t *testing.T) {
	rec := &DocumentRecord{ID: "dogs1-x", Title: "X", Category: "Dogs", URL: "/dogs1/x"}
	r := &SearchResponse{
		Results: []QueryResult{{Record: rec, Score: 30, Snippet: "s"}},
		Query:   "x",
	}
	v := r.View()
	if v.Total != 1 || len(v.Results) != 1 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Results[0].Rank != 1 || v.Results[0].URL != "/dogs1/x" || v.Results[0].Score != 30 {
		t.Errorf("unexpected result view: %+v", v.Results[0])
	}
}
