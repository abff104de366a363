// Package cli provides output formatting for the petqa command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/internal/search"
	"github.com/hyperjump/petqa/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

const compactTitleLength = 80

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, resp *models.SearchResponseView, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, r := range resp.Results {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", r.Rank, r.Score, r.Category, TruncateTitle(r.Title, compactTitleLength), r.URL)
		}
		if len(resp.Results) == 0 && resp.DidYouMean != "" {
			fmt.Fprintf(w, "did you mean: %s\n", resp.DidYouMean)
		}
		return nil
	default:
		writeSearchResultsText(w, resp)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, resp *models.SearchResponseView) {
	if resp.IsLoading {
		fmt.Fprintln(w, "\nThe search index is still loading; try again shortly.")
		return
	}
	fmt.Fprintf(w, "\nFound %d results for %q in %dms", resp.Total, resp.Query, resp.QueryTime)
	if resp.AutoFuzzy {
		fmt.Fprint(w, " (fuzzy)")
	}
	fmt.Fprint(w, "\n\n")
	if resp.Total == 0 && resp.DidYouMean != "" {
		fmt.Fprintf(w, "Did you mean: %s\n", resp.DidYouMean)
	}
	for _, r := range resp.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %d | %s\n", r.Rank, r.Score, r.Category)
		fmt.Fprintf(w, "Title: %s\n", r.Title)
		fmt.Fprintf(w, "URL: %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", search.PlainSnippet(r.Snippet))
		}
		fmt.Fprintln(w)
	}
}

// WriteTitles writes a list of titles (suggestions or popular questions).
func WriteTitles(w io.Writer, titles []string, format OutputFormat) error {
	if format == OutputJSON {
		if titles == nil {
			titles = []string{}
		}
		return writeJSON(w, titles)
	}
	for i, t := range titles {
		if format == OutputCompact {
			fmt.Fprintln(w, t)
			continue
		}
		fmt.Fprintf(w, "%2d. %s\n", i+1, t)
	}
	return nil
}

// Status describes a persisted snapshot for the status command.
type Status struct {
	Backend        string         `json:"backend"`
	Location       string         `json:"location"`
	Entries        int            `json:"entries"`
	BuildID        string         `json:"build_id,omitempty"`
	BuiltAt        time.Time      `json:"built_at,omitzero"`
	DiskUsageBytes *int64         `json:"disk_usage_bytes,omitempty"`
	Categories     map[string]int `json:"categories,omitempty"`
	ContentPath    string         `json:"content_path,omitempty"`
}

// NewStatus summarizes idx as loaded from the snapshot at location.
func NewStatus(backend, location string, idx *models.SearchIndex) *Status {
	st := &Status{Backend: backend, Location: location}
	if idx == nil {
		return st
	}
	st.Entries = idx.Len()
	st.BuildID = idx.BuildID
	st.BuiltAt = idx.BuiltAt
	st.Categories = make(map[string]int)
	for _, rec := range idx.Entries {
		st.Categories[rec.Category]++
	}
	return st
}

// WriteStatus writes the status in text or JSON.
func WriteStatus(w io.Writer, st *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "entries:           %d   # indexed questions\n", st.Entries)
	if st.BuildID != "" {
		fmt.Fprintf(w, "build_id:          %s\n", st.BuildID)
	}
	if !st.BuiltAt.IsZero() {
		fmt.Fprintf(w, "built_at:          %s\n", st.BuiltAt.UTC().Format(time.RFC3339))
	}
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:  %d   # snapshot on disk\n", *st.DiskUsageBytes)
	}
	if len(st.Categories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# categories")
		names := make([]string, 0, len(st.Categories))
		for name := range st.Categories {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%-18s %d\n", name+":", st.Categories[name])
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# snapshot")
	fmt.Fprintf(w, "backend:           %s\n", st.Backend)
	fmt.Fprintf(w, "location:          %s\n", st.Location)
	if st.ContentPath != "" {
		fmt.Fprintf(w, "content_path:      %s\n", st.ContentPath)
	}
	return nil
}

// TruncateTitle shortens long titles for one-line listings.
func TruncateTitle(title string, maxRunes int) string {
	return utils.Truncate(title, maxRunes)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
