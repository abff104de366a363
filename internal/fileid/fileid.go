// Package fileid derives stable record identifiers and site URLs from corpus file locations.
package fileid

import (
	"path/filepath"
	"strings"
)

// RecordID returns the index-wide identifier for a record: section and slug joined by a dash.
// The same section and slug always yield the same ID.
func RecordID(section, slug string) string {
	return section + "-" + slug
}

// URL returns the canonical site-relative path for a record.
func URL(section, slug string) string {
	return "/" + section + "/" + slug
}

// Stem returns the filename without directory or extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
