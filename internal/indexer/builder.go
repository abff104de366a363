// Package indexer scans the markdown corpus and builds the search index snapshot.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/extract"
	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/internal/storage"
	"github.com/hyperjump/petqa/pkg/utils"
	"go.uber.org/zap"
)

// ErrNoCategories is returned when none of the configured category directories exist.
var ErrNoCategories = errors.New("no category directories found")

// BuildError is fatal to a build. Per-file problems are not BuildErrors; they are logged
// and counted in BuildReport.Skipped.
type BuildError struct {
	Op  string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed: %s: %v", e.Op, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// BuildReport summarizes a finished build.
type BuildReport struct {
	BuildID  string
	Entries  int
	Skipped  int
	Duration time.Duration
	// Sections maps each scanned corpus directory to the number of records it produced.
	Sections map[string]int
	// Missing lists configured directories that did not exist.
	Missing []string
	// Location is where the snapshot was written; empty when no store is configured.
	Location string
}

// Progress is called after each category directory has been scanned.
type Progress func(section string, records int)

// Builder builds the index from a corpus and persists it.
type Builder struct {
	corpus   config.CorpusConfig
	store    storage.SnapshotStore
	logger   *zap.Logger
	progress Progress
	now      func() time.Time
	readDir  func(string) ([]os.DirEntry, error)
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger for per-file warnings and the build summary.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithProgress sets a callback invoked once per scanned category.
func WithProgress(p Progress) BuilderOption {
	return func(b *Builder) { b.progress = p }
}

// NewBuilder creates a builder. store may be nil, in which case Build does not persist.
func NewBuilder(corpus config.CorpusConfig, store storage.SnapshotStore, opts ...BuilderOption) *Builder {
	b := &Builder{
		corpus:  corpus,
		store:   store,
		now:     time.Now,
		readDir: os.ReadDir,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)
	return b
}

// Build scans every category, parses each document and persists the snapshot.
// Unreadable or malformed files, unreadable category directories and duplicate ids
// are skipped.
func (b *Builder) Build(ctx context.Context) (*models.SearchIndex, *BuildReport, error) {
	start := b.now()
	report := &BuildReport{
		BuildID:  uuid.NewString(),
		Sections: make(map[string]int),
	}
	b.logger.Info("index build started",
		zap.String("build_id", report.BuildID),
		zap.String("content_path", b.corpus.ContentPath))

	entries := make([]*models.DocumentRecord, 0)
	seen := make(map[string]string)
	found := 0
	for _, cat := range b.corpus.Categories {
		if err := ctx.Err(); err != nil {
			return nil, nil, &BuildError{Op: "scan corpus", Err: err}
		}
		dir := filepath.Join(b.corpus.ContentPath, cat.Dir)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			b.logger.Warn("category directory not found, skipping", zap.String("dir", dir))
			report.Missing = append(report.Missing, cat.Dir)
			continue
		}

		section := extract.Category{Section: cat.Dir, Name: b.corpus.CategoryName(cat.Dir)}
		before := len(entries)
		records, skipped, err := b.scanDirectory(ctx, dir, section)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, &BuildError{Op: "scan " + cat.Dir, Err: ctxErr}
		}
		if err != nil {
			b.logger.Warn("category directory unreadable, skipping", zap.String("dir", dir), zap.Error(err))
			report.Missing = append(report.Missing, cat.Dir)
			continue
		}
		found++
		report.Skipped += skipped
		for _, rec := range records {
			if prev, dup := seen[rec.ID]; dup {
				b.logger.Warn("duplicate record id, skipping",
					zap.String("id", rec.ID),
					zap.String("file", filepath.Join(cat.Dir, rec.Filename)),
					zap.String("first", prev))
				report.Skipped++
				continue
			}
			seen[rec.ID] = filepath.Join(cat.Dir, rec.Filename)
			entries = append(entries, rec)
		}
		report.Sections[cat.Dir] = len(entries) - before
		if b.progress != nil {
			b.progress(cat.Dir, len(entries)-before)
		}
	}
	if found == 0 {
		return nil, nil, &BuildError{Op: "locate corpus", Err: ErrNoCategories}
	}

	idx := &models.SearchIndex{
		Entries: entries,
		BuiltAt: b.now(),
		BuildID: report.BuildID,
	}
	if b.store != nil {
		if err := b.store.Save(ctx, idx.Snapshot()); err != nil {
			return nil, nil, &BuildError{Op: "persist snapshot", Err: err}
		}
		report.Location = b.store.Location()
	}

	report.Entries = len(entries)
	report.Duration = b.now().Sub(start)
	b.logger.Info("index build finished",
		zap.String("build_id", report.BuildID),
		zap.Int("entries", report.Entries),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
		zap.String("snapshot", report.Location))
	return idx, report, nil
}

// scanDirectory parses the regular files of one category directory in name order.
// Subdirectories are not descended into.
func (b *Builder) scanDirectory(ctx context.Context, dir string, cat extract.Category) ([]*models.DocumentRecord, int, error) {
	dirEntries, err := b.readDir(dir)
	if err != nil {
		return nil, 0, err
	}
	var records []*models.DocumentRecord
	skipped := 0
	for _, d := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if d.IsDir() {
			continue
		}
		name := d.Name()
		if !extensionAllowed(filepath.Ext(name), b.corpus.Extensions) {
			continue
		}
		path := filepath.Join(dir, name)
		// Resolve symlinks so only regular files are parsed.
		finfo, err := os.Stat(path)
		if err != nil || !finfo.Mode().IsRegular() {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			b.logger.Warn("failed to read document, skipping", zap.String("path", path), zap.Error(err))
			skipped++
			continue
		}
		rec, err := extract.Parse(string(content), name, cat)
		if err != nil {
			b.logger.Warn("failed to parse document, skipping", zap.String("path", path), zap.Error(err))
			skipped++
			continue
		}
		b.logger.Debug("document parsed", zap.String("id", rec.ID), zap.Int("keywords", len(rec.Keywords)))
		records = append(records, rec)
	}
	return records, skipped, nil
}

// extensionAllowed matches case-insensitively, with or without the leading dot.
// An empty allow list accepts everything.
func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
