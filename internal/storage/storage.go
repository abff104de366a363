// Package storage persists and loads search index snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/models"
)

var (
	// ErrSnapshotMissing means no snapshot has been written yet.
	ErrSnapshotMissing = errors.New("snapshot missing")
	// ErrSnapshotCorrupt means the snapshot exists but cannot be decoded or is inconsistent.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
	// ErrReadOnly is returned by stores that cannot persist.
	ErrReadOnly = errors.New("snapshot store is read-only")
)

// LoadError reports a snapshot that could not be loaded. It is recoverable: callers may
// rebuild or serve without an index.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load snapshot %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func missing(source string) error {
	return &LoadError{Source: source, Err: ErrSnapshotMissing}
}

func corrupt(source string, err error) error {
	return &LoadError{Source: source, Err: fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)}
}

// SnapshotStore persists a whole snapshot and loads it back.
type SnapshotStore interface {
	// Save replaces the stored snapshot. Readers never observe a partial write.
	Save(ctx context.Context, s *models.Snapshot) error
	// Load returns the stored snapshot or a *LoadError.
	Load(ctx context.Context) (*models.Snapshot, error)
	// Location describes where the snapshot lives, for logs and status output.
	Location() string
	Close() error
}

// LoadIndex loads a snapshot from store and converts it to an index.
func LoadIndex(ctx context.Context, store SnapshotStore) (*models.SearchIndex, error) {
	s, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return models.SearchIndexFromSnapshot(s), nil
}

// Open returns the store selected by cfg.Backend.
func Open(cfg config.SnapshotConfig) (SnapshotStore, error) {
	switch cfg.Backend {
	case "", config.BackendJSON:
		return NewJSONSnapshotStore(cfg.Path, cfg.PrettyOrDefault()), nil
	case config.BackendSQLite:
		return NewSQLiteSnapshotStore(cfg.Path)
	case config.BackendHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("snapshot backend http requires snapshot.url")
		}
		return NewHTTPSnapshotStore(cfg.URL, nil), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

func validate(source string, s *models.Snapshot) error {
	if s.Count != len(s.Index) {
		return corrupt(source, fmt.Errorf("count %d does not match %d entries", s.Count, len(s.Index)))
	}
	for i, rec := range s.Index {
		if rec == nil || rec.ID == "" {
			return corrupt(source, fmt.Errorf("entry %d has no id", i))
		}
	}
	return nil
}
