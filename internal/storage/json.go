package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/hyperjump/petqa/internal/models"
)

// snapshotFileMode is world-readable so the static site server can serve the file.
const snapshotFileMode = 0644

// JSONSnapshotStore keeps the snapshot in a single JSON file, the same file the site
// ships to browsers.
type JSONSnapshotStore struct {
	path   string
	pretty bool
}

// NewJSONSnapshotStore returns a store for the file at path.
func NewJSONSnapshotStore(path string, pretty bool) *JSONSnapshotStore {
	return &JSONSnapshotStore{path: path, pretty: pretty}
}

// Path returns the snapshot file path.
func (s *JSONSnapshotStore) Path() string { return s.path }

// Location implements SnapshotStore.
func (s *JSONSnapshotStore) Location() string { return s.path }

// Save writes the snapshot to a pending file beside the target and atomically replaces
// the previous snapshot. Readers see either the old file or the new one.
func (s *JSONSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	pf, err := renameio.NewPendingFile(s.path, renameio.WithStaticPermissions(snapshotFileMode))
	if err != nil {
		return fmt.Errorf("failed to create pending snapshot: %w", err)
	}
	defer pf.Cleanup()

	if err := encodeSnapshot(pf, snap, s.pretty); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads and validates the snapshot file.
func (s *JSONSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missing(s.path)
		}
		return nil, &LoadError{Source: s.path, Err: err}
	}
	defer f.Close()
	return decodeSnapshot(s.path, f)
}

// Close implements SnapshotStore.
func (s *JSONSnapshotStore) Close() error { return nil }

func encodeSnapshot(w io.Writer, snap *models.Snapshot, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(snap)
}

func decodeSnapshot(source string, r io.Reader) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, corrupt(source, err)
	}
	if err := validate(source, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
