package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/petqa/internal/models"
)

// SQLiteSnapshotStore keeps the snapshot in a SQLite database: one metadata row and one
// row per record in build order.
type SQLiteSnapshotStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteSnapshotStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteSnapshotStore(dbPath string) (*SQLiteSnapshotStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteSnapshotStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		built_at INTEGER NOT NULL,
		entry_count INTEGER NOT NULL,
		build_id TEXT
	);

	CREATE TABLE IF NOT EXISTS records (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		category TEXT,
		section TEXT,
		filename TEXT,
		keywords TEXT,
		excerpt TEXT,
		search_text TEXT,
		url TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_records_category ON records(category);
	`
	_, err := db.Exec(schema)
	return err
}

// Location implements SnapshotStore.
func (s *SQLiteSnapshotStore) Location() string { return s.path }

// Save replaces every stored row in one transaction.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_meta`); err != nil {
		return fmt.Errorf("failed to clear snapshot metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, built_at, entry_count, build_id) VALUES (1, ?, ?, ?)`,
		snap.Timestamp, len(snap.Index), snap.BuildID,
	); err != nil {
		return fmt.Errorf("failed to write snapshot metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (position, id, title, slug, category, section, filename, keywords, excerpt, search_text, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range snap.Index {
		keywordsJSON, err := json.Marshal(rec.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, rec.ID, rec.Title, rec.Slug, rec.Category, rec.Section,
			rec.Filename, string(keywordsJSON), rec.Excerpt, rec.SearchText, rec.URL); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads the snapshot back in build order.
func (s *SQLiteSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	var buildID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT built_at, entry_count, build_id FROM snapshot_meta WHERE id = 1`,
	).Scan(&snap.Timestamp, &snap.Count, &buildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, missing(s.path)
	}
	if err != nil {
		return nil, &LoadError{Source: s.path, Err: err}
	}
	snap.BuildID = buildID.String

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, slug, category, section, filename, keywords, excerpt, search_text, url
		 FROM records ORDER BY position`,
	)
	if err != nil {
		return nil, &LoadError{Source: s.path, Err: err}
	}
	defer rows.Close()

	snap.Index = make([]*models.DocumentRecord, 0, snap.Count)
	for rows.Next() {
		var rec models.DocumentRecord
		var keywordsJSON string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Slug, &rec.Category, &rec.Section, &rec.Filename,
			&keywordsJSON, &rec.Excerpt, &rec.SearchText, &rec.URL); err != nil {
			return nil, corrupt(s.path, err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &rec.Keywords); err != nil {
			return nil, corrupt(s.path, fmt.Errorf("record %s keywords: %w", rec.ID, err))
		}
		if rec.Keywords == nil {
			rec.Keywords = []string{}
		}
		snap.Index = append(snap.Index, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: s.path, Err: err}
	}
	if err := validate(s.path, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Count returns the number of stored records.
func (s *SQLiteSnapshotStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
