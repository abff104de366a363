package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperjump/petqa/internal/models"
)

// HTTPSnapshotStore fetches a published JSON snapshot, e.g. a deployed
// /_data/search-index.json. It cannot save.
type HTTPSnapshotStore struct {
	url    string
	client *http.Client
}

// NewHTTPSnapshotStore returns a read-only store for url. A nil client gets a 30s timeout.
func NewHTTPSnapshotStore(url string, client *http.Client) *HTTPSnapshotStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSnapshotStore{url: url, client: client}
}

// Location implements SnapshotStore.
func (s *HTTPSnapshotStore) Location() string { return s.url }

// Save always fails with ErrReadOnly.
func (s *HTTPSnapshotStore) Save(context.Context, *models.Snapshot) error {
	return ErrReadOnly
}

// Load downloads and validates the snapshot.
func (s *HTTPSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &LoadError{Source: s.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: s.url, Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, missing(s.url)
	case resp.StatusCode != http.StatusOK:
		return nil, &LoadError{Source: s.url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return decodeSnapshot(s.url, resp.Body)
}

// Close implements SnapshotStore.
func (s *HTTPSnapshotStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
