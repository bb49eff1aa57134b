package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps all records in one JSON file, rewritten on every Put.
// Suitable for local builds where the record count stays in the thousands.
type FileStore struct {
	path string

	mu      sync.Mutex
	records map[string]Record
}

// NewFileStore loads the store file if it exists; a missing file is an empty
// store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, records: map[string]Record{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parsing store %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.URL] = rec
	return s.flushLocked()
}

func (s *FileStore) Get(_ context.Context, url string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[url]
	return rec, ok, nil
}

// List returns all records ordered by URL.
func (s *FileStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

func (s *FileStore) Close(context.Context) error { return nil }

// flushLocked writes via a temp file and rename so a crash mid-write never
// truncates the store. Caller holds the mutex.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	return os.Rename(tmp, s.path)
}
