package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ormminus/internal/pipeline"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun begins a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.BeginRun(context.Background(), pipeline.RunInfo{
		ID:            id,
		Source:        "test.yaml",
		Passes:        []string{"absorption", "subset-pruning"},
		Iterate:       true,
		MaxIterations: 10,
		Fingerprint:   "fp-before",
	})
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
}
