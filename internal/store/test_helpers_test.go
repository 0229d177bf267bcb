package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/graft/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
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

// createTestOverride creates an override record with minimal required fields.
func createTestOverride(id, path string) ir.OverrideRecord {
	return ir.OverrideRecord{
		ID:                id,
		Identifier:        filepath.Base(path),
		ResolvedPath:      path,
		Resolution:        ir.ResolvedAsLocalPath,
		OriginalDigest:    "sha256:original",
		TransformedDigest: "sha256:transformed",
	}
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
