package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/listsync/internal/model"
)

// createTestStore creates a new SQLite store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustCreateList creates a list or fails the test.
func mustCreateList(t *testing.T, s *Store, name string) model.List {
	t.Helper()
	l, err := s.CreateList(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateList(%q) failed: %v", name, err)
	}
	return l
}

// mustCreateItem creates an item or fails the test.
func mustCreateItem(t *testing.T, s *Store, listID int64, content string) model.Item {
	t.Helper()
	i, err := s.CreateItem(context.Background(), listID, content)
	if err != nil {
		t.Fatalf("CreateItem(%d, %q) failed: %v", listID, content, err)
	}
	return i
}

// countRows counts the rows of a table directly.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
