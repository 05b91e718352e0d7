package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir, filepath.Join(dir, "meta.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreETagRoundtrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	uri := "https://example.com/api/things"

	if _, err := s.Put(uri, []byte(`[1,2,3]`), ETag(`"abc"`)); err != nil {
		t.Fatal(err)
	}

	entry, err := s.Get(uri)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Validator.Kind != ValidatorETag || entry.Validator.Value != `"abc"` {
		t.Fatalf("validator is %+v", entry.Validator)
	}
	body, err := s.ReadBody(uri)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `[1,2,3]` {
		t.Fatalf("body is %q", body)
	}
}

func TestSQLiteStoreLastModifiedRoundtrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	uri := "https://example.com/feed.xml"
	modified := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	if _, err := s.Put(uri, []byte("feed"), LastModified(modified)); err != nil {
		t.Fatal(err)
	}

	entry, err := s.Get(uri)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Validator.Kind != ValidatorLastModified {
		t.Fatalf("validator kind is %s", entry.Validator.Kind)
	}
	if !entry.Validator.Time.Equal(modified) {
		t.Fatalf("validator time is %v, want %v", entry.Validator.Time, modified)
	}
}

func TestSQLiteStoreReplacesEntry(t *testing.T) {
	s := newTestSQLiteStore(t)
	uri := "https://example.com/doc"

	if _, err := s.Put(uri, []byte("v1"), ETag(`"one"`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(uri, []byte("v2"), ETag(`"two"`)); err != nil {
		t.Fatal(err)
	}

	entry, err := s.Get(uri)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Validator.Value != `"two"` {
		t.Fatalf("validator is %q", entry.Validator.Value)
	}
	body, _ := s.ReadBody(uri)
	if string(body) != "v2" {
		t.Fatalf("body is %q", body)
	}
}

func TestSQLiteStoreMissing(t *testing.T) {
	s := newTestSQLiteStore(t)
	if _, err := s.Get("https://example.com/nothing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error is %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreOrphanedRowIsAbsent(t *testing.T) {
	s := newTestSQLiteStore(t)
	uri := "https://example.com/doc"
	entry, err := s.Put(uri, []byte("body"), ETag(`"x"`))
	if err != nil {
		t.Fatal(err)
	}
	// a metadata row without its body file must read as a miss, not an error
	if err := os.Remove(entry.Path); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(uri); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error is %v, want ErrNotFound", err)
	}
}
