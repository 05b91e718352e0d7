package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore keeps validator metadata in a sqlite database, one row per URI.
// Unlike MtimeStore it can hold entity tags, which makes it required for ETag
// mode; it also keeps Last-Modified values at full string fidelity. Bodies
// still live as files under the cache directory.
type SQLiteStore struct {
	db         *sql.DB
	dir        string
	writeMutex sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at filename and prepares the
// schema. Bodies are stored under dir.
func NewSQLiteStore(dir, filename string) (*SQLiteStore, error) {
	if dir == "" {
		return nil, errors.New("cache path required")
	}
	if filename == "" {
		return nil, errors.New("db path required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache path: %w", err)
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, &MetadataError{Err: err}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS response (
		uri TEXT PRIMARY KEY,
		validator TEXT,
		validator_kind TEXT,
		cache_path TEXT
	)`); err != nil {
		return nil, &MetadataError{Err: err}
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, &MetadataError{Err: err}
	}
	return &SQLiteStore{db: db, dir: dir}, nil
}

func (s *SQLiteStore) Get(uri string) (Entry, error) {
	var value, kind, path string
	err := s.db.QueryRow(
		"SELECT validator, validator_kind, cache_path FROM response WHERE uri = ?", uri,
	).Scan(&value, &kind, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, &MetadataError{Err: err}
	}
	// a row whose body file is gone counts as absent, not as corruption
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	v := Validator{Kind: ValidatorKind(kind), Value: value}
	if v.Kind == ValidatorLastModified {
		if t, err := http.ParseTime(value); err == nil {
			v.Time = t
		}
	}
	return Entry{URI: uri, Validator: v, Path: path}, nil
}

// Put writes the body file first and the metadata row second. A crash in
// between leaves an old validator next to a new body, which only costs one
// redundant 200 on the next fetch.
func (s *SQLiteStore) Put(uri string, body []byte, v Validator) (Entry, error) {
	path := Location(s.dir, uri)
	if err := writeFileAtomic(path, body, v.Time); err != nil {
		return Entry{}, err
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO response (uri, validator, validator_kind, cache_path) VALUES (?, ?, ?, ?)",
		uri, v.Value, string(v.Kind), path,
	); err != nil {
		return Entry{}, &MetadataError{Err: err}
	}
	return Entry{URI: uri, Validator: v, Path: path}, nil
}

func (s *SQLiteStore) ReadBody(uri string) ([]byte, error) {
	entry, err := s.Get(uri)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(entry.Path)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
