package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// MtimeStore is the default, database-free store. The body file's system
// modification time doubles as the Last-Modified validator: Put stamps the
// file with the origin's Last-Modified via Chtimes, Get reads it back with
// Stat. This makes the cache directory fully self-describing, at the cost of
// second granularity and no way to represent entity tags.
type MtimeStore struct {
	dir string
}

// NewMtimeStore creates the cache directory if needed.
func NewMtimeStore(dir string) (*MtimeStore, error) {
	if dir == "" {
		return nil, errors.New("cache path required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache path: %w", err)
	}
	return &MtimeStore{dir: dir}, nil
}

func (s *MtimeStore) Get(uri string) (Entry, error) {
	path := Location(s.dir, uri)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	if info.IsDir() {
		return Entry{}, ErrNotFound
	}
	return Entry{
		URI:       uri,
		Validator: LastModified(info.ModTime()),
		Path:      path,
	}, nil
}

func (s *MtimeStore) Put(uri string, body []byte, v Validator) (Entry, error) {
	if v.Kind != ValidatorLastModified {
		return Entry{}, ErrValidatorUnsupported
	}
	path := Location(s.dir, uri)
	if err := writeFileAtomic(path, body, v.Time); err != nil {
		return Entry{}, err
	}
	return Entry{URI: uri, Validator: v, Path: path}, nil
}

func (s *MtimeStore) ReadBody(uri string) ([]byte, error) {
	body, err := os.ReadFile(Location(s.dir, uri))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return body, err
}
