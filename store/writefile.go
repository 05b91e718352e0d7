package store

import (
	"os"
	"path/filepath"
	"time"
)

// writeFileAtomic writes body to path via a temp file and rename, so a racing
// reader never observes a partial body. A failed write leaves at worst a
// dot-prefixed temp file that is never mistaken for a cache entry. A non-zero
// modTime is applied to the final file.
func writeFileAtomic(path string, body []byte, modTime time.Time) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".lastmod-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			return err
		}
	}
	return nil
}
