package store

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Location returns the body file path for a URI within dir. The file name is
// the version-5 UUID of the full URI string in the URL namespace, so URIs
// containing separators, dot segments, query strings or non-ASCII bytes can
// neither escape dir nor collide with each other.
func Location(dir, uri string) string {
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte(uri)).String()
	return filepath.Join(dir, name)
}
