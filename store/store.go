package store

import (
	"errors"
	"net/http"
	"time"
)

// ValidatorKind selects which HTTP validator an Entry carries.
type ValidatorKind string

const (
	ValidatorLastModified ValidatorKind = "last-modified"
	ValidatorETag         ValidatorKind = "etag"
)

// Validator is the value attached to conditional requests so the origin can
// decide whether the cached representation is still current. It is either a
// Last-Modified timestamp or an entity tag, never both.
type Validator struct {
	Kind  ValidatorKind
	Value string
	// Time is the parsed Value for last-modified validators.
	// It is zero for entity tags.
	Time time.Time
}

// IsZero reports whether no validator is present.
func (v Validator) IsZero() bool {
	return v.Value == ""
}

// LastModified builds a timestamp validator. The time is truncated to second
// granularity, since HTTP dates carry no sub-second precision.
func LastModified(t time.Time) Validator {
	t = t.UTC().Truncate(time.Second)
	return Validator{
		Kind:  ValidatorLastModified,
		Value: t.Format(http.TimeFormat),
		Time:  t,
	}
}

// ETag builds an entity-tag validator. The tag is kept verbatim, quotes and
// weakness prefix included, since tags are opaque to everyone but the origin.
func ETag(tag string) Validator {
	return Validator{Kind: ValidatorETag, Value: tag}
}

// Entry is the cached knowledge about one URI: its validator and the location
// of the stored body.
type Entry struct {
	URI       string
	Validator Validator
	Path      string
}

// Store is the durable mapping from URI to validator and body. The store owns
// the validator metadata and coordinates the body file with it: Put persists
// both together, so a reader never observes a body without a resolvable
// validator or a half-written body.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for uri, or ErrNotFound. An orphaned body file
	// with no resolvable validator (or a metadata row whose body file is
	// gone) counts as not found.
	Get(uri string) (Entry, error)
	// Put atomically replaces the body and validator for uri.
	Put(uri string, body []byte, v Validator) (Entry, error)
	// ReadBody returns the stored body for uri, byte for byte.
	ReadBody(uri string) ([]byte, error)
}

// ErrNotFound means no cache entry exists for the URI.
var ErrNotFound = errors.New("cache entry not found")

// ErrValidatorUnsupported is returned by Put when the store cannot represent
// the given validator kind (entity tags need the metadata store).
var ErrValidatorUnsupported = errors.New("validator kind not supported by store")

// MetadataError reports a failure of the validator metadata store itself, as
// opposed to body file I/O. Callers should degrade to cache-miss behavior on
// it: a broken metadata store costs cache efficiency, not availability.
type MetadataError struct {
	Err error
}

func (e *MetadataError) Error() string {
	return "metadata store: " + e.Err.Error()
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}
