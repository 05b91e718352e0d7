package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lastmod-cache/lastmod/store"

	"github.com/rs/zerolog/log"
)

// Config carries everything a Manager needs. It is passed by value at
// construction time; the Manager never consults ambient configuration.
type Config struct {
	// Store persists validators and body locations.
	Store store.Store
	// Client performs the actual requests. If nil, a client that does not
	// follow redirects is used, so 3xx statuses surface to the caller.
	Client *http.Client
	// UseETags prefers entity tags over Last-Modified when the origin offers
	// both. Requires a store that can persist entity tags.
	UseETags bool
}

// Manager is the cache-consistency engine. It maps a requested URI to a cache
// entry, validates the entry against the origin with a conditional request,
// and decides per call whether to reuse or replace the stored body.
type Manager struct {
	store    store.Store
	client   *http.Client
	useETags bool
}

// New builds a Manager from an explicit configuration value.
func New(config Config) *Manager {
	client := config.Client
	if client == nil {
		client = &http.Client{
			// do not follow redirects
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Manager{
		store:    config.Store,
		client:   client,
		useETags: config.UseETags,
	}
}

// FetchOptions adjusts a single Fetch call.
type FetchOptions struct {
	// Header is merged into the outgoing request. If it carries a
	// conditional header of its own (If-Modified-Since, If-None-Match or
	// If-Match), the engine adds no validator for that exchange: duplicate
	// conflicting validators have undefined server behavior.
	Header http.Header
	// AllowStale serves the stored body when the origin is unreachable
	// instead of failing with a TransportError. Staleness is never silent:
	// it must be requested here and is reported as OutcomeStale.
	AllowStale bool
}

// Result is what a Fetch produced.
type Result struct {
	// StatusCode is the origin's status (200 when a stale body is served).
	StatusCode int
	Header     http.Header
	Body       []byte
	Outcome    Outcome
	// Path is the body file location, empty when nothing is cached for
	// the URI.
	Path string
}

// Fetch returns the representation of uri, transparently deciding between a
// network fetch and the stored body. Non-2xx, non-304 origin statuses are not
// errors: they come back on the Result with the cache untouched.
func (m *Manager) Fetch(ctx context.Context, uri string, opts *FetchOptions) (*Result, error) {
	if opts == nil {
		opts = &FetchOptions{}
	}
	if _, err := url.ParseRequestURI(uri); err != nil {
		return nil, fmt.Errorf("invalid uri: %w", err)
	}

	entry, found := m.lookup(uri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for name, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if found && !hasConditionalHeader(opts.Header) {
		setValidator(req.Header, entry.Validator)
	}

	res, err := m.client.Do(req)
	if err != nil {
		if opts.AllowStale && found {
			return m.serveStale(entry, err)
		}
		return nil, &TransportError{URI: uri, Err: err}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotModified:
		return m.serveCached(entry, res)
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return m.serveFresh(uri, res, found)
	default:
		return m.forward(uri, res)
	}
}

// lookup degrades store failures to a cache miss: a broken metadata store
// costs cache efficiency, not availability of the underlying resource.
func (m *Manager) lookup(uri string) (store.Entry, bool) {
	entry, err := m.store.Get(uri)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("uri", uri).Msg("Store unreadable, treating as cache miss")
		}
		return store.Entry{}, false
	}
	return entry, true
}

// serveCached handles a 304: the stored body is current, return it without
// touching the validator or the body file.
func (m *Manager) serveCached(entry store.Entry, res *http.Response) (*Result, error) {
	body, err := m.store.ReadBody(entry.URI)
	if err != nil {
		return nil, fmt.Errorf("read cached body: %w", err)
	}
	log.Debug().
		Str("uri", entry.URI).
		Str("validator", entry.Validator.Value).
		Msg("Not modified, serving cached body")
	return &Result{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
		Outcome:    OutcomeRevalidated,
		Path:       entry.Path,
	}, nil
}

// serveFresh handles any 2xx: store the new body and validator, then return
// the body. Failure to persist metadata never fails the fetch itself.
func (m *Manager) serveFresh(uri string, res *http.Response, revalidated bool) (*Result, error) {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{URI: uri, Err: err}
	}
	outcome := OutcomeMiss
	if revalidated {
		outcome = OutcomeChanged
	}
	result := &Result{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
		Outcome:    outcome,
	}
	v := m.validatorFrom(res.Header)
	if v.IsZero() {
		log.Debug().Str("uri", uri).Msg("No usable validator on response, not caching")
		return result, nil
	}
	entry, err := m.store.Put(uri, body, v)
	if err != nil {
		var metadataErr *store.MetadataError
		if errors.As(err, &metadataErr) {
			log.Warn().Err(err).Str("uri", uri).Msg("Metadata store write failed, response not cached")
			return result, nil
		}
		return nil, fmt.Errorf("write cache body: %w", err)
	}
	log.Debug().
		Str("uri", uri).
		Str("validator", v.Value).
		Str("path", entry.Path).
		Msg("Cache write")
	result.Path = entry.Path
	return result, nil
}

// forward passes a non-2xx, non-304 origin status through untouched. Origin
// failures are never destructive to existing cached data.
func (m *Manager) forward(uri string, res *http.Response) (*Result, error) {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{URI: uri, Err: err}
	}
	log.Debug().Str("uri", uri).Int("status", res.StatusCode).Msg("Passing through origin status")
	return &Result{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
		Outcome:    OutcomeForwarded,
	}, nil
}

// serveStale returns the stored body after a transport failure. Only reached
// when the caller set AllowStale.
func (m *Manager) serveStale(entry store.Entry, cause error) (*Result, error) {
	body, err := m.store.ReadBody(entry.URI)
	if err != nil {
		return nil, &TransportError{URI: entry.URI, Err: cause}
	}
	log.Warn().Err(cause).Str("uri", entry.URI).Msg("Origin unreachable, serving stale cached body")
	return &Result{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       body,
		Outcome:    OutcomeStale,
		Path:       entry.Path,
	}, nil
}

// validatorFrom derives the validator to store from response headers. A
// malformed Last-Modified counts as no validator at all, which forces an
// unconditional fetch next time.
func (m *Manager) validatorFrom(h http.Header) store.Validator {
	if m.useETags {
		if tag := h.Get("ETag"); tag != "" {
			return store.ETag(tag)
		}
	}
	if lm := h.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			return store.LastModified(t)
		}
		log.Debug().Str("last-modified", lm).Msg("Malformed Last-Modified, ignoring")
	}
	return store.Validator{}
}

func hasConditionalHeader(h http.Header) bool {
	for _, name := range []string{"If-Modified-Since", "If-None-Match", "If-Match"} {
		if h.Get(name) != "" {
			return true
		}
	}
	return false
}

// setValidator attaches the conditional header matching the validator kind.
// Entity tags go out as If-None-Match, the conditional-GET header per
// RFC 9111 section 4.3.1 (If-Match is representation selection, not cache
// validation).
func setValidator(h http.Header, v store.Validator) {
	switch v.Kind {
	case store.ValidatorETag:
		h.Set("If-None-Match", v.Value)
	case store.ValidatorLastModified:
		h.Set("If-Modified-Since", v.Value)
	}
}
