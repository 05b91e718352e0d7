package core

import "fmt"

// TransportError reports that the origin could not be reached or its response
// could not be read. The cache is never mutated on a TransportError.
type TransportError struct {
	URI string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
