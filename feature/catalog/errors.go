package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID is returned when an id repeats and the policy forbids it.
	ErrDuplicateID = errors.New("duplicate content id")
	// ErrNoRoot is returned for documents without a root element.
	ErrNoRoot = errors.New("document has no root element")
	// ErrUnsupportedCharset is returned for a declared encoding that cannot be decoded.
	ErrUnsupportedCharset = errors.New("unsupported catalog encoding")
	// ErrStaleRevert is returned when a revert does not match the loaded catalog.
	ErrStaleRevert = errors.New("revert does not match catalog entry")
)

// ParseError reports a catalog that could not be read. It is fatal to a run.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse catalog %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
