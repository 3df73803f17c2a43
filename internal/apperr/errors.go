package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrUnaddressable marks a content file whose path has no canonical address.
	ErrUnaddressable = errors.New("path has no canonical address")
	// ErrDuplicateKey marks two source files resolving to the same output key.
	ErrDuplicateKey = errors.New("duplicate output key")
	// ErrStoreUnavailable marks a lost or unusable document store connection.
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrSummarizer       = errors.New("summarizer failed")
)
