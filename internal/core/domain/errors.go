package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotConnected indicates an operation was attempted on a
	// connector without a live handle, or the backing service could
	// not be reached. It aborts the calling stage and is not retried.
	ErrNotConnected = errors.New("not connected")

	// ErrUnsupportedType indicates an unknown connector, extractor,
	// transformer or backend type name. Fatal.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMissingConfig indicates a required configuration key or
	// section is absent or invalid. Fatal.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrNotFound indicates a requested entity or intermediate file
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRecordFailed indicates a single record could not be written
	// after exhausting retries. Recorded, never aborts sibling work.
	ErrRecordFailed = errors.New("record ingest failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Vector generation and semantic search are disabled.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
