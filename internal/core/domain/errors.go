package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector search and enriched upserts are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the search index service is not configured.
	ErrSearchUnavailable = errors.New("search index unavailable")

	// ErrIndexNotFound indicates the target index does not exist and
	// creation was not permitted.
	ErrIndexNotFound = errors.New("search index not found")

	// ErrVectorFieldUnsupported indicates embeddings were requested but the
	// live schema declares no vector field to hold them.
	ErrVectorFieldUnsupported = errors.New("index schema has no vector field")

	// ErrStaleVector indicates a content update against a vector-bearing
	// schema with no way to recompute the vector in the same write.
	ErrStaleVector = errors.New("content update requires a fresh embedding")

	// ErrLedgerUnavailable indicates the local key ledger is disabled.
	ErrLedgerUnavailable = errors.New("key ledger unavailable")
)

// ConfigError reports a missing or malformed configuration value.
// It is fatal and never retried.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// AvailabilityError reports that the index service could not be used for
// the current operation. The caller may retry the whole operation later.
type AvailabilityError struct {
	// Op names the operation that gave up.
	Op string

	// StatusCode is the last status seen, zero if no response arrived.
	StatusCode int

	// Body is the last response body, kept for diagnostics.
	Body string

	// Err is the underlying cause.
	Err error
}

func (e *AvailabilityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: search index unavailable", e.Op)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (last status %d)", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *AvailabilityError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx reply from an external service.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 replies.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// DimensionMismatchError reports an embedding whose length differs from
// the configured dimension. Index is the position within the submitted batch.
type DimensionMismatchError struct {
	Index int
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch at batch index %d: got %d, want %d",
		e.Index, e.Got, e.Want)
}

// BatchWriteError reports documents the index refused inside an otherwise
// accepted batch. Some documents may have been written; resubmitting the
// same batch is safe because writes merge by key.
type BatchWriteError struct {
	StatusCode int
	Failed     []WriteStatus
}

func (e *BatchWriteError) Error() string {
	keys := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		keys = append(keys, fmt.Sprintf("%s (%d: %s)", f.Key, f.StatusCode, f.ErrorMessage))
	}
	return fmt.Sprintf("batch write partially failed with status %d: %d document(s) rejected: %s",
		e.StatusCode, len(e.Failed), strings.Join(keys, "; "))
}
