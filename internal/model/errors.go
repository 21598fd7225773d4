package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes across the pipeline.
var (
	ErrTimeout       = errors.New("operation timed out")
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrBlocked       = errors.New("blocked by robots.txt")
	ErrMaxDepth      = errors.New("max crawl depth exceeded")
	ErrDuplicate     = errors.New("duplicate content")
	ErrEmptyResponse = errors.New("empty response body")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrTaskStopped   = errors.New("crawl task has been stopped")
	ErrNoFetcher     = errors.New("no fetcher available for requested proxy mode")
	ErrModeExhausted = errors.New("all proxy modes exhausted for host")
	ErrSessionLocked = errors.New("session is being mutated by another writer")
	ErrUnknownFormat = errors.New("unrecognized document format")
)

// TransientFetchError wraps a fetch failure worth retrying, either at the
// same proxy mode or at the next escalation tier.
type TransientFetchError struct {
	URL        string
	StatusCode int
	Mode       ProxyMode
	Err        error
	RetryAfter time.Duration
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error for %s via %s (status %d): %v", e.URL, e.Mode, e.StatusCode, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// PermanentFetchError wraps a fetch failure that will not succeed on retry.
type PermanentFetchError struct {
	URL  string
	Mode ProxyMode
	Err  error
}

func (e *PermanentFetchError) Error() string {
	return fmt.Sprintf("permanent fetch error for %s via %s: %v", e.URL, e.Mode, e.Err)
}

func (e *PermanentFetchError) Unwrap() error { return e.Err }

// ExtractionError wraps a failure in the text-extraction tier chain.
type ExtractionError struct {
	DocumentID string
	Format     ContentType
	Tier       string
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error for %s (format=%s, tier=%s): %v", e.DocumentID, e.Format, e.Tier, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ObjectStoreError wraps a blob store backend failure.
type ObjectStoreError struct {
	Key string
	Op  string
	Err error
}

func (e *ObjectStoreError) Error() string {
	return fmt.Sprintf("object store error during %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ObjectStoreError) Unwrap() error { return e.Err }

// VectorStoreError wraps a vector index backend failure.
type VectorStoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store error (%s) during %s: %v", e.Backend, e.Op, e.Err)
}

func (e *VectorStoreError) Unwrap() error { return e.Err }

// LLMError wraps a completion-endpoint failure.
type LLMError struct {
	Provider string
	Err      error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm error (%s): %v", e.Provider, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }
