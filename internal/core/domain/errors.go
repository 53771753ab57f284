package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync pass is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrUnsupportedFormat indicates no extractor can handle a document's
	// content type. This is a classification outcome, not a transient error.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyContent indicates a fetched document carried no bytes.
	ErrEmptyContent = errors.New("empty content")

	// ErrNoChunks indicates extraction succeeded but the cleaned text was
	// too short to produce a single chunk.
	ErrNoChunks = errors.New("no chunks produced")

	// ErrSourceUnavailable indicates a content source cannot be reached
	// or is not configured.
	ErrSourceUnavailable = errors.New("content source unavailable")

	// ErrIndexUnavailable indicates the search index backend is not
	// reachable. Sync and retrieval are disabled without it.
	ErrIndexUnavailable = errors.New("search index unavailable")

	// ErrAnswererUnavailable indicates the answer generator is not
	// configured. Questions degrade to retrieval-only responses.
	ErrAnswererUnavailable = errors.New("answer generator unavailable")
)
