package driven

import "context"

// Extractor converts raw document bytes of one family of formats into
// plain text. Extractors own their signature-mismatch fallbacks (a
// legacy-format extractor retries the modern container before giving up).
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// SupportedContentTypes returns the MIME types this extractor handles.
	SupportedContentTypes() []string

	// Extract returns the plain text content of the document.
	Extract(ctx context.Context, content []byte) (string, error)
}

// ExtractorRegistry dispatches raw bytes to the extractor registered for
// a content type, sniffing the filename extension when the declared type
// is absent or unrecognised.
type ExtractorRegistry interface {
	// Register adds an extractor for its supported content types.
	Register(e Extractor)

	// Extract selects an extractor for the document and runs it.
	// Returns domain.ErrUnsupportedFormat when no extractor matches.
	Extract(ctx context.Context, contentType, name string, content []byte) (string, error)
}
