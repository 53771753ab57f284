package domain

import "fmt"

// SourceDocument represents one document as listed by a content source.
// It is immutable once listed; a later listing may carry a newer
// ModifiedAt for the same ID.
type SourceDocument struct {
	// ID is the stable identifier within the producing source.
	ID string

	// Name is the human-readable document name (filename or page title).
	Name string

	// ContentType is the declared MIME type (e.g. "application/pdf").
	// May be empty for sources that do not report one.
	ContentType string

	// ViewURL is the browser link to the document.
	ViewURL string

	// ModifiedAt is the source-side modification timestamp (RFC 3339).
	ModifiedAt string

	// CreatedAt is the source-side creation timestamp (RFC 3339).
	CreatedAt string

	// InlineContent carries the document text for sources that deliver it
	// with the listing (wiki pages). Empty for sources requiring a fetch.
	InlineContent string
}

// HasInlineContent reports whether the document text arrived with the
// listing, making a separate fetch unnecessary.
func (d SourceDocument) HasInlineContent() bool {
	return d.InlineContent != ""
}

// Chunk is a bounded, overlapping slice of a document's cleaned text.
// It is the atomic unit stored and retrieved by the index. Chunks are
// never mutated after creation, only deleted wholesale with their parent.
type Chunk struct {
	// ParentID is the SourceDocument.ID this chunk was cut from.
	ParentID string

	// Sequence is the 0-based position within the parent.
	Sequence int

	// Text is the cleaned, name-prefixed chunk content.
	Text string

	// ParentName is the parent document's name, indexed as the title field.
	ParentName string

	// SourceLabel identifies the connector that produced the parent
	// (e.g. "google_drive", "confluence").
	SourceLabel string

	// ContentType is the parent's MIME type.
	ContentType string

	// ViewURL is the parent's browser link.
	ViewURL string

	// ModifiedAt is the parent's modification timestamp.
	ModifiedAt string

	// CreatedAt is the parent's creation timestamp.
	CreatedAt string
}

// IndexID returns the chunk's identity in the index: parent ID joined
// with the sequence number.
func (c Chunk) IndexID() string {
	return fmt.Sprintf("%s_%d", c.ParentID, c.Sequence)
}

// RetrievedChunk is a Chunk plus retrieval metadata. It is produced
// transiently per question and never persisted.
type RetrievedChunk struct {
	Chunk

	// Score is the non-negative relevance score assigned by the index.
	Score float64

	// Highlights contains snippets with matched terms, when the backend
	// provides them.
	Highlights []string
}
