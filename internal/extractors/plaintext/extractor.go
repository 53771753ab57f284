// Package plaintext extracts text from plain text and CSV documents.
package plaintext

import (
	"context"
	"fmt"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text, CSV and wiki page content.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// SupportedContentTypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedContentTypes() []string {
	return []string{
		domain.ContentTypeText,
		domain.ContentTypeCSV,
		domain.ContentTypeWiki,
	}
}

// Extract decodes the bytes as text. Binary payloads misdeclared as
// text fail the printability heuristic and are rejected.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", domain.ErrEmptyContent
	}

	if !extractors.IsPrintableText(content) {
		return "", fmt.Errorf("%w: payload is not printable text", domain.ErrUnsupportedFormat)
	}

	return string(content), nil
}
