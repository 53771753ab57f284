package extractors

import (
	"context"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps content types to extractors. Selection order: the
// declared content type, then a type sniffed from the filename
// extension when the declared type is absent or unrecognised.
type Registry struct {
	byType map[string]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[string]driven.Extractor),
	}
}

// Register adds an extractor for every content type it supports.
func (r *Registry) Register(e driven.Extractor) {
	for _, ct := range e.SupportedContentTypes() {
		r.byType[ct] = e
	}
}

// Extract dispatches the document to the matching extractor.
func (r *Registry) Extract(ctx context.Context, contentType, name string, content []byte) (string, error) {
	if e, ok := r.byType[contentType]; ok {
		return e.Extract(ctx, content)
	}

	sniffed := domain.SniffContentType(name)
	if e, ok := r.byType[sniffed]; ok {
		logger.Debug("Content type %q unrecognised for %s, sniffed %q from extension", contentType, name, sniffed)
		return e.Extract(ctx, content)
	}

	logger.Warn("Unsupported content type %q for %s", contentType, name)
	return "", domain.ErrUnsupportedFormat
}

// SupportedContentTypes returns all registered content types.
func (r *Registry) SupportedContentTypes() []string {
	types := make([]string, 0, len(r.byType))
	for ct := range r.byType {
		types = append(types, ct)
	}
	return types
}
