package driven

import (
	"context"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

// ContentSource yields documents from one external content store.
// Two or more sources may be active simultaneously; the sync
// orchestrator treats them uniformly.
type ContentSource interface {
	// Label returns the source label stamped on produced chunks
	// (e.g. domain.SourceLabelDrive).
	Label() string

	// List returns a flat listing of all documents in the source.
	List(ctx context.Context) ([]domain.SourceDocument, error)

	// Fetch downloads the raw bytes for one document. Sources that
	// deliver inline content may return nil.
	Fetch(ctx context.Context, id, contentType string) ([]byte, error)

	// IsAvailable reports whether the source is configured and reachable.
	IsAvailable(ctx context.Context) bool
}
