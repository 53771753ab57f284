package driven

import (
	"context"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

// Index is the capability contract over the search/indexing backend.
// Failure markers live in the same backend as ordinary records carrying
// the domain.SourceLabelFailedMarker sentinel, which doubles as
// crash-recoverable state without a separate store.
type Index interface {
	// AddChunks stores the chunks and commits.
	AddChunks(ctx context.Context, chunks []domain.Chunk) error

	// Query executes a ranked-retrieval request.
	Query(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)

	// DeleteByParent removes all chunks belonging to a parent document.
	DeleteByParent(ctx context.Context, parentID string) error

	// ClearAll wipes every record, markers included.
	ClearAll(ctx context.Context) error

	// IndexedParentIDs enumerates the parent IDs of stored chunks,
	// excluding failure markers.
	IndexedParentIDs(ctx context.Context) (map[string]struct{}, error)

	// MarkFailed persists permanent failure markers for the given
	// parent IDs.
	MarkFailed(ctx context.Context, parentIDs []string) error

	// FailedParentIDs enumerates the parent IDs carried by failure
	// markers.
	FailedParentIDs(ctx context.Context) (map[string]struct{}, error)

	// ClearFailedMarkers deletes every failure marker.
	ClearFailedMarkers(ctx context.Context) error

	// DocumentCount returns the number of stored chunk records,
	// excluding failure markers.
	DocumentCount(ctx context.Context) (int, error)

	// HealthCheck reports whether the backend answers queries.
	HealthCheck(ctx context.Context) bool

	// Close releases backend resources.
	Close() error
}
