package driven

import (
	"context"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

// SyncHistoryStore persists completed sync pass results for status
// reporting. History is advisory; store errors never fail a pass.
type SyncHistoryStore interface {
	// RecordPass appends one completed pass result.
	RecordPass(ctx context.Context, result *domain.PassResult) error

	// RecentPasses returns up to limit results, newest first.
	RecentPasses(ctx context.Context, limit int) ([]domain.PassResult, error)

	// PruneHistory deletes all but the newest keep results.
	PruneHistory(ctx context.Context, keep int) error

	// Close releases store resources.
	Close() error
}
