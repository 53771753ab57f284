package driving

import (
	"context"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

// SyncOrchestrator reconciles the index against all configured sources.
type SyncOrchestrator interface {
	// TriggerSync runs one sync pass. A pass already in flight makes the
	// call a logged no-op, not an error.
	TriggerSync(ctx context.Context)

	// ForceFullResync clears the indexed and failed sets, wipes the
	// backend, then runs a normal pass.
	ForceFullResync(ctx context.Context)

	// ResetFailedDocuments clears the failed set in memory and in
	// persisted markers so the next pass retries those documents.
	ResetFailedDocuments(ctx context.Context)

	// Status returns the current sync state. Safe to call while a pass
	// is running.
	Status(ctx context.Context) domain.SyncStatus
}

// QueryEngine answers natural-language questions against the index.
type QueryEngine interface {
	// Answer produces a best-effort text answer. It never propagates an
	// error to the caller; pipeline failures degrade to explicit error
	// text or context-free answers.
	Answer(ctx context.Context, question string) string
}
