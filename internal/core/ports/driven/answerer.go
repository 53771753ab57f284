package driven

import (
	"context"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

// AnswerGenerator turns a question and retrieved chunks into prose.
type AnswerGenerator interface {
	// AnswerWithContext generates an answer grounded in the given chunks.
	AnswerWithContext(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)

	// AnswerGeneral generates a context-free answer when retrieval
	// returned nothing.
	AnswerGeneral(ctx context.Context, question string) (string, error)

	// IsAvailable reports whether the generator is configured.
	IsAvailable(ctx context.Context) bool
}
