package domain

import (
	"math"
	"strings"
	"time"
)

// PhraseTier describes a phrase-match boost window. Shorter windows get
// higher boosts and tighter slop; longer windows decay in both.
type PhraseTier struct {
	// Words is the phrase window length (1, 2 or 3).
	Words int

	// TitleBoost is the multiplicative weight for a phrase match in the
	// title field.
	TitleBoost float64

	// BodyBoost is the multiplicative weight for a phrase match in the
	// body field.
	BodyBoost float64

	// Slop is the positional tolerance for the phrase match.
	Slop int
}

// SearchRequest is a ranked-retrieval query built by the query engine
// and executed by the index adapter.
type SearchRequest struct {
	// Query is the preprocessed query text.
	Query string

	// Limit is the maximum number of results to return.
	Limit int

	// TitleBoost weights matches in the document-name field.
	TitleBoost float64

	// BodyBoost weights matches in the chunk-body field.
	BodyBoost float64

	// PhraseTiers are the 1/2/3-word phrase boost windows. Empty for
	// name-lookup queries.
	PhraseTiers []PhraseTier

	// TieBreaker lets secondary field scores still contribute when the
	// top field matches (0..1).
	TieBreaker float64

	// MinShouldMatch is the fraction of significant query terms a
	// candidate must contain (0 disables the threshold).
	MinShouldMatch float64

	// Highlight enables snippet generation on the body field.
	Highlight bool
}

// TermCount returns the number of whitespace-separated terms in the query.
func (r SearchRequest) TermCount() int {
	return len(strings.Fields(r.Query))
}

// MinMatchTerms converts the MinShouldMatch fraction into an absolute
// term count for the request's query, rounding up and never below one.
func (r SearchRequest) MinMatchTerms() int {
	n := r.TermCount()
	if n == 0 || r.MinShouldMatch <= 0 {
		return 0
	}
	min := int(math.Ceil(float64(n) * r.MinShouldMatch))
	if min < 1 {
		min = 1
	}
	if min > n {
		min = n
	}
	return min
}

// SearchResponse is the ranked result set returned by the index adapter.
type SearchResponse struct {
	// Chunks are the retrieved chunks in descending score order.
	Chunks []RetrievedChunk

	// TotalFound is the backend's total hit count before the limit.
	TotalFound uint64

	// Took is the backend-reported query time.
	Took time.Duration
}

// SyncStatus is the orchestrator's externally visible state.
type SyncStatus struct {
	// InProgress reports whether a pass is currently running.
	InProgress bool

	// IndexedCount is the number of documents known to be indexed.
	IndexedCount int

	// FailedCount is the number of documents marked permanently failed.
	FailedCount int
}

// PassStats accumulates counters for one sync pass.
type PassStats struct {
	// Processed is the number of documents freshly chunked and indexed.
	Processed int

	// Skipped is the number of documents already indexed or failed.
	Skipped int

	// Failed is the number of documents newly marked failed.
	Failed int
}

// Add accumulates another source's counters into the pass total.
func (s *PassStats) Add(other PassStats) {
	s.Processed += other.Processed
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// PassResult records one completed sync pass for history storage.
type PassResult struct {
	// ID uniquely identifies the pass.
	ID string

	// StartedAt is when the pass began.
	StartedAt time.Time

	// EndedAt is when the pass finished.
	EndedAt time.Time

	// Stats are the accumulated counters for the pass.
	Stats PassStats

	// IndexedTotal is the authoritative backend document count re-queried
	// at the end of the pass.
	IndexedTotal int

	// Error is the pass-level failure message, empty on success.
	Error string
}
