package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/core/ports/driving"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncOrchestrator = (*SyncService)(nil)

// historyKeep bounds the persisted pass history.
const historyKeep = 50

// SyncService reconciles the index against all configured content
// sources. At most one pass runs at a time; overlapping triggers are
// no-ops. Documents that fail to process are marked permanently failed
// and skipped on later passes until reset.
type SyncService struct {
	sources   []driven.ContentSource
	processor *Processor
	index     driven.Index
	history   driven.SyncHistoryStore

	inProgress atomic.Bool

	mu         sync.RWMutex
	indexedIDs map[string]struct{}
	failedIDs  map[string]struct{}
}

// NewSyncService creates a sync orchestrator. The history store may be
// nil, in which case pass results are not persisted.
func NewSyncService(
	sources []driven.ContentSource,
	processor *Processor,
	index driven.Index,
	history driven.SyncHistoryStore,
) *SyncService {
	return &SyncService{
		sources:    sources,
		processor:  processor,
		index:      index,
		history:    history,
		indexedIDs: make(map[string]struct{}),
		failedIDs:  make(map[string]struct{}),
	}
}

// Hydrate loads the indexed and failed ID sets from the backend so a
// restart does not re-process everything. Backend errors are logged and
// leave the sets empty; the next pass simply does more work.
func (s *SyncService) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexed, err := s.index.IndexedParentIDs(ctx)
	if err != nil {
		logger.Warn("Could not load indexed document IDs: %v", err)
	} else {
		for id := range indexed {
			s.indexedIDs[id] = struct{}{}
		}
		logger.Info("Loaded %d already-indexed documents", len(s.indexedIDs))
	}

	failed, err := s.index.FailedParentIDs(ctx)
	if err != nil {
		logger.Warn("Could not load failed document IDs: %v", err)
	} else {
		for id := range failed {
			s.failedIDs[id] = struct{}{}
		}
		if len(s.failedIDs) > 0 {
			logger.Info("Loaded %d previously failed documents (will skip)", len(s.failedIDs))
		}
	}
}

// TriggerSync runs one sync pass over every available source. A pass
// already in flight makes the call a logged no-op.
func (s *SyncService) TriggerSync(ctx context.Context) {
	if !s.inProgress.CompareAndSwap(false, true) {
		logger.Info("Sync already in progress")
		return
	}
	defer s.inProgress.Store(false)

	logger.Info("Starting document synchronisation")

	result := domain.PassResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	var passErrors []string

	for _, source := range s.sources {
		if !source.IsAvailable(ctx) {
			logger.Info("Source %s is not available, skipping", source.Label())
			continue
		}

		stats, err := s.syncSource(ctx, source)
		result.Stats.Add(stats)
		if err != nil {
			logger.Error("Error syncing source %s: %v", source.Label(), err)
			passErrors = append(passErrors, fmt.Sprintf("%s: %v", source.Label(), err))
		}
	}

	logger.Info("Sync completed. Total - Processed: %d, Skipped: %d, Failed: %d",
		result.Stats.Processed, result.Stats.Skipped, result.Stats.Failed)

	// Re-query the backend so the reported total is authoritative rather
	// than inferred from the in-memory sets.
	if count, err := s.index.DocumentCount(ctx); err != nil {
		logger.Warn("Could not read indexed document count: %v", err)
	} else {
		result.IndexedTotal = count
		logger.Info("Total chunks indexed: %d", count)
	}

	result.EndedAt = time.Now()
	result.Error = strings.Join(passErrors, "; ")
	s.recordPass(ctx, &result)
}

// syncSource processes every not-yet-seen document from one source.
// Per-document failures are isolated: the document is marked failed and
// the loop continues.
func (s *SyncService) syncSource(ctx context.Context, source driven.ContentSource) (domain.PassStats, error) {
	var stats domain.PassStats

	docs, err := source.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list documents: %w", err)
	}

	s.mu.RLock()
	alreadyDone := 0
	for _, doc := range docs {
		if _, ok := s.indexedIDs[doc.ID]; ok {
			alreadyDone++
		} else if _, ok := s.failedIDs[doc.ID]; ok {
			alreadyDone++
		}
	}
	indexedCount, failedCount := len(s.indexedIDs), len(s.failedIDs)
	s.mu.RUnlock()

	remaining := len(docs) - alreadyDone
	logger.Info("Found %d documents in %s (%d indexed, %d failed, %d remaining to process)",
		len(docs), source.Label(), indexedCount, failedCount, remaining)

	var newlyFailed []string
	markFailed := func(id string) {
		s.mu.Lock()
		s.failedIDs[id] = struct{}{}
		s.mu.Unlock()
		newlyFailed = append(newlyFailed, id)
		stats.Failed++
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		s.mu.RLock()
		_, indexed := s.indexedIDs[doc.ID]
		_, failed := s.failedIDs[doc.ID]
		s.mu.RUnlock()
		if indexed || failed {
			stats.Skipped++
			continue
		}

		var content []byte
		if !doc.HasInlineContent() {
			content, err = source.Fetch(ctx, doc.ID, doc.ContentType)
			if err != nil {
				logger.Error("Error fetching %s: %v", doc.Name, err)
				markFailed(doc.ID)
				continue
			}
		}

		if len(content) == 0 && !doc.HasInlineContent() {
			logger.Warn("Empty content for %s, marking as failed", doc.Name)
			markFailed(doc.ID)
			continue
		}

		chunks, err := s.processor.Process(ctx, source.Label(), doc, content)
		if err != nil {
			logger.Error("Error processing %s: %v", doc.Name, err)
			markFailed(doc.ID)
			continue
		}

		if err := s.index.AddChunks(ctx, chunks); err != nil {
			logger.Error("Error indexing %s: %v", doc.Name, err)
			markFailed(doc.ID)
			continue
		}

		s.mu.Lock()
		s.indexedIDs[doc.ID] = struct{}{}
		s.mu.Unlock()
		stats.Processed++

		progress := 100
		if remaining > 0 {
			progress = stats.Processed * 100 / remaining
		}
		logger.Info("Processed (%s): %s (%d/%d remaining, %d%%)",
			source.Label(), doc.Name, stats.Processed, remaining, progress)
	}

	// Persist failures so they stay skipped across restarts. Marker
	// write errors only cost a retry after the next restart.
	if len(newlyFailed) > 0 {
		if err := s.index.MarkFailed(ctx, newlyFailed); err != nil {
			logger.Warn("Could not persist %d failed document IDs: %v", len(newlyFailed), err)
		} else {
			logger.Info("Saved %d newly failed document IDs", len(newlyFailed))
		}
	}

	logger.Info("%s sync: Processed: %d, Skipped: %d, Failed: %d",
		source.Label(), stats.Processed, stats.Skipped, stats.Failed)
	return stats, nil
}

// ForceFullResync wipes the backend and both ID sets, then runs a
// normal pass that re-processes everything.
func (s *SyncService) ForceFullResync(ctx context.Context) {
	logger.Info("Starting full re-sync")

	s.mu.Lock()
	s.indexedIDs = make(map[string]struct{})
	s.failedIDs = make(map[string]struct{})
	s.mu.Unlock()

	if err := s.index.ClearAll(ctx); err != nil {
		logger.Error("Error clearing index: %v", err)
	}

	s.TriggerSync(ctx)
}

// ResetFailedDocuments clears the failed set in memory and its
// persisted markers so the next pass retries those documents.
func (s *SyncService) ResetFailedDocuments(ctx context.Context) {
	s.mu.Lock()
	count := len(s.failedIDs)
	s.failedIDs = make(map[string]struct{})
	s.mu.Unlock()

	logger.Info("Resetting %d failed documents for retry", count)

	if err := s.index.ClearFailedMarkers(ctx); err != nil {
		logger.Warn("Could not clear failed document markers: %v", err)
	}

	logger.Info("Failed documents reset. They will be retried on next sync")
}

// Status returns the current sync state. Safe to call while a pass is
// running.
func (s *SyncService) Status(_ context.Context) domain.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.SyncStatus{
		InProgress:   s.inProgress.Load(),
		IndexedCount: len(s.indexedIDs),
		FailedCount:  len(s.failedIDs),
	}
}

// recordPass persists a completed pass. History is advisory; store
// errors never fail a pass.
func (s *SyncService) recordPass(ctx context.Context, result *domain.PassResult) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordPass(ctx, result); err != nil {
		logger.Warn("Could not record sync pass: %v", err)
		return
	}
	if err := s.history.PruneHistory(ctx, historyKeep); err != nil {
		logger.Warn("Could not prune sync history: %v", err)
	}
}
