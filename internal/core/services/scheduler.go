package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driving"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Scheduler drives the sync orchestrator on a fixed interval. The first
// pass runs asynchronously at startup so the service is responsive
// while the initial index builds. Ticks that arrive while a pass is
// still running are dropped, not queued; the orchestrator's in-flight
// guard makes the overlapping trigger a no-op.
type Scheduler struct {
	settings domain.SyncSettings
	orch     driving.SyncOrchestrator

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a sync scheduler.
func NewScheduler(settings domain.SyncSettings, orch driving.SyncOrchestrator) *Scheduler {
	return &Scheduler{
		settings: settings,
		orch:     orch,
	}
}

// Start begins the scheduler loop and blocks until Stop is called or
// the context is cancelled. Returns immediately when sync is disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.settings.Enabled {
		logger.Info("Document sync is disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	logger.Info("Sync scheduler started (interval: %s)", s.settings.Interval)

	// Initial pass in the background.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.Info("Starting initial sync")
		s.orch.TriggerSync(ctx)
	}()

	ticker := time.NewTicker(s.settings.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.orch.TriggerSync(ctx)
		}
	}
}

// Stop shuts the scheduler down and waits for the in-flight pass.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
