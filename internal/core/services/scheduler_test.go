package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driving"
)

// countingOrchestrator counts trigger calls.
type countingOrchestrator struct {
	mu       sync.Mutex
	triggers int
	block    chan struct{} // when set, TriggerSync blocks until closed
}

var _ driving.SyncOrchestrator = (*countingOrchestrator)(nil)

func (o *countingOrchestrator) TriggerSync(_ context.Context) {
	o.mu.Lock()
	o.triggers++
	o.mu.Unlock()
	if o.block != nil {
		<-o.block
	}
}

func (o *countingOrchestrator) ForceFullResync(_ context.Context)     {}
func (o *countingOrchestrator) ResetFailedDocuments(_ context.Context) {}
func (o *countingOrchestrator) Status(_ context.Context) domain.SyncStatus {
	return domain.SyncStatus{}
}

func (o *countingOrchestrator) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.triggers
}

func TestScheduler_DisabledIsNoOp(t *testing.T) {
	orch := &countingOrchestrator{}
	s := NewScheduler(domain.SyncSettings{Enabled: false, Interval: time.Millisecond}, orch)

	err := s.Start(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, orch.count())
}

func TestScheduler_RunsInitialPassAndTicks(t *testing.T) {
	orch := &countingOrchestrator{}
	s := NewScheduler(domain.SyncSettings{Enabled: true, Interval: 10 * time.Millisecond}, orch)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	// Enough time for the initial pass plus at least one tick.
	assert.Eventually(t, func() bool { return orch.count() >= 2 }, time.Second, 5*time.Millisecond)

	assert.NoError(t, s.Stop())
	assert.NoError(t, <-done)
}

func TestScheduler_StopWaitsForInitialPass(t *testing.T) {
	orch := &countingOrchestrator{block: make(chan struct{})}
	s := NewScheduler(domain.SyncSettings{Enabled: true, Interval: time.Hour}, orch)

	go func() { _ = s.Start(context.Background()) }()

	assert.Eventually(t, func() bool { return orch.count() == 1 }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		_ = s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the initial pass was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(orch.block)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the pass finished")
	}
}

func TestScheduler_ContextCancellationStopsLoop(t *testing.T) {
	orch := &countingOrchestrator{}
	s := NewScheduler(domain.SyncSettings{Enabled: true, Interval: time.Hour}, orch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return orch.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
