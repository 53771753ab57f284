package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

type mockOrchestrator struct {
	triggered bool
	resynced  bool
	reset     bool
	status    domain.SyncStatus
}

func (m *mockOrchestrator) TriggerSync(_ context.Context)         { m.triggered = true }
func (m *mockOrchestrator) ForceFullResync(_ context.Context)     { m.resynced = true }
func (m *mockOrchestrator) ResetFailedDocuments(_ context.Context) { m.reset = true }
func (m *mockOrchestrator) Status(_ context.Context) domain.SyncStatus {
	return m.status
}

type mockQuery struct {
	lastQuestion string
}

func (m *mockQuery) Answer(_ context.Context, question string) string {
	m.lastQuestion = question
	return "the answer"
}

type mockHistory struct {
	passes []domain.PassResult
	err    error
}

func (m *mockHistory) RecordPass(_ context.Context, _ *domain.PassResult) error { return nil }
func (m *mockHistory) RecentPasses(_ context.Context, _ int) ([]domain.PassResult, error) {
	return m.passes, m.err
}
func (m *mockHistory) PruneHistory(_ context.Context, _ int) error { return nil }
func (m *mockHistory) Close() error                                { return nil }

// execute runs the root command with swapped-in services and returns
// the combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func swapServices(t *testing.T, orch *mockOrchestrator, query *mockQuery, history *mockHistory) {
	t.Helper()

	oldSync, oldQuery, oldHistory := syncOrchestrator, queryEngine, syncHistory
	t.Cleanup(func() {
		syncOrchestrator, queryEngine, syncHistory = oldSync, oldQuery, oldHistory
	})

	syncOrchestrator = orch
	queryEngine = query
	syncHistory = history
}

func TestSyncCommand(t *testing.T) {
	orch := &mockOrchestrator{status: domain.SyncStatus{IndexedCount: 12, FailedCount: 2}}
	swapServices(t, orch, &mockQuery{}, nil)

	out, err := execute(t, "sync")
	require.NoError(t, err)

	assert.True(t, orch.triggered)
	assert.Contains(t, out, "12 documents indexed")
	assert.Contains(t, out, "2 marked failed")
}

func TestSyncCommand_NotConfigured(t *testing.T) {
	swapServices(t, nil, nil, nil)
	syncOrchestrator = nil

	_, err := execute(t, "sync")
	assert.Error(t, err)
}

func TestAskCommand(t *testing.T) {
	query := &mockQuery{}
	swapServices(t, &mockOrchestrator{}, query, nil)

	out, err := execute(t, "ask", "what", "is", "the", "leave", "policy")
	require.NoError(t, err)

	assert.Equal(t, "what is the leave policy", query.lastQuestion)
	assert.Contains(t, out, "the answer")
}

func TestAskCommand_RequiresQuestion(t *testing.T) {
	swapServices(t, &mockOrchestrator{}, &mockQuery{}, nil)

	_, err := execute(t, "ask")
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	orch := &mockOrchestrator{status: domain.SyncStatus{InProgress: true, IndexedCount: 7, FailedCount: 1}}
	history := &mockHistory{passes: []domain.PassResult{
		{
			ID:        "pass-1",
			StartedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			Stats:     domain.PassStats{Processed: 5, Skipped: 1, Failed: 1},
			Error:     "drive listing failed",
		},
	}}
	swapServices(t, orch, &mockQuery{}, history)

	out, err := execute(t, "status")
	require.NoError(t, err)

	assert.Contains(t, out, "Sync in progress: true")
	assert.Contains(t, out, "Documents indexed: 7")
	assert.Contains(t, out, "processed=5")
	assert.Contains(t, out, "error=drive listing failed")
}

func TestStatusCommand_EmptyHistory(t *testing.T) {
	swapServices(t, &mockOrchestrator{}, &mockQuery{}, &mockHistory{})

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No sync passes recorded yet")
}

func TestStatusCommand_HistoryErrorIsAdvisory(t *testing.T) {
	history := &mockHistory{err: errors.New("db locked")}
	swapServices(t, &mockOrchestrator{}, &mockQuery{}, history)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "db locked")
}

func TestResyncCommand(t *testing.T) {
	orch := &mockOrchestrator{}
	swapServices(t, orch, &mockQuery{}, nil)

	_, err := execute(t, "resync")
	require.NoError(t, err)
	assert.True(t, orch.resynced)
}

func TestResetFailedCommand(t *testing.T) {
	orch := &mockOrchestrator{}
	swapServices(t, orch, &mockQuery{}, nil)

	out, err := execute(t, "reset-failed")
	require.NoError(t, err)
	assert.True(t, orch.reset)
	assert.Contains(t, out, "Failure markers cleared")
}

func TestVersionCommand(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })
	SetVersion("1.2.3")

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "infobot version 1.2.3")
}
