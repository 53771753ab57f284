package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func passAt(id string, started time.Time) *domain.PassResult {
	return &domain.PassResult{
		ID:        id,
		StartedAt: started,
		EndedAt:   started.Add(time.Minute),
		Stats: domain.PassStats{
			Processed: 5,
			Skipped:   2,
			Failed:    1,
		},
		IndexedTotal: 42,
	}
}

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordPass(ctx, passAt("pass-1", base)))
	require.NoError(t, store.RecordPass(ctx, passAt("pass-2", base.Add(time.Hour))))
	require.NoError(t, store.RecordPass(ctx, &domain.PassResult{
		ID:        "pass-3",
		StartedAt: base.Add(2 * time.Hour),
		EndedAt:   base.Add(2*time.Hour + time.Minute),
		Error:     "drive listing failed",
	}))

	results, err := store.RecentPasses(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "pass-3", results[0].ID)
	assert.Equal(t, "pass-2", results[1].ID)
	assert.Equal(t, "drive listing failed", results[0].Error)

	second := results[1]
	assert.Equal(t, 5, second.Stats.Processed)
	assert.Equal(t, 2, second.Stats.Skipped)
	assert.Equal(t, 1, second.Stats.Failed)
	assert.Equal(t, 42, second.IndexedTotal)
	assert.True(t, second.StartedAt.Equal(base.Add(time.Hour)))
	assert.True(t, second.EndedAt.Equal(base.Add(time.Hour+time.Minute)))
}

func TestStore_RecentPassesEmpty(t *testing.T) {
	store := openTestStore(t)

	results, err := store.RecentPasses(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_PruneHistory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"pass-1", "pass-2", "pass-3", "pass-4"} {
		require.NoError(t, store.RecordPass(ctx, passAt(id, base.Add(time.Duration(i)*time.Hour))))
	}

	require.NoError(t, store.PruneHistory(ctx, 2))

	results, err := store.RecentPasses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "pass-4", results[0].ID)
	assert.Equal(t, "pass-3", results[1].ID)
}

func TestStore_ReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.RecordPass(ctx, passAt("pass-1", time.Now().UTC())))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.RecentPasses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pass-1", results[0].ID)
}
