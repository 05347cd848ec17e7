package afk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/shizuku-bot/internal/model"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	since := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	require.NoError(t, repo.Set(ctx, &model.AFKRecord{UserID: 42, Since: since, Reason: "lunch"}))

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
	assert.True(t, since.Equal(got.Since), "expected %v, got %v", since, got.Since)
	assert.Equal(t, "lunch", got.Reason)
	assert.Zero(t, got.MsgCount)
	assert.Zero(t, got.StickerCount)

	removed, err := repo.Remove(ctx, 42)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	removed, err = repo.Remove(ctx, 42)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSQLiteRepository_GetUnknownUser(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.Get(context.Background(), 7)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteRepository_SetReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Set(ctx, &model.AFKRecord{UserID: 1, Since: time.Now(), Reason: "first"}))
	require.NoError(t, repo.IncrementCount(ctx, 1, false))
	require.NoError(t, repo.Set(ctx, &model.AFKRecord{UserID: 1, Since: time.Now(), Reason: ""}))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Reason)
	assert.Zero(t, got.MsgCount, "a new AFK period starts with fresh counters")
}

func TestSQLiteRepository_IncrementCount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.Set(ctx, &model.AFKRecord{UserID: 5, Since: time.Now()}))

	require.NoError(t, repo.IncrementCount(ctx, 5, false))
	require.NoError(t, repo.IncrementCount(ctx, 5, false))
	require.NoError(t, repo.IncrementCount(ctx, 5, true))
	// unknown users are ignored
	require.NoError(t, repo.IncrementCount(ctx, 6, true))

	got, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.MsgCount)
	assert.Equal(t, 1, got.StickerCount)
}
