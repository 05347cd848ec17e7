package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/shizuku-bot/internal/model"
)

func newSession(id string) *model.Session {
	return model.NewSession(id, "https://youtu.be/"+id, 1)
}

func TestRegistry_InsertAndLookup(t *testing.T) {
	r := NewRegistry(time.Minute)

	require.NoError(t, r.Insert(newSession("abcd1234")))

	got, err := r.Lookup("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abcd1234", got.SourceURL)
	assert.Equal(t, model.StageAwaitingType, got.Stage)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_InsertRejectsDuplicatesAndEmptyIDs(t *testing.T) {
	r := NewRegistry(time.Minute)

	require.NoError(t, r.Insert(newSession("abcd1234")))
	assert.ErrorIs(t, r.Insert(newSession("abcd1234")), ErrDuplicate)
	assert.Error(t, r.Insert(newSession("")))
}

func TestRegistry_LookupNotFound(t *testing.T) {
	r := NewRegistry(time.Minute)

	_, err := r.Lookup("missing1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_LookupReturnsCopy(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	got, err := r.Lookup("abcd1234")
	require.NoError(t, err)
	got.Stage = model.StageDone
	got.MediaKind = model.MediaAudio

	again, err := r.Lookup("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, model.StageAwaitingType, again.Stage)
	assert.Empty(t, again.MediaKind)
}

func TestRegistry_Advance(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	got, err := r.Advance("abcd1234", model.StageAwaitingType, func(s *model.Session) {
		s.MediaKind = model.MediaVideo
	})
	require.NoError(t, err)
	assert.Equal(t, model.StageAwaitingFormat, got.Stage)
	assert.Equal(t, model.MediaVideo, got.MediaKind)

	stored, err := r.Lookup("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestRegistry_AdvanceStageMismatchLeavesSessionUntouched(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	_, err := r.Advance("abcd1234", model.StageAwaitingFormat, func(s *model.Session) {
		s.Container = "mp4"
	})
	assert.ErrorIs(t, err, ErrStageMismatch)

	stored, err := r.Lookup("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, model.StageAwaitingType, stored.Stage)
	assert.Empty(t, stored.Container)
}

func TestRegistry_AdvanceCannotRewriteIdentityOrStage(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	got, err := r.Advance("abcd1234", model.StageAwaitingType, func(s *model.Session) {
		s.ID = "other123"
		s.SourceURL = "https://example.com"
		s.Stage = model.StageDone
	})
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", got.ID)
	assert.Equal(t, "https://youtu.be/abcd1234", got.SourceURL)
	assert.Equal(t, model.StageAwaitingFormat, got.Stage)
}

func TestRegistry_AdvanceUnknownSession(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	_, err := r.Advance("missing1", model.StageAwaitingType, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_TerminalStagesAreEvicted(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	stage := model.StageAwaitingType
	for !stage.IsTerminal() {
		got, err := r.Advance("abcd1234", stage, nil)
		require.NoError(t, err)
		assert.Greater(t, got.Stage.Rank(), stage.Rank())
		stage = got.Stage
	}

	assert.Equal(t, model.StageDone, stage)
	assert.False(t, r.Contains("abcd1234"))
}

func TestRegistry_Fail(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	got, err := r.Fail("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, model.StageFailed, got.Stage)
	assert.False(t, r.Contains("abcd1234"))

	_, err = r.Fail("abcd1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_ConcurrentAdvanceOnlyOneWins(t *testing.T) {
	r := NewRegistry(time.Minute)
	require.NoError(t, r.Insert(newSession("abcd1234")))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Advance("abcd1234", model.StageAwaitingType, nil); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry(10 * time.Minute)
	base := time.Now()
	r.now = func() time.Time { return base.Add(15 * time.Minute) }

	stale := newSession("stale123")
	stale.UpdatedAt = base
	fresh := newSession("fresh123")
	fresh.UpdatedAt = base.Add(10 * time.Minute)
	busy := newSession("busy1234")
	busy.Stage = model.StageDownloading
	busy.UpdatedAt = base

	for _, s := range []*model.Session{stale, fresh, busy} {
		require.NoError(t, r.Insert(s))
	}

	assert.Equal(t, 1, r.Sweep())
	assert.False(t, r.Contains("stale123"))
	assert.True(t, r.Contains("fresh123"))
	assert.True(t, r.Contains("busy1234"))
}

func TestRegistry_SweepDisabled(t *testing.T) {
	r := NewRegistry(0)
	s := newSession("stale123")
	s.UpdatedAt = time.Now().Add(-24 * time.Hour)
	require.NoError(t, r.Insert(s))

	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	s := newSession("stale123")
	s.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, r.Insert(s))

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond, func(n int) {
			select {
			case swept <- n:
			default:
			}
		})
		close(done)
	}()

	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
