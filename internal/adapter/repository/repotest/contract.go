// Package repotest holds the behavior every event.Repository must share.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/pkg/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises repo against the event.Repository contract. newRepo must
// return an empty repository on each call.
func Run(t *testing.T, newRepo func(t *testing.T) event.Repository) {
	ctx := context.Background()

	t.Run("FindByID_Missing", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.FindByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SaveAndFind_RoundTrip", func(t *testing.T) {
		repo := newRepo(t)
		ids := &testhelper.SequenceIDs{}

		e, err := event.Create(ids, "tx-1", "activate", "user:42")
		require.NoError(t, err)
		require.NoError(t, e.CacheSet("token", "abc"))
		require.NoError(t, repo.Save(ctx, e))

		e.Start()
		require.NoError(t, e.Complete(map[string]bool{"active": true}, "active"))
		require.NoError(t, repo.Save(ctx, e))

		got, err := repo.FindByID(ctx, e.ID())
		require.NoError(t, err)
		require.NotNil(t, got)

		want, err := e.Dump()
		require.NoError(t, err)
		have, err := got.Dump()
		require.NoError(t, err)
		assert.Equal(t, string(want), string(have))
		assert.True(t, got.IsSuccess())
	})

	t.Run("ListByTransaction", func(t *testing.T) {
		repo := newRepo(t)
		ids := &testhelper.SequenceIDs{}

		first := mustSave(t, repo, ids, "tx-a", "reserve")
		second := mustSave(t, repo, ids, "tx-a", "charge")
		mustSave(t, repo, ids, "tx-b", "reserve")

		items, err := repo.ListByTransaction(ctx, "tx-a")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, first.ID(), items[0].ID())
		assert.Equal(t, second.ID(), items[1].ID())

		items, err = repo.ListByTransaction(ctx, "tx-none")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("ListByStatus", func(t *testing.T) {
		repo := newRepo(t)
		ids := &testhelper.SequenceIDs{}

		fresh := mustSave(t, repo, ids, "tx-1", "a")
		started := mustSave(t, repo, ids, "tx-1", "b")
		started.Start()
		require.NoError(t, repo.Save(ctx, started))
		failed := mustSave(t, repo, ids, "tx-1", "c")
		failed.LinkError(errors.New("boom"))
		require.NoError(t, repo.Save(ctx, failed))

		items, err := repo.ListByStatus(ctx, []event.Status{event.StatusStarted}, 10)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, started.ID(), items[0].ID())

		items, err = repo.ListByStatus(ctx, []event.Status{event.StatusNew, event.StatusFailed}, 10)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, fresh.ID(), items[0].ID())
		assert.Equal(t, failed.ID(), items[1].ID())

		items, err = repo.ListByStatus(ctx, []event.Status{event.StatusNew, event.StatusFailed}, 1)
		require.NoError(t, err)
		assert.Len(t, items, 1)

		items, err = repo.ListByStatus(ctx, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("ListRunnable", func(t *testing.T) {
		repo := newRepo(t)
		ids := &testhelper.SequenceIDs{}

		fresh := mustSave(t, repo, ids, "tx-1", "a")

		retryable := mustSave(t, repo, ids, "tx-1", "b")
		retryable.LinkError(errors.New("boom"))
		require.NoError(t, repo.Save(ctx, retryable))

		exhausted := mustSave(t, repo, ids, "tx-1", "c")
		exhausted.LinkError(errors.New("boom"))
		exhausted.AttemptRetry()
		exhausted.AttemptRetry()
		require.NoError(t, repo.Save(ctx, exhausted))

		done := mustSave(t, repo, ids, "tx-1", "d")
		require.NoError(t, done.Complete(nil, "x"))
		require.NoError(t, repo.Save(ctx, done))

		items, err := repo.ListRunnable(ctx, 3, 10, nil)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, fresh.ID(), items[0].ID())
		assert.Equal(t, retryable.ID(), items[1].ID())
	})

	t.Run("ListRunnable_Skip", func(t *testing.T) {
		repo := newRepo(t)
		ids := &testhelper.SequenceIDs{}

		mustSave(t, repo, ids, "tx-1", "down")
		mustSave(t, repo, ids, "tx-1", "down")
		healthy := mustSave(t, repo, ids, "tx-1", "up")

		items, err := repo.ListRunnable(ctx, 3, 1, []string{"down"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, healthy.ID(), items[0].ID())
	})
}

func mustSave(t *testing.T, repo event.Repository, ids event.IDGenerator, tx, transition string) *event.Event {
	t.Helper()
	e, err := event.Create(ids, tx, transition)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), e))
	// Keep created_at strictly increasing so ordering assertions are stable.
	time.Sleep(2 * time.Millisecond)
	return e
}
