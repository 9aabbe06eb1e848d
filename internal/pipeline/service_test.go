package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
)

func TestService_Enqueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())

	tx := f.service.NewTransaction()
	require.NotEmpty(t, tx)

	ev, err := f.service.Enqueue(ctx, tx, "svc_first", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, "evt-0001", ev.ID())
	assert.True(t, ev.IsNew())

	stored, err := f.service.Get(ctx, ev.ID())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, tx, stored.TransactionID())
	assert.Len(t, stored.Args(), 2)

	_, err = f.service.Enqueue(ctx, tx, "svc_second")
	require.NoError(t, err)

	items, err := f.service.ListTransaction(ctx, tx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "svc_first", items[0].Transition())
	assert.Equal(t, "svc_second", items[1].Transition())
	assert.Equal(t, 1, f.logs.FilterMessage("transition_enqueued").FilterField(zap.String("transition", "svc_second")).Len())
}

func TestService_EnqueueRequiresTransaction(t *testing.T) {
	f := newFixture(t, testConfig())

	_, err := f.service.Enqueue(context.Background(), "", "svc_orphan")
	assert.ErrorIs(t, err, event.ErrMissingTransactionID)
	assert.Zero(t, f.repo.Len())
}

func TestService_GetMissing(t *testing.T) {
	f := newFixture(t, testConfig())

	ev, err := f.service.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestService_NewTransactionIsUnique(t *testing.T) {
	f := newFixture(t, testConfig())
	assert.NotEqual(t, f.service.NewTransaction(), f.service.NewTransaction())
}
