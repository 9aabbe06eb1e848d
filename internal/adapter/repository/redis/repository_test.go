package redis_test

import (
	"context"
	"testing"

	"github.com/railzwaylabs/sagalog/internal/adapter/repository/redis"
	"github.com/railzwaylabs/sagalog/internal/adapter/repository/repotest"
	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/pkg/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	rc, err := testhelper.SetupRedis(ctx)
	require.NoError(t, err)
	defer func() {
		if err := rc.Teardown(ctx); err != nil {
			t.Logf("failed to teardown container: %v", err)
		}
	}()

	client, err := redis.NewClient(rc.URL, "", 0)
	require.NoError(t, err)
	defer client.Close()

	repotest.Run(t, func(t *testing.T) event.Repository {
		require.NoError(t, client.FlushDB(ctx).Err())
		return redis.NewRepository(client, "test")
	})

	t.Run("StatusIndexFollowsSaves", func(t *testing.T) {
		require.NoError(t, client.FlushDB(ctx).Err())
		repo := redis.NewRepository(client, "test")

		e, err := event.Create(&testhelper.SequenceIDs{}, "tx-1", "activate")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, e))
		e.Start()
		require.NoError(t, repo.Save(ctx, e))

		n, err := client.ZCard(ctx, "test:status:new").Result()
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = client.ZCard(ctx, "test:status:started").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestNewClient_URL(t *testing.T) {
	client, err := redis.NewClient("redis://:secret@cache:6380/2", "", 0)
	require.NoError(t, err)
	defer client.Close()

	opts := client.Options()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := redis.NewClient("redis://cache:6380/notadb", "", 0)
	assert.Error(t, err)
}
