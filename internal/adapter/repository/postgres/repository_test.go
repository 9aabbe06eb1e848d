package postgres_test

import (
	"context"
	"testing"

	"github.com/railzwaylabs/sagalog/internal/adapter/repository/postgres"
	"github.com/railzwaylabs/sagalog/internal/adapter/repository/repotest"
	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/pkg/db"
	"github.com/railzwaylabs/sagalog/pkg/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// 1. Setup Container
	pg, err := testhelper.SetupPostgres(ctx)
	require.NoError(t, err)
	defer func() {
		if err := pg.Teardown(ctx); err != nil {
			t.Logf("failed to teardown container: %v", err)
		}
	}()

	// 2. Apply the shipped migrations
	changed, err := db.Migrate(pg.DSN, "up")
	require.NoError(t, err)
	require.True(t, changed)

	// 3. Connect to DB
	gdb, err := gorm.Open(gormpostgres.Open(pg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Run("SchemaMatchesModel", func(t *testing.T) {
		stmt := &gorm.Statement{DB: gdb}
		require.NoError(t, stmt.Parse(&postgres.EventModel{}))
		for _, field := range stmt.Schema.Fields {
			assert.True(t, gdb.Migrator().HasColumn(&postgres.EventModel{}, field.DBName), "missing column %s", field.DBName)
		}
	})

	repotest.Run(t, func(t *testing.T) event.Repository {
		require.NoError(t, gdb.Exec("TRUNCATE transition_events").Error)
		return postgres.NewRepository(gdb)
	})

	t.Run("CorruptPayload", func(t *testing.T) {
		require.NoError(t, gdb.Exec("TRUNCATE transition_events").Error)
		require.NoError(t, gdb.Exec(
			`INSERT INTO transition_events (id, transaction_id, transition, status, attempts_count, payload, created_at)
			 VALUES ('bad', 'tx', 'x', 'new', 1, '{"data":{}}', now())`,
		).Error)

		repo := postgres.NewRepository(gdb)
		got, err := repo.FindByID(ctx, "bad")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, event.ErrMissingIdentity)
	})
}
