package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/adapter/repository/memory"
	"github.com/railzwaylabs/sagalog/internal/adapter/repository/postgres"
	"github.com/railzwaylabs/sagalog/internal/adapter/repository/redis"
	"github.com/railzwaylabs/sagalog/internal/config"
	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/pkg/db"
)

// newRepository provides the event store selected by DB_TYPE and closes it
// when the app stops.
func newRepository(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (event.Repository, error) {
	repo, closeFn, err := openRepository(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closeFn()
		},
	})
	return repo, nil
}

func openRepository(cfg *config.Config, logger *zap.Logger) (event.Repository, func() error, error) {
	switch strings.ToLower(cfg.DBType) {
	case "", "postgres":
		gdb, err := db.Open(dbOptions(cfg), logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRepository(gdb), func() error { return db.Close(gdb) }, nil

	case "redis":
		client, err := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("redis_connected", zap.String("addr", cfg.RedisAddr))
		return redis.NewRepository(client, cfg.RedisKeyPrefix), client.Close, nil

	case "memory":
		logger.Warn("memory_store_in_use")
		return memory.NewRepository(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}
}
