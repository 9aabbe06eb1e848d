package app

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/api"
	"github.com/railzwaylabs/sagalog/internal/config"
	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/internal/pipeline"
	"github.com/railzwaylabs/sagalog/internal/transition"
	"github.com/railzwaylabs/sagalog/pkg/db"
	zaplog "github.com/railzwaylabs/sagalog/pkg/log"
	"github.com/railzwaylabs/sagalog/pkg/snowflake"
)

// RunServer starts the HTTP server and background workers. Extra options let
// an embedding program register transition handlers, typically with
// fx.Invoke(func(r *transition.Registry) { ... }).
func RunServer(opts ...fx.Option) {
	app := fx.New(append([]fx.Option{
		fx.Provide(
			// Config
			config.Load,
			logOptions,
			nodeID,

			// Event store
			newRepository,

			// Bind the snowflake node as the event ID source
			fx.Annotate(
				func(n *snowflake.Node) *snowflake.Node { return n },
				fx.As(new(event.IDGenerator)),
			),

			// Pipeline
			transition.NewRegistry,
			pipeline.NewService,
			pipeline.NewProcessor,
			pipeline.NewRecoverer,

			// API
			api.NewRouter,
		),
		snowflake.Module, // Snowflake ID Module
		zaplog.Module,    // Logger Module
		fx.Invoke(registerHooks),
	}, opts...)...)

	app.Run()
}

// RunMigrations executes database migrations (up or down).
func RunMigrations(command string) error {
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	logger, err := zaplog.New(logOptions(cfg))
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("migration_started", zap.String("command", command))

	changed, err := db.Migrate(db.DSN(dbOptions(cfg)), command)
	if err != nil {
		return err
	}
	if !changed {
		logger.Info("migration_no_change")
		return nil
	}
	logger.Info("migration_applied", zap.String("command", command))
	return nil
}

func registerHooks(
	lc fx.Lifecycle,
	router *api.Router,
	processor *pipeline.Processor,
	recoverer *pipeline.Recoverer,
	registry *transition.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) {
	var processorCancel context.CancelFunc
	var recovererCancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			warnIfNoTransitions(registry, logger)

			logger.Info("http_server_starting",
				zap.String("port", cfg.Port),
				zap.String("store", cfg.DBType),
				zap.Strings("transitions", registry.Names()),
			)

			processorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			processorCancel = cancel
			go processor.Run(processorCtx)

			recovererCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			recovererCancel = cancel
			go recoverer.Run(recovererCtx)

			go func() {
				if err := router.Run(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("http_server_failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("http_server_stopping")

			if processorCancel != nil {
				processorCancel()
			}
			if recovererCancel != nil {
				recovererCancel()
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := router.Shutdown(shutdownCtx); err != nil {
				logger.Error("http_server_forced_shutdown", zap.Error(err))
				return err
			}

			logger.Info("http_server_stopped")
			return nil
		},
	})
}

// warnIfNoTransitions flags a server started without handlers: every event
// it picks up would fail as UnknownTransition.
func warnIfNoTransitions(registry *transition.Registry, logger *zap.Logger) bool {
	if len(registry.Names()) > 0 {
		return false
	}
	logger.Warn("no_transitions_registered",
		zap.String("hint", "register handlers via app.RunServer(fx.Invoke(...)) in an embedding program"),
	)
	return true
}
