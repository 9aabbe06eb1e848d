package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/config"
	"github.com/railzwaylabs/sagalog/internal/domain/event"
)

// Recoverer finds events left in started by an interrupted attempt and
// marks them failed, which makes them runnable again.
type Recoverer struct {
	repo       event.Repository
	logger     *zap.Logger
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewRecoverer(repo event.Repository, cfg *config.Config, logger *zap.Logger) *Recoverer {
	return &Recoverer{
		repo:       repo,
		logger:     logger.Named("pipeline.recoverer"),
		interval:   positiveDuration(cfg.RecoveryInterval, time.Minute),
		staleAfter: positiveDuration(cfg.PipelineStaleAfter, 10*time.Minute),
		now:        time.Now,
	}
}

func (r *Recoverer) Run(ctx context.Context) {
	if _, err := r.RecoverOnce(ctx); err != nil {
		r.logger.Error("recover_initial_failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RecoverOnce(ctx); err != nil {
				r.logger.Error("recover_failed", zap.Error(err))
			}
		}
	}
}

// RecoverOnce marks every stale started event failed and returns how many
// were recovered.
func (r *Recoverer) RecoverOnce(ctx context.Context) (int, error) {
	items, err := r.repo.ListByStatus(ctx, []event.Status{event.StatusStarted}, 0)
	if err != nil {
		return 0, fmt.Errorf("list started events: %w", err)
	}

	recovered := 0
	cutoff := r.now().Add(-r.staleAfter)
	for _, ev := range items {
		last := ev.UpdatedAt()
		if last.IsZero() {
			last = ev.CreatedAt()
		}
		if last.After(cutoff) {
			continue
		}

		ev.LinkFailure(event.Failure{
			Kind:    KindStaleAttempt,
			Message: fmt.Sprintf("attempt %d was interrupted before an outcome was recorded", ev.AttemptsCount()),
		})
		if err := r.repo.Save(ctx, ev); err != nil {
			r.logger.Warn("recover_save_failed", zap.Error(err), zap.String("event_id", ev.ID()))
			continue
		}

		recovered++
		attemptsTotal.WithLabelValues(ev.Transition(), outcomeRecovered).Inc()
		r.logger.Info("stale_attempt_recovered",
			zap.String("event_id", ev.ID()),
			zap.String("transaction_id", ev.TransactionID()),
			zap.String("transition", ev.Transition()),
			zap.Time("last_update", last),
		)
	}
	return recovered, nil
}
