package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/railzwaylabs/sagalog/internal/config"
	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/internal/transition"
	"github.com/railzwaylabs/sagalog/pkg/telemetry/correlation"
)

// Failure kinds recorded by the pipeline itself.
const (
	KindUnknownTransition = "UnknownTransition"
	KindCircuitOpen       = "CircuitOpen"
	KindPanic             = "Panic"
	KindInvalidResult     = "InvalidResult"
	KindStaleAttempt      = "StaleAttempt"
)

// PanicError carries a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panicked: %v", e.Value) }
func (e *PanicError) Kind() string  { return KindPanic }

type Processor struct {
	repo         event.Repository
	registry     *transition.Registry
	breakers     *breakerSet
	limiter      *rate.Limiter
	logger       *zap.Logger
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
}

func NewProcessor(repo event.Repository, registry *transition.Registry, cfg *config.Config, logger *zap.Logger) *Processor {
	var limiter *rate.Limiter
	if cfg.PipelineRateLimit > 0 {
		burst := cfg.PipelineRateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.PipelineRateLimit), burst)
	}

	return &Processor{
		repo:         repo,
		registry:     registry,
		breakers:     newBreakerSet(cfg),
		limiter:      limiter,
		logger:       logger.Named("pipeline.processor"),
		pollInterval: positiveDuration(cfg.PipelinePollInterval, 5*time.Second),
		batchSize:    positiveInt(cfg.PipelineBatchSize, 10),
		maxAttempts:  positiveInt(cfg.PipelineMaxAttempts, 5),
	}
}

// Run polls the store for runnable events until ctx is done. Each event is
// persisted as started before its handler runs, so a crash mid-attempt
// leaves a record the Recoverer can find.
func (p *Processor) Run(ctx context.Context) {
	if err := p.RunOnce(ctx); err != nil {
		p.logger.Error("pipeline_initial_poll_failed", zap.Error(err))
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error("pipeline_poll_failed", zap.Error(err))
			}
		}
	}
}

// RunOnce processes a single batch of runnable events.
func (p *Processor) RunOnce(ctx context.Context) error {
	ctx, cid := correlation.EnsureCorrelationID(ctx)

	// Transitions with an open breaker are left out of the batch.
	events, err := p.repo.ListRunnable(ctx, p.maxAttempts, p.batchSize, p.breakers.open())
	if err != nil {
		return fmt.Errorf("list runnable events: %w", err)
	}

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processEvent(ctx, ev); err != nil {
			p.logger.Error("pipeline_event_processing_failed",
				zap.Error(err),
				zap.String("correlation_id", cid),
				zap.String("event_id", ev.ID()),
				zap.String("transaction_id", ev.TransactionID()),
				zap.String("transition", ev.Transition()),
			)
		}
	}

	return nil
}

func (p *Processor) processEvent(ctx context.Context, ev *event.Event) error {
	name := ev.Transition()

	handler, ok := p.registry.Lookup(name)
	if !ok {
		if ev.IsFailed() {
			ev.AttemptRetry()
		}
		ev.LinkFailure(event.Failure{
			Kind:    KindUnknownTransition,
			Message: fmt.Sprintf("no handler registered for transition %q", name),
		})
		attemptsTotal.WithLabelValues(name, outcomeRejected).Inc()
		return p.save(ctx, ev)
	}

	breaker := p.breakers.get(name)
	if breaker.Open() {
		attemptsTotal.WithLabelValues(name, outcomeSkipped).Inc()
		p.logger.Debug("pipeline_circuit_open_skip",
			zap.String("event_id", ev.ID()),
			zap.String("transition", name),
		)
		return nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if ev.IsFailed() {
		ev.AttemptRetry()
	}
	ev.Start()
	if err := p.save(ctx, ev); err != nil {
		return fmt.Errorf("persist started event: %w", err)
	}

	start := time.Now()
	var result transition.Result
	err := breaker.Execute(func() error {
		var herr error
		result, herr = invoke(ctx, handler, ev)
		return herr
	})
	attemptDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err == nil {
		if cerr := ev.Complete(result.Changes, result.Destination); cerr != nil {
			err = cerr
			ev.LinkFailure(event.Failure{Kind: KindInvalidResult, Message: cerr.Error()})
		}
	} else {
		ev.LinkError(err)
	}

	if err != nil {
		attemptsTotal.WithLabelValues(name, outcomeFailed).Inc()
		p.logger.Warn("transition_failed",
			zap.Error(err),
			zap.String("event_id", ev.ID()),
			zap.String("transaction_id", ev.TransactionID()),
			zap.String("transition", name),
			zap.Int("attempts_count", ev.AttemptsCount()),
		)
	} else {
		attemptsTotal.WithLabelValues(name, outcomeSuccess).Inc()
		p.logger.Info("transition_succeeded",
			zap.String("event_id", ev.ID()),
			zap.String("transaction_id", ev.TransactionID()),
			zap.String("transition", name),
			zap.Int("attempts_count", ev.AttemptsCount()),
		)
	}

	return p.save(ctx, ev)
}

func invoke(ctx context.Context, h transition.Handler, ev *event.Event) (result transition.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return h(ctx, ev)
}

func (p *Processor) save(ctx context.Context, ev *event.Event) error {
	if err := p.repo.Save(ctx, ev); err != nil {
		return fmt.Errorf("save event %s: %w", ev.ID(), err)
	}
	return nil
}

func positiveInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func positiveDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
