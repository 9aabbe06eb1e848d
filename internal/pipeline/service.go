package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"github.com/railzwaylabs/sagalog/pkg/txid"
)

// Service is the entry point for recording new transition attempts and
// reading them back.
type Service struct {
	repo   event.Repository
	ids    event.IDGenerator
	logger *zap.Logger
}

func NewService(repo event.Repository, ids event.IDGenerator, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		ids:    ids,
		logger: logger.Named("pipeline.service"),
	}
}

// NewTransaction returns a fresh transaction ID.
func (s *Service) NewTransaction() string {
	return txid.New()
}

// Enqueue records a new event for transition within transactionID. The
// processor picks it up on its next poll.
func (s *Service) Enqueue(ctx context.Context, transactionID, transition string, args ...any) (*event.Event, error) {
	ev, err := event.Create(s.ids, transactionID, transition, args...)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, ev); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}

	s.logger.Info("transition_enqueued",
		zap.String("event_id", ev.ID()),
		zap.String("transaction_id", transactionID),
		zap.String("transition", transition),
	)
	return ev, nil
}

func (s *Service) Get(ctx context.Context, id string) (*event.Event, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListTransaction(ctx context.Context, transactionID string) ([]*event.Event, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}
