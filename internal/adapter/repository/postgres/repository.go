package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventModel is the database DTO with Gorm tags. Payload holds the event's
// serialized form verbatim; the other columns are projections for queries.
type EventModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	TransactionID string    `gorm:"type:varchar(128);not null;index:idx_transition_events_tx_created,priority:1"`
	Transition    string    `gorm:"type:varchar(255);not null"`
	Status        string    `gorm:"type:varchar(32);not null;index"`
	AttemptsCount int       `gorm:"not null;default:1"`
	Payload       string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"not null;index:idx_transition_events_tx_created,priority:2"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"`
}

func (EventModel) TableName() string {
	return "transition_events"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, e *event.Event) error {
	model, err := toModel(e)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "attempts_count", "payload", "updated_at"}),
		}).
		Create(&model).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*event.Event, error) {
	var model EventModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(model)
}

func (r *Repository) ListByTransaction(ctx context.Context, transactionID string) ([]*event.Event, error) {
	var models []EventModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at asc, id asc").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models)
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []event.Status, limit int) ([]*event.Event, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	query := r.db.WithContext(ctx).Where("status IN ?", values).Order("created_at asc, id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []EventModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models)
}

func (r *Repository) ListRunnable(ctx context.Context, maxAttempts, limit int, skip []string) ([]*event.Event, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND attempts_count < ?)", string(event.StatusNew), string(event.StatusFailed), maxAttempts)
	if len(skip) > 0 {
		query = query.Where("transition NOT IN ?", skip)
	}
	query = query.Order("created_at asc, id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []EventModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models)
}

// Mappers

func toDomain(m EventModel) (*event.Event, error) {
	e, err := event.Load([]byte(m.Payload))
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", m.ID, err)
	}
	if e == nil {
		return nil, fmt.Errorf("event %s: empty payload", m.ID)
	}
	return e, nil
}

func toDomainList(models []EventModel) ([]*event.Event, error) {
	items := make([]*event.Event, 0, len(models))
	for _, model := range models {
		e, err := toDomain(model)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}

func toModel(e *event.Event) (EventModel, error) {
	payload, err := e.Dump()
	if err != nil {
		return EventModel{}, fmt.Errorf("dump event %s: %w", e.ID(), err)
	}
	updated := e.UpdatedAt()
	if updated.IsZero() {
		updated = e.CreatedAt()
	}
	return EventModel{
		ID:            e.ID(),
		TransactionID: e.TransactionID(),
		Transition:    e.Transition(),
		Status:        string(e.Status()),
		AttemptsCount: e.AttemptsCount(),
		Payload:       string(payload),
		CreatedAt:     e.CreatedAt(),
		UpdatedAt:     updated,
	}, nil
}
