// Package redis stores serialized transition events in Redis.
//
// Layout, relative to the key prefix:
//
//	event:<id>         string, the event's serialized form
//	tx:<transaction>   sorted set of event IDs scored by created_at
//	status:<status>    sorted set of event IDs scored by created_at
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/railzwaylabs/sagalog/internal/domain/event"
	goredis "github.com/redis/go-redis/v9"
)

type Repository struct {
	client *goredis.Client
	prefix string
}

// NewClient creates a Redis client. addr may be host:port or a redis:// URL.
func NewClient(addr, password string, db int) (*goredis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return goredis.NewClient(opts), nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), nil
}

func NewRepository(client *goredis.Client, prefix string) *Repository {
	if prefix == "" {
		prefix = "sagalog"
	}
	return &Repository{client: client, prefix: prefix}
}

func (r *Repository) eventKey(id string) string       { return r.prefix + ":event:" + id }
func (r *Repository) txKey(txID string) string        { return r.prefix + ":tx:" + txID }
func (r *Repository) statusKey(s event.Status) string { return r.prefix + ":status:" + string(s) }

func (r *Repository) Save(ctx context.Context, e *event.Event) error {
	payload, err := e.Dump()
	if err != nil {
		return fmt.Errorf("dump event %s: %w", e.ID(), err)
	}

	score := float64(e.CreatedAt().UnixNano())
	member := goredis.Z{Score: score, Member: e.ID()}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, r.eventKey(e.ID()), payload, 0)
		pipe.ZAdd(ctx, r.txKey(e.TransactionID()), member)
		for _, s := range event.Statuses() {
			if s == e.Status() {
				pipe.ZAdd(ctx, r.statusKey(s), member)
			} else {
				pipe.ZRem(ctx, r.statusKey(s), e.ID())
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save event %s: %w", e.ID(), err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*event.Event, error) {
	raw, err := r.client.Get(ctx, r.eventKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	e, err := event.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return e, nil
}

func (r *Repository) ListByTransaction(ctx context.Context, transactionID string) ([]*event.Event, error) {
	ids, err := r.client.ZRange(ctx, r.txKey(transactionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return r.load(ctx, ids)
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []event.Status, limit int) ([]*event.Event, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	members, err := r.membersByStatus(ctx, statuses)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(members) > limit {
		members = members[:limit]
	}
	return r.load(ctx, idsOf(members))
}

func (r *Repository) ListRunnable(ctx context.Context, maxAttempts, limit int, skip []string) ([]*event.Event, error) {
	members, err := r.membersByStatus(ctx, []event.Status{event.StatusNew, event.StatusFailed})
	if err != nil {
		return nil, err
	}
	candidates, err := r.load(ctx, idsOf(members))
	if err != nil {
		return nil, err
	}

	items := make([]*event.Event, 0, len(candidates))
	for _, e := range candidates {
		if !event.Runnable(e, maxAttempts) || slices.Contains(skip, e.Transition()) {
			continue
		}
		items = append(items, e)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (r *Repository) membersByStatus(ctx context.Context, statuses []event.Status) ([]goredis.Z, error) {
	var members []goredis.Z
	for _, s := range statuses {
		zs, err := r.client.ZRangeWithScores(ctx, r.statusKey(s), 0, -1).Result()
		if err != nil {
			return nil, err
		}
		members = append(members, zs...)
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score < members[j].Score
		}
		return fmt.Sprint(members[i].Member) < fmt.Sprint(members[j].Member)
	})
	return members, nil
}

// load fetches events by ID in order, skipping IDs whose payload is gone.
func (r *Repository) load(ctx context.Context, ids []string) ([]*event.Event, error) {
	if len(ids) == 0 {
		return []*event.Event{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.eventKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	items := make([]*event.Event, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		e, err := event.Load([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ids[i], err)
		}
		items = append(items, e)
	}
	return items, nil
}

func idsOf(members []goredis.Z) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, fmt.Sprint(m.Member))
	}
	return ids
}
