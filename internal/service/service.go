package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/apperr"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// ProductIndex is the full-text index behind product search.
type ProductIndex interface {
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

// ProductCache holds product rows keyed by id. Implementations never fail a
// read; a broken cache behaves like an empty one.
type ProductCache interface {
	Get(ctx context.Context, id uint) (*models.Product, bool)
	Set(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context, ids ...uint)
}

type nopCache struct{}

func (nopCache) Get(context.Context, uint) (*models.Product, bool) { return nil, false }
func (nopCache) Set(context.Context, *models.Product)             {}
func (nopCache) Invalidate(context.Context, ...uint)              {}

func cacheOrNop(c ProductCache) ProductCache {
	if c == nil {
		return nopCache{}
	}
	return c
}

func publisherOrNop(p events.Publisher) events.Publisher {
	if p == nil {
		return events.Nop{}
	}
	return p
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// publish sends an event after the surrounding transaction has committed.
// Delivery failures are logged and never fail the request.
func publish(ctx context.Context, pub events.Publisher, topic, typ string, key uint, payload any) {
	ev := events.Event{
		Type:       typ,
		Key:        fmt.Sprint(key),
		OccurredAt: utcNow(),
		Payload:    payload,
	}
	if err := pub.Publish(ctx, topic, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "topic", topic, "type", typ, "key", key, "error", err)
	}
}

func lookupErr(err error, what string, id any) error {
	if repo.IsNotFound(err) {
		return apperr.NotFound("%s %v not found", what, id)
	}
	return fmt.Errorf("load %s %v: %w", what, id, err)
}

func userByName(ctx context.Context, r *repo.GormRepo, username string) (*models.User, error) {
	u, err := r.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, lookupErr(err, "user", username)
	}
	return u, nil
}
