// Package cache is a read-through Redis cache for product rows.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const keyPrefix = "storefront:product:"

type Products struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func NewProducts(rdb redis.Cmdable, ttl time.Duration) *Products {
	return &Products{rdb: rdb, ttl: ttl}
}

func key(id uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// Get reports a miss on any redis error; the cache never fails a read.
func (c *Products) Get(ctx context.Context, id uint) (*models.Product, bool) {
	raw, err := c.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Warn("cache_get_failed", "product_id", id, "error", err)
		}
		return nil, false
	}

	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Products) Set(ctx context.Context, p *models.Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(p.ID), raw, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_set_failed", "product_id", p.ID, "error", err)
	}
}

func (c *Products) Invalidate(ctx context.Context, ids ...uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "keys", len(keys), "error", err)
	}
}
