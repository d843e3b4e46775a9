package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/aq2208/order-api/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// CachedProducts is a cache-aside ProductLookup. Redis failures fall through to the
// underlying lookup; missing products are never cached.
type CachedProducts struct {
	next    usecase.ProductLookup
	rdb     *redis.Client
	baseTTL time.Duration
}

func NewCachedProducts(next usecase.ProductLookup, rdb *redis.Client, ttl time.Duration) *CachedProducts {
	return &CachedProducts{next: next, rdb: rdb, baseTTL: ttl}
}

func (c *CachedProducts) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	log := logging.FromCtx(ctx)

	p, err := c.get(ctx, id)
	if err == nil && p != nil {
		return p, nil
	}
	if err != nil {
		log.Warn("product cache read failed", "product_id", id, "err", err)
	}

	p, err = c.next.FindProduct(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if err := c.set(ctx, p); err != nil {
		log.Warn("product cache write failed", "product_id", id, "err", err)
	}
	return p, nil
}

func (c *CachedProducts) get(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &p, nil
}

func (c *CachedProducts) set(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	ttl := c.baseTTL
	if spread := int64(ttl / 4); spread > 0 {
		ttl += time.Duration(rand.Int63n(spread))
	}
	if err := c.rdb.Set(ctx, productKey(p.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

var _ usecase.ProductLookup = (*CachedProducts)(nil)
