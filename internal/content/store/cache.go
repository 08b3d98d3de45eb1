package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"podium/internal/authz"
	"podium/internal/content/models"
	"podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

// Cached is a read-through Redis decorator over a Store. It caches single-row
// reads keyed by resource id and applies the caller's scope to cache hits, so
// the visibility predicate still gates every row that leaves the storage layer.
// Writes invalidate the row's key; a TTL bounds staleness across nodes.
//
// A cache outage degrades to the underlying store rather than failing reads.
type Cached struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	hits   func()
	misses func()
}

// CachedOption configures the decorator.
type CachedOption func(*Cached)

// WithCacheTTL overrides the default 30s entry lifetime.
func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheMetrics installs hit/miss observers.
func WithCacheMetrics(hits, misses func()) CachedOption {
	return func(c *Cached) {
		c.hits = hits
		c.misses = misses
	}
}

func NewCached(inner Store, client *redis.Client, logger *slog.Logger, opts ...CachedOption) *Cached {
	c := &Cached{
		inner:  inner,
		client: client,
		ttl:    30 * time.Second,
		logger: logger,
		hits:   func() {},
		misses: func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(id domain.ResourceID) string {
	return "content:resource:" + id.String()
}

func (c *Cached) Find(ctx context.Context, id domain.ResourceID, scope authz.Scope) (*models.Resource, error) {
	payload, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var resource models.Resource
		if err := json.Unmarshal(payload, &resource); err == nil {
			c.hits()
			if !scope.Allows(&resource) {
				return nil, sentinel.ErrNotFound
			}
			return &resource, nil
		}
		// Unreadable entry: drop it and fall through to the store.
		c.client.Del(ctx, cacheKey(id))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "resource cache read failed", "resource_id", id.String(), "error", err)
	}

	c.misses()
	resource, err := c.inner.Find(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, resource)
	return resource, nil
}

func (c *Cached) fill(ctx context.Context, resource *models.Resource) {
	payload, err := json.Marshal(resource)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(resource.ID), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "resource cache fill failed", "resource_id", resource.ID.String(), "error", err)
	}
}

func (c *Cached) invalidate(ctx context.Context, id domain.ResourceID) {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "resource cache invalidation failed", "resource_id", id.String(), "error", err)
	}
}

// List is a passthrough: listings are scope-shaped per caller and not worth
// caching at this layer.
func (c *Cached) List(ctx context.Context, scope authz.Scope, limit int) ([]*models.Resource, error) {
	return c.inner.List(ctx, scope, limit)
}

func (c *Cached) Create(ctx context.Context, resource *models.Resource) error {
	return c.inner.Create(ctx, resource)
}

func (c *Cached) UpdateFields(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, fields models.Fields, now time.Time) (time.Time, error) {
	ts, err := c.inner.UpdateFields(ctx, id, owner, fields, now)
	if err == nil {
		c.invalidate(ctx, id)
	}
	return ts, err
}

func (c *Cached) SoftDelete(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, now time.Time) (int64, error) {
	rows, err := c.inner.SoftDelete(ctx, id, owner, now)
	if rows > 0 {
		c.invalidate(ctx, id)
	}
	return rows, err
}

func (c *Cached) SetVisibility(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, public bool, now time.Time) (int64, error) {
	rows, err := c.inner.SetVisibility(ctx, id, owner, public, now)
	if rows > 0 {
		c.invalidate(ctx, id)
	}
	return rows, err
}

func (c *Cached) Duplicate(ctx context.Context, source domain.ResourceID, owner domain.PrincipalID, now time.Time) (domain.ResourceID, error) {
	return c.inner.Duplicate(ctx, source, owner, now)
}
