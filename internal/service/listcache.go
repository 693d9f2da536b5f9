package service

import (
	"context"
	"log/slog"

	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/observability"
)

const (
	nsPosts      = "posts"
	nsCategories = "categories"
)

// listCache wraps an optional cache.Store. Cache failures never fail a
// request: they are logged and the store is consulted instead.
type listCache struct {
	store cache.Store
	prom  *observability.Prom
}

func (c listCache) generation(ctx context.Context, namespace string) (int64, bool) {
	if c.store == nil {
		return 0, false
	}

	gen, err := c.store.Generation(ctx, namespace)
	if err != nil {
		slog.WarnContext(ctx, "cache generation lookup failed", "namespace", namespace, "err", err)
		c.prom.IncCacheLookup(namespace, "error")
		return 0, false
	}

	return gen, true
}

func (c listCache) get(ctx context.Context, namespace, key string, dst any) bool {
	ok, err := c.store.Get(ctx, key, dst)
	if err != nil {
		slog.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		c.prom.IncCacheLookup(namespace, "error")
		return false
	}

	if ok {
		c.prom.IncCacheLookup(namespace, "hit")
	} else {
		c.prom.IncCacheLookup(namespace, "miss")
	}

	return ok
}

func (c listCache) set(ctx context.Context, key string, val any) {
	if err := c.store.Set(ctx, key, val); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (c listCache) bump(ctx context.Context, namespaces ...string) {
	if c.store == nil {
		return
	}

	for _, ns := range namespaces {
		if err := c.store.Bump(ctx, ns); err != nil {
			slog.WarnContext(ctx, "cache invalidation failed", "namespace", ns, "err", err)
		}
	}
}
