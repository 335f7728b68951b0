package store

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-insights/internal/common/logger"
)

const (
	anchorCacheKey = "fleet-insights:anchor-date"
	anchorCacheTTL = 15 * time.Minute
)

// AnchorCache memoizes the corpus anchor date. The in-process copy makes
// repeated relative-period resolutions free; the redis entry shares the
// value across replicas and survives restarts. Invalidate drops both after
// an ingest.
type AnchorCache struct {
	store  Store
	redis  *redis.Client
	logger logger.Logger

	mu      sync.Mutex
	cached  time.Time
	hasData bool
	loaded  bool
}

// NewAnchorCache wraps a store; redis may be nil, leaving only the
// in-process memo.
func NewAnchorCache(s Store, rdb *redis.Client, log logger.Logger) *AnchorCache {
	return &AnchorCache{store: s, redis: rdb, logger: log}
}

// Get returns the anchor date, computing it at most once per TTL.
func (a *AnchorCache) Get(ctx context.Context) (time.Time, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loaded {
		return a.cached, a.hasData, nil
	}

	if a.redis != nil {
		if val, err := a.redis.Get(ctx, anchorCacheKey).Result(); err == nil {
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				a.cached, a.hasData, a.loaded = t, true, true
				return t, true, nil
			}
		}
	}

	t, ok, err := a.store.AnchorDate(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	a.cached, a.hasData, a.loaded = t, ok, true

	if ok && a.redis != nil {
		if err := a.redis.Set(ctx, anchorCacheKey, t.Format(time.RFC3339), anchorCacheTTL).Err(); err != nil {
			a.logger.Warn("anchor cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return t, ok, nil
}

// Invalidate drops the memoized anchor so the next Get recomputes it. Call
// after ingesting new events.
func (a *AnchorCache) Invalidate(ctx context.Context) {
	a.mu.Lock()
	a.loaded = false
	a.hasData = false
	a.mu.Unlock()

	if a.redis != nil {
		if err := a.redis.Del(ctx, anchorCacheKey).Err(); err != nil {
			a.logger.Warn("anchor cache invalidation failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
