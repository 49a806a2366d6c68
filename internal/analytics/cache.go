package analytics

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/angelmondragon/supermarket-backend/internal/analytics/types"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/supermarket-backend/pkg/redis"
)

// CacheScope is the generation scope shared by every analytics cache entry.
const CacheScope = "analytics"

const (
	queryUniqueBuyers = "unique_buyers"
	queryLoyalBuyers  = "loyal_buyers"
	queryTopProducts  = "top_products"
)

type cachedService struct {
	inner   Service
	cache   pkgredis.Cache
	ttl     time.Duration
	metrics *metrics.AnalyticsMetrics
	logg    *logger.Logger
}

// NewCachedService puts a read-through Redis cache in front of inner. With a
// nil cache or a non-positive ttl every call goes straight to inner.
// Cache failures are logged and never fail the request.
func NewCachedService(inner Service, cache pkgredis.Cache, ttl time.Duration, m *metrics.AnalyticsMetrics, logg *logger.Logger) Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &cachedService{inner: inner, cache: cache, ttl: ttl, metrics: m, logg: logg}
}

func (c *cachedService) enabled() bool {
	return c.cache != nil && c.ttl > 0
}

func (c *cachedService) UniqueBuyerCount(ctx context.Context) (int64, error) {
	return readThrough(ctx, c, queryUniqueBuyers, nil, func() (int64, error) {
		return c.inner.UniqueBuyerCount(ctx)
	})
}

func (c *cachedService) LoyalBuyers(ctx context.Context, minPurchases int) ([]types.LoyalBuyer, error) {
	return readThrough(ctx, c, queryLoyalBuyers, []string{strconv.Itoa(minPurchases)}, func() ([]types.LoyalBuyer, error) {
		return c.inner.LoyalBuyers(ctx, minPurchases)
	})
}

func (c *cachedService) TopProducts(ctx context.Context, topN int) ([]types.ProductCount, error) {
	return readThrough(ctx, c, queryTopProducts, []string{strconv.Itoa(topN)}, func() ([]types.ProductCount, error) {
		return c.inner.TopProducts(ctx, topN)
	})
}

func (c *cachedService) Summary(ctx context.Context, minPurchases, topN int) (*types.Summary, error) {
	return buildSummary(ctx, c, minPurchases, topN)
}

func readThrough[T any](ctx context.Context, c *cachedService, query string, args []string, load func() (T, error)) (T, error) {
	if !c.enabled() {
		c.metrics.IncQuery(query, metrics.CacheDisabled)
		return load()
	}

	gen, err := c.cache.Generation(ctx, CacheScope)
	if err != nil {
		c.logg.Error(ctx, "analytics cache generation read failed", err)
		c.metrics.IncQuery(query, metrics.CacheMiss)
		return load()
	}

	key := c.cache.CacheKey(append([]string{CacheScope, "g" + strconv.FormatInt(gen, 10), query}, args...)...)
	raw, err := c.cache.Get(ctx, key)
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			c.metrics.IncQuery(query, metrics.CacheHit)
			return cached, nil
		}
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "discarding undecodable analytics cache entry")
	} else if !pkgredis.IsMiss(err) {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "analytics cache read failed", err)
	}

	c.metrics.IncQuery(query, metrics.CacheMiss)
	value, err := load()
	if err != nil {
		return value, err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		c.logg.Error(ctx, "analytics cache encode failed", err)
		return value, nil
	}
	if err := c.cache.Set(ctx, key, string(encoded), c.ttl); err != nil {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "analytics cache write failed", err)
	}
	return value, nil
}

// Invalidator retires every cached analytics answer by advancing the cache
// generation. The cashier calls it after each committed purchase.
type Invalidator struct {
	cache pkgredis.Cache
}

func NewInvalidator(cache pkgredis.Cache) *Invalidator {
	return &Invalidator{cache: cache}
}

func (i *Invalidator) Invalidate(ctx context.Context) error {
	if i == nil || i.cache == nil {
		return nil
	}
	return i.cache.BumpGeneration(ctx, CacheScope)
}
