package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supermarket-backend/internal/analytics/types"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
)

type memoryCache struct {
	gens    map[string]int64
	genErr  error
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{gens: map[string]int64{}, values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Generation(_ context.Context, scope string) (int64, error) {
	return m.gens[scope], m.genErr
}

func (m *memoryCache) BumpGeneration(_ context.Context, scope string) error {
	m.gens[scope]++
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	m.setKeys = append(m.setKeys, key)
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	return "sm:cache:" + strings.Join(parts, ":")
}

type countingService struct {
	Service
	calls int
}

func (c *countingService) TopProducts(ctx context.Context, topN int) ([]types.ProductCount, error) {
	c.calls++
	return c.Service.TopProducts(ctx, topN)
}

func (c *countingService) UniqueBuyerCount(ctx context.Context) (int64, error) {
	c.calls++
	return c.Service.UniqueBuyerCount(ctx)
}

func newCountingService(t *testing.T) *countingService {
	reader := &fakeReader{unique: 7, itemLists: [][]string{{"milk", "bread"}, {"milk"}}}
	return &countingService{Service: newTestService(t, reader)}
}

func TestCachedServiceReadsThrough(t *testing.T) {
	inner := newCountingService(t)
	cache := newMemoryCache()
	reg := prometheus.NewRegistry()
	m := metrics.NewAnalyticsMetrics(reg)
	svc := NewCachedService(inner, cache, time.Minute, m, logger.Nop())

	first, err := svc.TopProducts(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.TopProducts(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, []string{"sm:cache:analytics:g0:top_products:1"}, cache.setKeys)
	assert.Equal(t, time.Minute, cache.ttls["sm:cache:analytics:g0:top_products:1"])

	families, err := reg.Gather()
	require.NoError(t, err)
	outcomes := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "analytics_queries_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "cache" {
					outcomes[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{metrics.CacheMiss: 1, metrics.CacheHit: 1}, outcomes)
}

func TestCachedServiceKeysIncludeArguments(t *testing.T) {
	inner := newCountingService(t)
	svc := NewCachedService(inner, newMemoryCache(), time.Minute, nil, nil)

	_, err := svc.TopProducts(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.TopProducts(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedServiceDisabledWithoutTTL(t *testing.T) {
	inner := newCountingService(t)
	cache := newMemoryCache()
	svc := NewCachedService(inner, cache, 0, nil, nil)

	for i := 0; i < 2; i++ {
		count, err := svc.UniqueBuyerCount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
	}
	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, cache.setKeys)
}

func TestCachedServiceDisabledWithoutCache(t *testing.T) {
	inner := newCountingService(t)
	svc := NewCachedService(inner, nil, time.Minute, nil, nil)

	_, err := svc.UniqueBuyerCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedServiceFallsThroughOnCacheErrors(t *testing.T) {
	inner := newCountingService(t)
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc := NewCachedService(inner, cache, time.Minute, nil, nil)

	count, err := svc.UniqueBuyerCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestCachedServiceIgnoresCorruptEntries(t *testing.T) {
	inner := newCountingService(t)
	cache := newMemoryCache()
	cache.values["sm:cache:analytics:g0:unique_buyers"] = "not-json"
	svc := NewCachedService(inner, cache, time.Minute, nil, nil)

	count, err := svc.UniqueBuyerCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "7", cache.values["sm:cache:analytics:g0:unique_buyers"])
}

func TestCachedServiceDoesNotCacheErrors(t *testing.T) {
	svc := NewCachedService(newTestService(t, &fakeReader{}), newMemoryCache(), time.Minute, nil, nil)

	_, err := svc.LoyalBuyers(context.Background(), 0)
	require.Error(t, err)
}

func TestInvalidatorRetiresCachedAnswers(t *testing.T) {
	inner := newCountingService(t)
	cache := newMemoryCache()
	svc := NewCachedService(inner, cache, time.Minute, nil, nil)
	ctx := context.Background()

	_, err := svc.UniqueBuyerCount(ctx)
	require.NoError(t, err)
	_, err = svc.UniqueBuyerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	require.NoError(t, NewInvalidator(cache).Invalidate(ctx))
	_, err = svc.UniqueBuyerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Contains(t, cache.values, "sm:cache:analytics:g1:unique_buyers")
}

func TestCachedServiceBypassesCacheWhenGenerationUnavailable(t *testing.T) {
	inner := newCountingService(t)
	cache := newMemoryCache()
	cache.genErr = errors.New("redis down")
	svc := NewCachedService(inner, cache, time.Minute, nil, nil)

	count, err := svc.UniqueBuyerCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.Empty(t, cache.setKeys)
}

func TestNilInvalidatorIsNoop(t *testing.T) {
	var inv *Invalidator
	assert.NoError(t, inv.Invalidate(context.Background()))
	assert.NoError(t, NewInvalidator(nil).Invalidate(context.Background()))
}
