// Package cache stores the filtered-but-unsorted catalog result set keyed by
// the query fingerprint.
//
// Backends: Redis guarded by a circuit breaker when CATALOG_REDIS_URL is set,
// otherwise an in-process expirable LRU (per instance). Either can be wrapped
// with NATS broadcasting so evictions reach every instance.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// Entry is one cached filtered set with its total match count.
type Entry struct {
	Items []domain.CatalogItem `msgpack:"items"`
	Total int                  `msgpack:"total"`
}

// QueryCache is safe for concurrent use. Replacement is last-writer-wins.
type QueryCache interface {
	Get(ctx context.Context, fingerprint string) (Entry, bool, error)
	Set(ctx context.Context, fingerprint string, e Entry, ttl time.Duration) error
	Evict(ctx context.Context, fingerprint string) error
	EvictAll(ctx context.Context) error
}

const (
	DefaultTTL  = time.Minute
	DefaultSize = 1024
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_query_cache_requests_total",
		Help: "Query cache lookups by result (hit, miss, error).",
	}, []string{"result"})
	evictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_query_cache_evictions_total",
		Help: "Explicit query cache evictions by scope (key, all).",
	}, []string{"scope"})
)

func observeGet(hit bool, err error) {
	switch {
	case err != nil:
		requestsTotal.WithLabelValues("error").Inc()
	case hit:
		requestsTotal.WithLabelValues("hit").Inc()
	default:
		requestsTotal.WithLabelValues("miss").Inc()
	}
}

// New creates the best available cache: Redis > in-memory. When isProd is
// true a Redis URL is required, since per-instance memory caches would miss
// evictions issued by other instances without NATS.
func New(redisURL string, size int, ttl time.Duration, isProd bool) (QueryCache, error) {
	if redisURL != "" {
		return NewRedis(redisURL, ttl)
	}
	if isProd {
		return nil, errors.New("production requires CATALOG_REDIS_URL for the query cache; in-memory cache is not allowed")
	}
	return NewMemory(size, ttl), nil
}
