package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	redisKeyPrefix  = "catalog:query:"
	redisGenKey     = "catalog:query:generation"
	breakerFailures = 5
)

// Redis shares cached sets across instances. EvictAll bumps a generation
// counter that is part of every key, so stale keys simply age out.
type Redis struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	ttl    time.Duration
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisClient(redis.NewClient(opts), ttl), nil
}

func NewRedisClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog-query-cache",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
	})
	return &Redis{client: client, cb: cb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, fingerprint string) (Entry, bool, error) {
	res, err := r.cb.Execute(func() (any, error) {
		key, err := r.key(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		b, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		observeGet(false, err)
		return Entry{}, false, err
	}
	b, _ := res.([]byte)
	if b == nil {
		observeGet(false, nil)
		return Entry{}, false, nil
	}
	var e Entry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		observeGet(false, err)
		return Entry{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	observeGet(true, nil)
	return e, true, nil
}

func (r *Redis) Set(ctx context.Context, fingerprint string, e Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	b, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = r.cb.Execute(func() (any, error) {
		key, err := r.key(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		return nil, r.client.Set(ctx, key, b, ttl).Err()
	})
	return err
}

func (r *Redis) Evict(ctx context.Context, fingerprint string) error {
	_, err := r.cb.Execute(func() (any, error) {
		key, err := r.key(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		return nil, r.client.Del(ctx, key).Err()
	})
	if err == nil {
		evictionsTotal.WithLabelValues("key").Inc()
	}
	return err
}

func (r *Redis) EvictAll(ctx context.Context) error {
	_, err := r.cb.Execute(func() (any, error) {
		return nil, r.client.Incr(ctx, redisGenKey).Err()
	})
	if err == nil {
		evictionsTotal.WithLabelValues("all").Inc()
	}
	return err
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(ctx context.Context, fingerprint string) (string, error) {
	gen, err := r.client.Get(ctx, redisGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return redisKey(gen, fingerprint), nil
}

func redisKey(gen int64, fingerprint string) string {
	return redisKeyPrefix + strconv.FormatInt(gen, 10) + ":" + fingerprint
}
