package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memEntry struct {
	entry     Entry
	expiresAt time.Time
}

// Memory is an in-process LRU with TTL. The LRU ttl is the upper bound; a
// shorter ttl passed to Set is honored per entry.
type Memory struct {
	lru *expirable.LRU[string, memEntry]
	now func() time.Time
}

func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		lru: expirable.NewLRU[string, memEntry](size, nil, ttl),
		now: time.Now,
	}
}

func (m *Memory) Get(_ context.Context, fingerprint string) (Entry, bool, error) {
	v, ok := m.lru.Get(fingerprint)
	if ok && !m.now().Before(v.expiresAt) {
		m.lru.Remove(fingerprint)
		ok = false
	}
	observeGet(ok, nil)
	if !ok {
		return Entry{}, false, nil
	}
	return v.entry, true, nil
}

func (m *Memory) Set(_ context.Context, fingerprint string, e Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.lru.Add(fingerprint, memEntry{entry: e, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *Memory) Evict(_ context.Context, fingerprint string) error {
	m.lru.Remove(fingerprint)
	evictionsTotal.WithLabelValues("key").Inc()
	return nil
}

func (m *Memory) EvictAll(_ context.Context) error {
	m.lru.Purge()
	evictionsTotal.WithLabelValues("all").Inc()
	return nil
}

func (m *Memory) Len() int {
	return m.lru.Len()
}
