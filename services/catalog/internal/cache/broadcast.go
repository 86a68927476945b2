package cache

import (
	"context"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// InvalidateSubject carries evictions between instances. The payload is a
// fingerprint, or "ALL" (or empty) to drop every entry.
const InvalidateSubject = "cache.catalog.invalidate"

const evictAllPayload = "ALL"

// Publisher is the subset of *nats.Conn used to broadcast evictions.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Broadcasting wraps a QueryCache so explicit evictions are also published
// for other instances. Gets and sets stay local.
type Broadcasting struct {
	QueryCache
	pub     Publisher
	subject string
	log     *zap.Logger
}

func NewBroadcasting(inner QueryCache, pub Publisher, subject string, log *zap.Logger) *Broadcasting {
	if subject == "" {
		subject = InvalidateSubject
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcasting{QueryCache: inner, pub: pub, subject: subject, log: log}
}

func (b *Broadcasting) Evict(ctx context.Context, fingerprint string) error {
	if err := b.QueryCache.Evict(ctx, fingerprint); err != nil {
		return err
	}
	b.publish(fingerprint)
	return nil
}

func (b *Broadcasting) EvictAll(ctx context.Context) error {
	if err := b.QueryCache.EvictAll(ctx); err != nil {
		return err
	}
	b.publish(evictAllPayload)
	return nil
}

// publish is best effort; TTL still bounds staleness on peers that miss it.
func (b *Broadcasting) publish(payload string) {
	if b.pub == nil {
		return
	}
	if err := b.pub.Publish(b.subject, []byte(payload)); err != nil {
		b.log.Warn("cache invalidation publish failed", zap.String("subject", b.subject), zap.Error(err))
	}
}

// Subscribe applies evictions published by other instances to the local
// cache. Applying our own broadcast again is harmless.
func Subscribe(nc *nats.Conn, subject string, c QueryCache, log *zap.Logger) (*nats.Subscription, error) {
	if subject == "" {
		subject = InvalidateSubject
	}
	return nc.Subscribe(subject, func(m *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ApplyInvalidation(ctx, c, m.Data); err != nil {
			log.Warn("cache invalidation failed", zap.Error(err))
		}
	})
}

// ApplyInvalidation evicts what one invalidation message names.
func ApplyInvalidation(ctx context.Context, c QueryCache, payload []byte) error {
	key := strings.TrimSpace(string(payload))
	if key == "" || strings.EqualFold(key, evictAllPayload) {
		return c.EvictAll(ctx)
	}
	return c.Evict(ctx, key)
}
