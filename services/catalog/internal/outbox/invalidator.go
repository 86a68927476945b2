package outbox

import (
	"context"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/game-store/services/catalog/internal/cache"
)

// Invalidator empties the local query cache when a catalog event arrives.
// It covers writes this instance never broadcast itself, such as lazy copies
// and writes made by other instances sharing the primary store.
type Invalidator struct {
	Cache cache.QueryCache
	Log   *zap.Logger
}

// Handle evicts every cached listing for catalog.* subjects and ignores the
// rest.
func (i *Invalidator) Handle(ctx context.Context, subject string) error {
	if !strings.HasPrefix(subject, "catalog.") {
		return nil
	}
	return i.Cache.EvictAll(ctx)
}

// Subscribe attaches an ephemeral consumer that only sees events published
// from now on.
func (i *Invalidator) Subscribe(js nats.JetStreamContext) (*nats.Subscription, error) {
	log := i.Log
	if log == nil {
		log = zap.NewNop()
	}
	return js.Subscribe(Subjects, func(m *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := i.Handle(ctx, m.Subject); err != nil {
			log.Warn("cache eviction on catalog event failed", zap.String("subject", m.Subject), zap.Error(err))
		}
	}, nats.DeliverNew(), nats.AckNone())
}
