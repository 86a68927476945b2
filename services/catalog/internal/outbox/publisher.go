// Package outbox relays catalog_outbox rows to JetStream and turns the
// resulting catalog events back into cache invalidations.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	StreamName = "CATALOG_EVENTS"
	Subjects   = "catalog.>"
)

// Event is one outbox row. Type doubles as the JetStream subject.
type Event struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

// Source hands out unpublished events.
type Source interface {
	// Drain locks up to limit pending events and passes them to fn. The events
	// are marked published only when fn returns nil.
	Drain(ctx context.Context, limit int, fn func([]Event) error) (int, error)
}

// JetStream is the publishing subset of nats.JetStreamContext.
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

var publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_outbox_published_total",
	Help: "Outbox events relayed to JetStream.",
}, []string{"event_type"})

type Publisher struct {
	Log          *zap.Logger
	Source       Source
	JS           JetStream
	BatchSize    int
	PollInterval time.Duration
}

func NewPublisher(log *zap.Logger, src Source, js JetStream) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		Log:          log,
		Source:       src,
		JS:           js,
		BatchSize:    100,
		PollInterval: 2 * time.Second,
	}
}

// EnsureStream creates CATALOG_EVENTS, or widens an existing stream that does
// not capture catalog.>.
func EnsureStream(js nats.JetStreamManager) error {
	info, err := js.StreamInfo(StreamName)
	if err == nil {
		for _, s := range info.Config.Subjects {
			if s == Subjects {
				return nil
			}
		}
		cfg := info.Config
		cfg.Subjects = []string{Subjects}
		_, err := js.UpdateStream(&cfg)
		return err
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{Subjects},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

// Run polls the outbox until ctx is done. A full batch is followed by another
// flush straight away so a backlog drains without waiting for the ticker.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				n, err := p.FlushOnce(ctx)
				if err != nil {
					if ctx.Err() == nil {
						p.Log.Warn("outbox flush failed", zap.Error(err))
					}
					break
				}
				if n < p.BatchSize {
					break
				}
			}
		}
	}
}

// FlushOnce relays one batch and reports how many events it published.
func (p *Publisher) FlushOnce(ctx context.Context) (int, error) {
	return p.Source.Drain(ctx, p.BatchSize, func(events []Event) error {
		for _, ev := range events {
			// The row id lets JetStream drop a duplicate when a batch is
			// published but the commit that marks it fails.
			if _, err := p.JS.Publish(ev.Type, ev.Payload, nats.MsgId(ev.ID), nats.Context(ctx)); err != nil {
				return err
			}
			publishedTotal.WithLabelValues(ev.Type).Inc()
		}
		if len(events) > 0 {
			p.Log.Debug("outbox batch published", zap.Int("count", len(events)))
		}
		return nil
	})
}
