// Package worker keeps derived catalog columns current from events other
// services publish.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/example/game-store/services/catalog/internal/cache"
	"github.com/example/game-store/services/catalog/internal/domain"
)

const (
	CommentStream   = "SOCIAL"
	commentSubjects = "social.comments.>"
	commentPrefix   = "social.comments."
	commentDurable  = "catalog_comment_counts"
)

// CommentEvent is the payload of social.comments.create and .delete. GameID
// takes a native or a legacy game reference.
type CommentEvent struct {
	EventID   string `json:"event_id"`
	GameID    string `json:"game_id"`
	CommentID string `json:"comment_id"`
	CreatedAt string `json:"created_at"`
}

// Counter applies a comment count change at most once per event id.
type Counter interface {
	ApplyCommentDelta(ctx context.Context, eventID, subject string, gameID uuid.UUID, delta int) (bool, error)
}

type GameResolver interface {
	ResolveGame(ctx context.Context, raw string) (uuid.UUID, error)
}

var commentEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_comment_events_total",
	Help: "Comment events consumed, by action and outcome.",
}, []string{"action", "outcome"})

// errPoison marks an event that can never be applied.
var errPoison = errors.New("unprocessable comment event")

func poison(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errPoison, fmt.Sprintf(format, args...))
}

// CommentCounter maintains games.comment_count so the MostCommented sort
// reflects comments posted through the social service.
type CommentCounter struct {
	Store    Counter
	Resolver GameResolver
	Cache    cache.QueryCache
	Log      *zap.Logger

	BatchSize     int
	BatchInterval time.Duration
}

// Handle applies one event. Errors wrapping errPoison are permanent; anything
// else is worth a redelivery.
func (c *CommentCounter) Handle(ctx context.Context, subject string, data []byte) error {
	action := strings.TrimPrefix(subject, commentPrefix)
	var delta int
	switch action {
	case "create":
		delta = 1
	case "delete":
		delta = -1
	case "update", "vote":
		return nil
	default:
		return poison("unknown subject %q", subject)
	}

	var ev CommentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return poison("decode %s: %v", subject, err)
	}
	ev.EventID = strings.TrimSpace(ev.EventID)
	if ev.EventID == "" {
		return poison("%s without event_id", subject)
	}

	gameID, err := c.Resolver.ResolveGame(ctx, strings.TrimSpace(ev.GameID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidIdentifier) {
			return poison("game %q: %v", ev.GameID, err)
		}
		return err
	}

	applied, err := c.Store.ApplyCommentDelta(ctx, ev.EventID, subject, gameID, delta)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return poison("game %s: %v", gameID, err)
		}
		return err
	}
	if !applied {
		commentEventsTotal.WithLabelValues(action, "duplicate").Inc()
		return nil
	}
	commentEventsTotal.WithLabelValues(action, "applied").Inc()
	if c.Cache != nil {
		if err := c.Cache.EvictAll(ctx); err != nil {
			c.log().Warn("cache eviction after comment event failed", zap.String("event_id", ev.EventID), zap.Error(err))
		}
	}
	return nil
}

// EnsureStream creates the SOCIAL stream when the social service has not yet.
func EnsureStream(js nats.JetStreamManager) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     CommentStream,
		Subjects: []string{"social.>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return err
	}
	return nil
}

// Run pulls comment events in batches until ctx is done.
func (c *CommentCounter) Run(ctx context.Context, js nats.JetStreamContext) error {
	if err := EnsureStream(js); err != nil {
		return err
	}
	sub, err := js.PullSubscribe(commentSubjects, commentDurable)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	batch := c.BatchSize
	if batch <= 0 {
		batch = 100
	}
	wait := c.BatchInterval
	if wait <= 0 {
		wait = 2 * time.Second
	}
	log := c.log()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := sub.Fetch(batch, nats.MaxWait(wait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			log.Warn("comment events fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		for _, m := range msgs {
			c.settle(ctx, m)
		}
	}
}

func (c *CommentCounter) settle(ctx context.Context, m *nats.Msg) {
	log := c.log().With(zap.String("subject", m.Subject))
	err := c.Handle(ctx, m.Subject, m.Data)
	switch {
	case err == nil:
		if err := m.Ack(); err != nil {
			log.Warn("ack failed", zap.Error(err))
		}
	case errors.Is(err, errPoison):
		log.Warn("dropping comment event", zap.Error(err))
		commentEventsTotal.WithLabelValues(strings.TrimPrefix(m.Subject, commentPrefix), "dropped").Inc()
		if err := m.Term(); err != nil {
			log.Warn("term failed", zap.Error(err))
		}
	default:
		log.Warn("comment event failed", zap.Error(err))
		if err := m.Nak(); err != nil {
			log.Warn("nak failed", zap.Error(err))
		}
	}
}

func (c *CommentCounter) log() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}
