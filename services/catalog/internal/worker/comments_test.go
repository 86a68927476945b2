package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/game-store/services/catalog/internal/cache"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/resolver"
	"github.com/example/game-store/services/catalog/internal/store"
)

type fixture struct {
	primary *store.Memory
	cache   *cache.Memory
	c       *CommentCounter
	game    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	ls, err := legacy.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ls.Close() })
	require.NoError(t, ls.PutProduct(ctx, legacy.Product{ProductID: 5, ProductName: "Chai", UnitPrice: 18, AddedAt: time.Now().UTC()}))

	primary := store.NewMemory()
	game := uuid.New()
	require.NoError(t, primary.CreateGame(ctx, store.Game{ID: game, Key: "native", Name: "Native"}))

	qc := cache.NewMemory(16, time.Minute)
	return &fixture{
		primary: primary,
		cache:   qc,
		game:    game,
		c: &CommentCounter{
			Store:    primary,
			Resolver: resolver.New(primary, ls, zap.NewNop()),
			Cache:    qc,
			Log:      zap.NewNop(),
		},
	}
}

func event(t *testing.T, eventID, gameID string) []byte {
	t.Helper()
	b, err := json.Marshal(CommentEvent{EventID: eventID, GameID: gameID, CommentID: uuid.NewString(), CreatedAt: time.Now().UTC().Format(time.RFC3339)})
	require.NoError(t, err)
	return b
}

func (f *fixture) count(t *testing.T, id uuid.UUID) int {
	t.Helper()
	g, err := f.primary.GetGame(context.Background(), id)
	require.NoError(t, err)
	return g.CommentCount
}

func TestHandle_CreateAndDeleteAdjustCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.c.Handle(ctx, "social.comments.create", event(t, "e1", f.game.String())))
	require.NoError(t, f.c.Handle(ctx, "social.comments.create", event(t, "e2", f.game.String())))
	assert.Equal(t, 2, f.count(t, f.game))

	require.NoError(t, f.c.Handle(ctx, "social.comments.delete", event(t, "e3", f.game.String())))
	assert.Equal(t, 1, f.count(t, f.game))
}

func TestHandle_RedeliveryAppliesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := event(t, "e1", f.game.String())

	require.NoError(t, f.c.Handle(ctx, "social.comments.create", data))
	require.NoError(t, f.c.Handle(ctx, "social.comments.create", data))
	assert.Equal(t, 1, f.count(t, f.game))
}

func TestHandle_DeleteNeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.Handle(context.Background(), "social.comments.delete", event(t, "e1", f.game.String())))
	assert.Equal(t, 0, f.count(t, f.game))
}

func TestHandle_LegacyGameIsCopiedThenCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.c.Handle(ctx, "social.comments.create", event(t, "e1", "5")))
	g, err := f.primary.GameByLegacyID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, g.CommentCount)
}

func TestHandle_EvictsCacheOnlyWhenApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := event(t, "e1", f.game.String())

	require.NoError(t, f.cache.Set(ctx, "fp", cache.Entry{}, time.Minute))
	require.NoError(t, f.c.Handle(ctx, "social.comments.create", data))
	assert.Equal(t, 0, f.cache.Len())

	require.NoError(t, f.cache.Set(ctx, "fp", cache.Entry{}, time.Minute))
	require.NoError(t, f.c.Handle(ctx, "social.comments.create", data))
	assert.Equal(t, 1, f.cache.Len())
}

func TestHandle_IgnoresOtherCommentActions(t *testing.T) {
	f := newFixture(t)
	for _, subject := range []string{"social.comments.update", "social.comments.vote"} {
		require.NoError(t, f.c.Handle(context.Background(), subject, []byte("not json")), subject)
	}
	assert.Equal(t, 0, f.count(t, f.game))
}

func TestHandle_UnprocessableEventsArePermanent(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name    string
		subject string
		data    []byte
	}{
		{"unknown action", "social.comments.pin", event(t, "e1", f.game.String())},
		{"bad json", "social.comments.create", []byte("{")},
		{"missing event id", "social.comments.create", event(t, " ", f.game.String())},
		{"invalid game reference", "social.comments.create", event(t, "e2", "abc")},
		{"unknown game", "social.comments.create", event(t, "e3", uuid.NewString())},
		{"unknown legacy game", "social.comments.create", event(t, "e4", "404")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.c.Handle(context.Background(), tc.subject, tc.data)
			assert.True(t, errors.Is(err, errPoison), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.count(t, f.game))
}
