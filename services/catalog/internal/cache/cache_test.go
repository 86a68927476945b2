package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/game-store/services/catalog/internal/domain"
)

func entry(names ...string) Entry {
	e := Entry{Total: len(names)}
	for _, n := range names {
		e.Items = append(e.Items, domain.CatalogItem{Name: n})
	}
	return e
}

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory(8, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "fp", entry("a", "b"), time.Minute))
	got, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, "a", got.Items[0].Name)
}

func TestMemory_PerEntryTTL(t *testing.T) {
	c := NewMemory(8, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fp", entry("a"), time.Minute))
	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx, "fp")
	assert.True(t, ok, "entry should still be live")

	now = now.Add(2 * time.Second)
	_, ok, _ = c.Get(ctx, "fp")
	assert.False(t, ok, "entry should have expired")
	assert.Zero(t, c.Len())
}

func TestMemory_Evictions(t *testing.T) {
	c := NewMemory(8, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", entry("x"), 0))
	require.NoError(t, c.Set(ctx, "b", entry("y"), 0))

	require.NoError(t, c.Evict(ctx, "a"))
	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "b")
	assert.True(t, ok)

	require.NoError(t, c.EvictAll(ctx))
	assert.Zero(t, c.Len())
}

func TestMemory_CapacityIsBounded(t *testing.T) {
	c := NewMemory(2, time.Minute)
	ctx := context.Background()
	for _, fp := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, fp, entry(fp), 0))
	}
	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok, "least recently used entry should be gone")
}

func TestNew_SelectsBackend(t *testing.T) {
	c, err := New("", 0, 0, false)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	c, err = New("", 0, 0, true)
	assert.Error(t, err)
	assert.Nil(t, c)

	c, err = New("redis://localhost:6379/0", 0, 0, true)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, c)
}

type recordingPublisher struct {
	subjects []string
	payloads []string
	err      error
}

func (p *recordingPublisher) Publish(subj string, data []byte) error {
	p.subjects = append(p.subjects, subj)
	p.payloads = append(p.payloads, string(data))
	return p.err
}

func TestBroadcasting_PublishesEvictions(t *testing.T) {
	inner := NewMemory(8, time.Minute)
	pub := &recordingPublisher{}
	c := NewBroadcasting(inner, pub, "", nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fp", entry("a"), 0))
	require.NoError(t, c.Evict(ctx, "fp"))
	require.NoError(t, c.EvictAll(ctx))

	assert.Equal(t, []string{InvalidateSubject, InvalidateSubject}, pub.subjects)
	assert.Equal(t, []string{"fp", "ALL"}, pub.payloads)
}

func TestBroadcasting_PublishFailureDoesNotFailEviction(t *testing.T) {
	c := NewBroadcasting(NewMemory(8, time.Minute), &recordingPublisher{err: errors.New("down")}, "", nil)
	assert.NoError(t, c.EvictAll(context.Background()))
}

func TestApplyInvalidation(t *testing.T) {
	c := NewMemory(8, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", entry("x"), 0))
	require.NoError(t, c.Set(ctx, "b", entry("y"), 0))

	require.NoError(t, ApplyInvalidation(ctx, c, []byte("a")))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, ApplyInvalidation(ctx, c, []byte("ALL")))
	assert.Zero(t, c.Len())
}

func TestRedis_BreakerOpensWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := NewRedisClient(client, time.Minute)
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()

	for i := 0; i < breakerFailures; i++ {
		_, ok, err := r.Get(ctx, "fp")
		require.Error(t, err)
		assert.False(t, ok)
	}
	_, _, err := r.Get(ctx, "fp")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestRedisKey_IncludesGeneration(t *testing.T) {
	assert.Equal(t, "catalog:query:0:fp", redisKey(0, "fp"))
	assert.NotEqual(t, redisKey(1, "fp"), redisKey(2, "fp"))
}
