package cardcache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/phrazzld/setgrouper/internal/platform/memory"
	"github.com/phrazzld/setgrouper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, s store.EntryStore, opts ...Option) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	return New(s, append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, memory.NewStore(store.Quota{}))

	payload := []byte(`{"object":"list","data":[]}`)
	require.True(t, c.Set(ctx, Key("Island"), payload))

	got, ok := c.Get(ctx, Key("Island"))
	require.True(t, ok)
	assert.Equal(t, payload, got)

	_, ok = c.Get(ctx, Key("Swamp"))
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore(store.Quota{})
	c, clock := newTestCache(t, s)

	require.True(t, c.Set(ctx, "card_A", []byte("a")))

	clock.Advance(DefaultExpiration - time.Millisecond)
	_, ok := c.Get(ctx, "card_A")
	assert.True(t, ok, "entry just under the expiration is served")

	clock.Advance(time.Millisecond)
	_, ok = c.Get(ctx, "card_A")
	assert.False(t, ok, "entry at exactly the expiration is absent")

	_, err := s.Get(ctx, "card_A")
	assert.ErrorIs(t, err, store.ErrEntryNotFound, "expired entry is deleted from the substrate")
}

func TestCache_RewriteRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, memory.NewStore(store.Quota{}), WithExpiration(time.Hour))

	require.True(t, c.Set(ctx, "card_A", []byte("old")))
	clock.Advance(50 * time.Minute)
	require.True(t, c.Set(ctx, "card_A", []byte("new")))
	clock.Advance(50 * time.Minute)

	got, ok := c.Get(ctx, "card_A")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
	assert.Equal(t, 1, c.Stats(ctx).Count)
}

func TestCache_EvictOldestKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, memory.NewStore(store.Quota{}))

	for i := 0; i < 10; i++ {
		require.True(t, c.Set(ctx, fmt.Sprintf("card_%02d", i), []byte("x")))
		clock.Advance(time.Minute)
	}

	removed := c.EvictOldest(ctx, 3)
	assert.Equal(t, 7, removed)
	assert.Equal(t, []string{"card_07", "card_08", "card_09"}, c.Keys(ctx))

	assert.Zero(t, c.EvictOldest(ctx, 5), "nothing to evict when under the threshold")
	assert.Equal(t, 3, c.EvictOldest(ctx, -1))
	assert.Empty(t, c.Keys(ctx))
}

func TestCache_QuotaEvictsAndRetries(t *testing.T) {
	ctx := context.Background()
	one := store.Entry{Key: "card_00", Data: make([]byte, 20)}.Size()
	s := memory.NewStore(store.Quota{MaxBytes: one * 4})
	c, clock := newTestCache(t, s, WithRetention(2))

	for i := 0; i < 4; i++ {
		require.True(t, c.Set(ctx, fmt.Sprintf("card_%02d", i), make([]byte, 20)))
		clock.Advance(time.Second)
	}

	require.True(t, c.Set(ctx, "card_04", make([]byte, 20)))
	assert.Equal(t, []string{"card_02", "card_03", "card_04"}, c.Keys(ctx))
}

func TestCache_QuotaRetryFails(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore(store.Quota{MaxBytes: 10})
	c, _ := newTestCache(t, s)

	assert.False(t, c.Set(ctx, "card_Huge", make([]byte, 1024)))
	assert.Empty(t, c.Keys(ctx))
}

func TestCache_Stats(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, memory.NewStore(store.Quota{}))

	empty := c.Stats(ctx)
	assert.Zero(t, empty.Count)
	assert.Nil(t, empty.Oldest)

	first := clock.Now()
	require.True(t, c.Set(ctx, "card_A", []byte("aa")))
	clock.Advance(time.Hour)
	require.True(t, c.Set(ctx, "card_B", []byte("bbbb")))

	stats := c.Stats(ctx)
	assert.Equal(t, 2, stats.Count)
	want := store.Entry{Key: "card_A", Data: []byte("aa")}.Size() + store.Entry{Key: "card_B", Data: []byte("bbbb")}.Size()
	assert.Equal(t, want, stats.ApproxBytes)
	require.NotNil(t, stats.Oldest)
	assert.True(t, first.Equal(*stats.Oldest))

	c.Remove(ctx, "card_A")
	assert.Equal(t, []string{"card_B"}, c.Keys(ctx))

	c.Clear(ctx)
	assert.Zero(t, c.Stats(ctx).Count)
}

// brokenStore fails every operation.
type brokenStore struct{}

var errBroken = errors.New("substrate unavailable")

func (brokenStore) Get(context.Context, string) (*store.Entry, error) { return nil, errBroken }
func (brokenStore) Put(context.Context, store.Entry) error { return errBroken }
func (brokenStore) Delete(context.Context, string) error { return errBroken }
func (brokenStore) Clear(context.Context) error { return errBroken }
func (brokenStore) ListByAge(context.Context) ([]store.EntryMeta, error) { return nil, errBroken }
func (brokenStore) Close() error { return nil }

func TestCache_StorageErrorsDegrade(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, brokenStore{})

	_, ok := c.Get(ctx, "card_A")
	assert.False(t, ok)
	assert.False(t, c.Set(ctx, "card_A", []byte("a")))
	assert.NotPanics(t, func() {
		c.Remove(ctx, "card_A")
		c.Clear(ctx)
	})
	assert.Zero(t, c.EvictOldest(ctx, 0))
	assert.Equal(t, Stats{}, c.Stats(ctx))
	assert.Nil(t, c.Keys(ctx))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "card_Fire // Ice", Key("Fire // Ice"))
}
