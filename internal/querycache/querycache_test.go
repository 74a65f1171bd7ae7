package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		inv      Tag
		provided Tag
		want     bool
	}{
		{name: "same list tag", inv: List("Service"), provided: List("Service"), want: true},
		{name: "same id", inv: T("Service", "1"), provided: T("Service", "1"), want: true},
		{name: "different id", inv: T("Service", "1"), provided: T("Service", "2"), want: false},
		{name: "list does not hit item", inv: List("Service"), provided: T("Service", "2"), want: false},
		{name: "type-only invalidation hits everything", inv: T("Service", ""), provided: T("Service", "2"), want: true},
		{name: "type-only provided tag is hit by id", inv: T("Service", "2"), provided: T("Service", ""), want: true},
		{name: "other type", inv: List("Coupon"), provided: List("Service"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.inv, tt.provided))
		})
	}
}

func TestTag_String(t *testing.T) {
	assert.Equal(t, "Service:LIST", List("Service").String())
	assert.Equal(t, "User", T("User", "").String())
}

func newRedisCache(t *testing.T) *Redis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "qc:", time.Hour)
}

func backends(t *testing.T) map[string]Cache {
	return map[string]Cache{
		"memory": NewMemory(time.Hour),
		"redis":  newRedisCache(t),
	}
}

func TestCache_InvalidateMarksProvidersStale(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, c.Provide(ctx, "listServices", []Tag{List("Service"), T("Service", "1")}, []byte(`[{"id":"1"}]`), nil))
			require.NoError(t, c.Provide(ctx, "getService/2", []Tag{T("Service", "2")}, []byte(`{"id":"2"}`), nil))
			require.NoError(t, c.Provide(ctx, "listCoupons", []Tag{List("Coupon")}, []byte(`[]`), nil))

			e, ok, err := c.Get(ctx, "listServices")
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, e.Stale)
			assert.JSONEq(t, `[{"id":"1"}]`, string(e.Value))

			var notified []string
			unsubscribe := c.Subscribe(func(keys []string) { notified = append(notified, keys...) })
			defer unsubscribe()

			keys, err := c.Invalidate(ctx, []Tag{List("Service")})
			require.NoError(t, err)
			assert.Equal(t, []string{"listServices"}, keys)
			assert.Equal(t, []string{"listServices"}, notified)

			e, ok, err = c.Get(ctx, "listServices")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, e.Stale)

			e, _, err = c.Get(ctx, "getService/2")
			require.NoError(t, err)
			assert.False(t, e.Stale)

			e, _, err = c.Get(ctx, "listCoupons")
			require.NoError(t, err)
			assert.False(t, e.Stale)
		})
	}
}

func TestCache_ProvideRefreshesStaleEntry(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, c.Provide(ctx, "k", []Tag{List("Review")}, []byte(`1`), nil))
			_, err := c.Invalidate(ctx, []Tag{T("Review", "")})
			require.NoError(t, err)

			require.NoError(t, c.Provide(ctx, "k", []Tag{List("Review")}, []byte(`2`), nil))
			e, ok, err := c.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, e.Stale)
			assert.Equal(t, "2", string(e.Value))
		})
	}
}

func TestCache_InvalidateUnknownTag(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			keys, err := c.Invalidate(context.Background(), []Tag{List("Transaction")})
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Provide(ctx, "k", []Tag{List("User")}, []byte(`{}`), nil))
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	keys, err := c.Invalidate(ctx, []Tag{List("User")})
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemory_ProvideReplacesTags(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	require.NoError(t, c.Provide(ctx, "k", []Tag{List("User")}, []byte(`1`), nil))
	require.NoError(t, c.Provide(ctx, "k", []Tag{List("Coupon")}, []byte(`2`), nil))

	keys, err := c.Invalidate(ctx, []Tag{List("User")})
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedis_DropsExpiredIndexMembers(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedis(client, "qc:", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Provide(ctx, "k", []Tag{List("Subscription")}, []byte(`[]`), nil))
	assert.Equal(t, time.Minute, mr.TTL("qc:entry:k"))

	mr.FastForward(2 * time.Minute)

	keys, err := c.Invalidate(ctx, []Tag{List("Subscription")})
	require.NoError(t, err)
	assert.Empty(t, keys)
	members, err := mr.Members("qc:tag:Subscription")
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestCache_ProvideAfterConcurrentInvalidationIsStale(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seen, err := c.Marks(ctx)
			require.NoError(t, err)

			// Мутация завершилась, пока запрос был в полёте: записи ещё нет.
			keys, err := c.Invalidate(ctx, []Tag{List("Service")})
			require.NoError(t, err)
			assert.Empty(t, keys)

			require.NoError(t, c.Provide(ctx, "listServices", []Tag{List("Service")}, []byte(`[]`), seen))
			e, ok, err := c.Get(ctx, "listServices")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, e.Stale)

			// Инвалидация другого типа не задевает запрос.
			seen, err = c.Marks(ctx)
			require.NoError(t, err)
			_, err = c.Invalidate(ctx, []Tag{List("Coupon")})
			require.NoError(t, err)
			require.NoError(t, c.Provide(ctx, "listServices", []Tag{List("Service")}, []byte(`[]`), seen))
			e, ok, err = c.Get(ctx, "listServices")
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, e.Stale)
		})
	}
}
