package cache

import (
	"context"
	"testing"
	"time"

	"bookingcrm/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *BookingCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(Options{Addr: mr.Addr()})
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewBookingCache(rdb, ttl)
}

func TestBookingCache_NilClientIsNoop(t *testing.T) {
	c := NewBookingCache(nil, time.Minute)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	c.Set(ctx, "bookingcrm:bookings:v0:all:*", []domain.Booking{{ID: "a"}})
	c.Invalidate(ctx)
	got, key, ok := c.Get(ctx, "")
	assert.False(t, ok)
	assert.Empty(t, key)
	assert.Nil(t, got)

	var none *BookingCache
	assert.False(t, none.Enabled())
}

func TestNewRedisClient_Unconfigured(t *testing.T) {
	assert.Nil(t, NewRedisClient(Options{}))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	assert.Nil(t, NewRedisClient(Options{Addr: "127.0.0.1:1"}))
}

func TestBookingCache_ScopesAndTTL(t *testing.T) {
	mr, c := setupRedis(t, time.Minute)
	ctx := context.Background()

	_, allKey, ok := c.Get(ctx, "")
	require.False(t, ok)
	assert.Equal(t, "bookingcrm:bookings:v0:all:*", allKey)
	c.Set(ctx, allKey, []domain.Booking{{ID: "a"}, {ID: "b"}})

	_, ownKey, ok := c.Get(ctx, "u-bdm")
	require.False(t, ok)
	assert.Equal(t, "bookingcrm:bookings:v0:all:u-bdm", ownKey)
	c.Set(ctx, ownKey, []domain.Booking{{ID: "a"}})

	all, _, ok := c.Get(ctx, "")
	require.True(t, ok)
	assert.Len(t, all, 2)
	own, _, ok := c.Get(ctx, "u-bdm")
	require.True(t, ok)
	assert.Equal(t, "a", own[0].ID)

	assert.Equal(t, time.Minute, mr.TTL(allKey))
	mr.FastForward(time.Minute + time.Second)
	_, _, ok = c.Get(ctx, "")
	assert.False(t, ok)
}

func TestBookingCache_InvalidateBumpsVersion(t *testing.T) {
	_, c := setupRedis(t, time.Minute)
	ctx := context.Background()

	_, key, _ := c.Get(ctx, "u-bdm")
	c.Set(ctx, key, []domain.Booking{{ID: "a"}})

	c.Invalidate(ctx)
	_, fresh, ok := c.Get(ctx, "u-bdm")
	assert.False(t, ok)
	assert.Equal(t, "bookingcrm:bookings:v1:all:u-bdm", fresh)
}

func TestBookingCache_LoadRacingInvalidateStaysUnseen(t *testing.T) {
	_, c := setupRedis(t, time.Minute)
	ctx := context.Background()

	_, key, ok := c.Get(ctx, "")
	require.False(t, ok)

	c.Invalidate(ctx)
	c.Set(ctx, key, []domain.Booking{{ID: "before-write"}})

	got, _, ok := c.Get(ctx, "")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestBookingCache_CorruptEntryIsMiss(t *testing.T) {
	mr, c := setupRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, mr.Set("bookingcrm:bookings:v0:all:*", "{not json"))
	got, key, ok := c.Get(ctx, "")
	assert.False(t, ok)
	assert.Nil(t, got)

	c.Set(ctx, key, []domain.Booking{{ID: "a"}})
	got, _, ok = c.Get(ctx, "")
	require.True(t, ok)
	assert.Equal(t, "a", got[0].ID)
}

func TestBookingCache_VersionReadErrorIsMiss(t *testing.T) {
	mr, c := setupRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, mr.Set(versionKey, "not-a-number"))
	_, key, ok := c.Get(ctx, "")
	assert.False(t, ok)
	assert.Empty(t, key)
}

func TestBookingCache_ZeroTTLDisables(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	assert.False(t, NewBookingCache(rdb, 0).Enabled())
}
