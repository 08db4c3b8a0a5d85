// Package cache keeps full booking datasets in Redis between writes.
// Every method is a no-op on a nil client so the API runs without Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bookingcrm/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "bookingcrm"
	versionKey = keyPrefix + ":bookings:version"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings. It returns nil when Redis is not
// configured or unreachable.
func NewRedisClient(opts Options) *redis.Client {
	if opts.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("cache: redis unavailable addr=%s error=%q", opts.Addr, err.Error())
		_ = client.Close()
		return nil
	}
	return client
}

type BookingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBookingCache(rdb *redis.Client, ttl time.Duration) *BookingCache {
	return &BookingCache{rdb: rdb, ttl: ttl}
}

func (c *BookingCache) Enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

// Get returns the cached dataset for scope ("" for everything). The key is
// pinned to the version seen here; hand it to Set after loading so a write in
// between leaves the fresh version empty.
func (c *BookingCache) Get(ctx context.Context, scope string) ([]domain.Booking, string, bool) {
	if !c.Enabled() {
		return nil, "", false
	}
	key, err := c.key(ctx, scope)
	if err != nil {
		log.Printf("cache: version lookup failed error=%q", err.Error())
		return nil, "", false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get failed key=%s error=%q", key, err.Error())
		}
		return nil, key, false
	}
	var out []domain.Booking
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("cache: corrupt entry key=%s error=%q", key, err.Error())
		return nil, key, false
	}
	return out, key, true
}

// Set stores bookings under a key returned by Get.
func (c *BookingCache) Set(ctx context.Context, key string, bookings []domain.Booking) {
	if !c.Enabled() || key == "" {
		return
	}
	raw, err := json.Marshal(bookings)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("cache: set failed key=%s error=%q", key, err.Error())
	}
}

// Invalidate drops every cached dataset by bumping the key version.
func (c *BookingCache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		log.Printf("cache: invalidate failed error=%q", err.Error())
	}
}

func (c *BookingCache) key(ctx context.Context, scope string) (string, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	if scope == "" {
		scope = "*"
	}
	return fmt.Sprintf("%s:bookings:v%d:all:%s", keyPrefix, v, scope), nil
}
