package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache is a redis-backed read-through cache for event reads. It is never
// authoritative: capacity accounting always goes to the primary store, the
// cache only shields hot GET/list traffic. Every operation fails open.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Cache{rdb: rdb, ttl: cfg.TTL, log: log}
}

// Get unmarshals the cached value into dest, reporting whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()

	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.DebugContext(ctx, "cache get failed", "key", key, "err", err)
		}

		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.DebugContext(ctx, "cache payload corrupt", "key", key, "err", err)
		return false
	}

	return true
}

func (c *Cache) Set(ctx context.Context, key string, val any) {
	raw, err := json.Marshal(val)

	if err != nil {
		c.log.DebugContext(ctx, "cache marshal failed", "key", key, "err", err)
		return
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.DebugContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.DebugContext(ctx, "cache delete failed", "keys", keys, "err", err)
	}
}

// this ping function checks redis connectivity

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// this closes the client

func (c *Cache) Close() error {
	return c.rdb.Close()
}
