package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// getScript reads the current generation and the entry in one round trip.
const getScript = `
local gen = redis.call("GET", KEYS[1])
if not gen then
  gen = "0"
end
return redis.call("GET", ARGV[1] .. ":" .. gen .. ":" .. ARGV[2])
`

const putScript = `
local gen = redis.call("GET", KEYS[1])
if not gen then
  gen = "0"
end
redis.call("SET", ARGV[1] .. ":" .. gen .. ":" .. ARGV[2], ARGV[3], "PX", ARGV[4])
return gen
`

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	get    *redis.Script
	put    *redis.Script
}

// NewRedis returns a cache shared by every server using client.
// ClearAll bumps a generation counter so older entries become unreachable at once.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) (Cache, error) {
	if client == nil {
		return nil, errors.New("redis cache requires a client")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "marketplace:cache"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		get:    redis.NewScript(getScript),
		put:    redis.NewScript(putScript),
	}, nil
}

func (c *redisCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.get.Run(ctx, c.client, []string{c.generationKey()}, c.prefix, key).Text()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache get: %w", err)
	}
	return []byte(payload), true, nil
}

func (c *redisCache) Put(ctx context.Context, key string, payload []byte) error {
	err := c.put.Run(ctx, c.client, []string{c.generationKey()}, c.prefix, key, payload, c.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cache put: %w", err)
	}
	return nil
}

func (c *redisCache) ClearAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("redis cache clear: %w", err)
	}
	return nil
}
