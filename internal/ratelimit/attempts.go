package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// attemptScript refills the bucket in KEYS[1] at ARGV[1] tokens per second up
// to ARGV[2] and takes one token. It answers {taken, retry_after_ms}.
const attemptScript = `
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local ttl_ms = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now_ms = clock[1] * 1000 + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "left", "at")
local left = tonumber(state[1]) or capacity
local at = tonumber(state[2]) or now_ms

local elapsed = math.max(0, now_ms - at)
left = math.min(capacity, left + elapsed * rate / 1000)

local taken = 0
local retry_ms = 0
if left >= 1 then
  taken = 1
  left = left - 1
else
  retry_ms = math.ceil((1 - left) * 1000 / rate)
end

redis.call("HSET", KEYS[1], "left", tostring(left), "at", now_ms)
redis.call("PEXPIRE", KEYS[1], ttl_ms)
return {taken, retry_ms}
`

var errBadAttemptReply = errors.New("unexpected attempt script reply")

// attemptBucket counts license validation attempts in Redis.
type attemptBucket struct {
	client   *redis.Client
	script   *redis.Script
	rate     float64
	capacity int
	ttl      time.Duration
}

func newAttemptBucket(client *redis.Client, rate float64, capacity int) *attemptBucket {
	return &attemptBucket{
		client:   client,
		script:   redis.NewScript(attemptScript),
		rate:     rate,
		capacity: capacity,
		ttl:      refillWindow(rate, capacity),
	}
}

// take consumes one attempt from key. A refused attempt reports how long to wait.
func (b *attemptBucket) take(ctx context.Context, key string) (bool, time.Duration, error) {
	reply, err := b.script.Run(ctx, b.client, []string{key}, b.rate, b.capacity, b.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(reply) != 2 {
		return false, 0, errBadAttemptReply
	}
	return reply[0] == 1, time.Duration(reply[1]) * time.Millisecond, nil
}

// refillWindow keeps idle buckets around for twice the time a full refill takes.
func refillWindow(rate float64, capacity int) time.Duration {
	seconds := math.Ceil(2 * float64(capacity) / rate)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}
