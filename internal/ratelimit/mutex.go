package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// unlockScript deletes KEYS[1] only while it still holds our token.
const unlockScript = `
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
  return 0
end
return redis.call("DEL", KEYS[1])
`

// redisMutex is a single-key lease shared by every server of the instance.
type redisMutex struct {
	client *redis.Client
	unlock *redis.Script
	key    string
	lease  time.Duration
}

func newRedisMutex(client *redis.Client, key string, lease time.Duration) *redisMutex {
	return &redisMutex{
		client: client,
		unlock: redis.NewScript(unlockScript),
		key:    key,
		lease:  lease,
	}
}

// acquire returns the owner token, or "" when another holder has the lease.
func (m *redisMutex) acquire(ctx context.Context) (string, error) {
	owner := uuid.NewString()
	won, err := m.client.SetNX(ctx, m.key, owner, m.lease).Result()
	if err != nil || !won {
		return "", err
	}
	return owner, nil
}

func (m *redisMutex) release(ctx context.Context, owner string) error {
	return m.unlock.Run(ctx, m.client, []string{m.key}, owner).Err()
}
