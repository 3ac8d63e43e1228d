package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/marketplace/internal/config"
)

const (
	keyLicenseAttempt = "license:attempt:%s"
	keyLicenseLock    = "license:lock"
)

var (
	ErrRateLimited = errors.New("rate_limited")
	ErrLocked      = errors.New("license_change_in_progress")
)

// LicenseGuard throttles license-key validation per login and serializes
// license mutations across servers. A disabled guard allows everything.
type LicenseGuard struct {
	enabled bool

	attempts *attemptBucket
	mutex    *redisMutex
}

func NewLicenseGuard(cfg config.Config, client *redis.Client) (*LicenseGuard, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit requires REDIS_ADDR")
	}
	if limitCfg.LicenseAttemptRate <= 0 || limitCfg.LicenseAttemptBurst <= 0 {
		return nil, errors.New("license attempt rate limit must be positive")
	}
	lockTTL := limitCfg.LicenseLockTTL
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	return &LicenseGuard{
		enabled:  true,
		attempts: newAttemptBucket(client, limitCfg.LicenseAttemptRate, limitCfg.LicenseAttemptBurst),
		mutex:    newRedisMutex(client, keyLicenseLock, lockTTL),
	}, nil
}

func (g *LicenseGuard) Enabled() bool {
	return g != nil && g.enabled
}

// AllowAttempt consumes one validation attempt for login.
func (g *LicenseGuard) AllowAttempt(ctx context.Context, login string) error {
	if !g.Enabled() {
		return nil
	}
	taken, wait, err := g.attempts.take(ctx, fmt.Sprintf(keyLicenseAttempt, strings.TrimSpace(login)))
	if err != nil {
		return err
	}
	if !taken {
		return fmt.Errorf("%w: retry after %s", ErrRateLimited, wait.Round(time.Second))
	}
	return nil
}

// Lock takes the cluster-wide license mutation lock. The returned func releases it.
func (g *LicenseGuard) Lock(ctx context.Context) (func(), error) {
	if !g.Enabled() {
		return func() {}, nil
	}
	owner, err := g.mutex.acquire(ctx)
	if err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, ErrLocked
	}
	return func() {
		_ = g.mutex.release(context.WithoutCancel(ctx), owner)
	}, nil
}
