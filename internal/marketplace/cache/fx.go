package cache

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("marketplace.cache",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock
	Redis *redis.Client `optional:"true"`
}

// New selects the cache backend configured by MARKETPLACE_CACHE_BACKEND.
func New(p Params) (Cache, error) {
	cfg := p.Cfg.Marketplace
	log := p.Log.Named("marketplace.cache")

	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		if p.Redis == nil {
			return nil, fmt.Errorf("marketplace cache backend %q requires REDIS_ADDR", cfg.CacheBackend)
		}
		log.Info("using redis marketplace cache", zap.String("prefix", cfg.CachePrefix), zap.Duration("ttl", cfg.CacheTTL))
		return NewRedis(p.Redis, cfg.CachePrefix, cfg.CacheTTL)
	default:
		log.Info("using in-memory marketplace cache", zap.Duration("ttl", cfg.CacheTTL))
		return NewMemory(cfg.CacheTTL, p.Clock.Now), nil
	}
}
