package license

import (
	"github.com/smallbiznis/marketplace/internal/license/service"
	"github.com/smallbiznis/marketplace/internal/license/store"
	"github.com/smallbiznis/marketplace/internal/marketplace/client"
	"go.uber.org/fx"
)

var Module = fx.Module("license.service",
	fx.Provide(store.Provide),
	fx.Provide(func(c *client.Client) service.CacheClearer { return c }),
	fx.Provide(service.New),
)
