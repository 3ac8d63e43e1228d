package plugins

import (
	"github.com/smallbiznis/marketplace/internal/marketplace/client"
	"go.uber.org/fx"
)

var Module = fx.Module("plugins.service",
	fx.Provide(func(c *client.Client) Catalogue { return c }),
	fx.Provide(New),
)
