package consumer

import (
	"github.com/smallbiznis/marketplace/internal/marketplace/client"
	"go.uber.org/fx"
)

var Module = fx.Module("consumer.resolver",
	fx.Provide(func(c *client.Client) Source { return c }),
	fx.Provide(NewFactory),
)
