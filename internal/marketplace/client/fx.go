package client

import "go.uber.org/fx"

var Module = fx.Module("marketplace.client",
	fx.Provide(New),
)
