package api

import "go.uber.org/fx"

var Module = fx.Module("marketplace.api",
	fx.Provide(NewFactory),
)
