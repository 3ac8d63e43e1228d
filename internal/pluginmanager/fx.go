package pluginmanager

import (
	"github.com/smallbiznis/marketplace/internal/pluginmanager/repository"
	"github.com/smallbiznis/marketplace/internal/pluginmanager/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pluginmanager.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
