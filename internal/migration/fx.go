package migration

import (
	"context"

	"github.com/smallbiznis/marketplace/internal/config"
	pluginmanagerdomain "github.com/smallbiznis/marketplace/internal/pluginmanager/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Cfg      config.Config
	Settings *config.SettingsHolder
	Manager  pluginmanagerdomain.Manager
	Log      *zap.Logger
}

var Module = fx.Module("migrations",
	fx.Invoke(func(p Params) error {
		log := p.Log.Named("migration")
		if p.Cfg.DBMigrate {
			if err := Migrate(p.DB); err != nil {
				return err
			}
			log.Info("database schema is up to date", zap.String("dialect", p.DB.Dialector.Name()))
		}
		return UpgradeMarketplaceFlag(context.Background(), p.Settings, p.Manager, log)
	}),
)
