package migration

import (
	"context"
	"fmt"

	"github.com/smallbiznis/marketplace/internal/config"
	pluginmanagerdomain "github.com/smallbiznis/marketplace/internal/pluginmanager/domain"
	"go.uber.org/zap"
)

const MarketplacePlugin = "Marketplace"

// UpgradeMarketplaceFlag moves the legacy general.enable_marketplace switch onto
// the plugin activation registry and removes it from the settings file.
func UpgradeMarketplaceFlag(ctx context.Context, settings *config.SettingsHolder, manager pluginmanagerdomain.Manager, log *zap.Logger) error {
	flag := settings.Get().General.EnableMarketplace
	if flag == nil {
		return nil
	}
	enabled := *flag

	if err := settings.Update(func(s *config.GeneralSettings) {
		s.General.EnableMarketplace = nil
	}); err != nil {
		return fmt.Errorf("remove enable_marketplace: %w", err)
	}

	if !enabled {
		log.Info("legacy marketplace flag removed", zap.Bool("enabled", false))
		return nil
	}

	active, err := manager.IsPluginActivated(ctx, MarketplacePlugin)
	if err != nil {
		return err
	}
	if !active {
		if err := manager.ActivatePlugin(ctx, MarketplacePlugin); err != nil {
			return fmt.Errorf("activate %s: %w", MarketplacePlugin, err)
		}
	}
	log.Info("legacy marketplace flag removed",
		zap.Bool("enabled", true),
		zap.Bool("activated", !active),
	)
	return nil
}
