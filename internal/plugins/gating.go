package plugins

import "errors"

var (
	ErrMarketplaceDisabled  = errors.New("marketplace_disabled")
	ErrPluginsAdminDisabled = errors.New("plugins_admin_disabled")
)

// CheckEnabled reports whether the marketplace may be used with the current settings.
func (s *Service) CheckEnabled() error {
	settings := s.settings.Get()
	if !settings.Marketplace.Enabled {
		return ErrMarketplaceDisabled
	}
	if !settings.General.EnablePluginsAdmin {
		return ErrPluginsAdminDisabled
	}
	return nil
}
