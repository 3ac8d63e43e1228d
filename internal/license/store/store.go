package store

import (
	"context"
	"strings"

	licensedomain "github.com/smallbiznis/marketplace/internal/license/domain"
	settingsdomain "github.com/smallbiznis/marketplace/internal/settings/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Settings settingsdomain.Repository
}

type store struct {
	settings settingsdomain.Repository
}

func Provide(p Params) licensedomain.Store {
	return &store{settings: p.Settings}
}

func (s *store) Get(ctx context.Context, db *gorm.DB) (string, bool, error) {
	value, ok, err := s.settings.Get(ctx, db, licensedomain.OptionName)
	if err != nil || !ok {
		return "", false, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Set overwrites the stored key. An empty key removes it.
func (s *store) Set(ctx context.Context, db *gorm.DB, licenseKey string) error {
	licenseKey = strings.TrimSpace(licenseKey)
	if licenseKey == "" {
		return s.Delete(ctx, db)
	}
	return s.settings.Set(ctx, db, licensedomain.OptionName, licenseKey)
}

func (s *store) Delete(ctx context.Context, db *gorm.DB) error {
	return s.settings.Delete(ctx, db, licensedomain.OptionName)
}
