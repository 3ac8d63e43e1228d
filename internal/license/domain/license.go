package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// OptionName is the settings row holding the instance license key.
const OptionName = "marketplace_license_key"

// Store persists the single instance license key. Absence means free tier.
type Store interface {
	Get(ctx context.Context, db *gorm.DB) (string, bool, error)
	Set(ctx context.Context, db *gorm.DB, licenseKey string) error
	Delete(ctx context.Context, db *gorm.DB) error
}

type Service interface {
	SaveLicenseKey(ctx context.Context, licenseKey string) error
	DeleteLicenseKey(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
}

// Status describes the stored license without revealing it.
type Status struct {
	HasLicenseKey bool   `json:"has_license_key"`
	Fingerprint   string `json:"fingerprint,omitempty"`
}

var (
	ErrInvalidLicenseKey = errors.New("invalid_license_key")
)
