package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Option is a single persisted name/value setting.
type Option struct {
	Name      string    `gorm:"column:option_name;type:varchar(191);primaryKey"`
	Value     string    `gorm:"column:option_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName sets the database table name.
func (Option) TableName() string { return "options" }

// Repository is the persistent key-value settings store.
type Repository interface {
	Get(ctx context.Context, db *gorm.DB, name string) (string, bool, error)
	Set(ctx context.Context, db *gorm.DB, name string, value string) error
	Delete(ctx context.Context, db *gorm.DB, name string) error
}

var ErrInvalidName = errors.New("invalid_option_name")
