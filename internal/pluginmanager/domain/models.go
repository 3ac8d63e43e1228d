package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Activation records that a plugin is switched on for this instance.
type Activation struct {
	PluginName  string    `gorm:"column:plugin_name;type:varchar(60);primaryKey" json:"plugin_name"`
	ActivatedAt time.Time `gorm:"column:activated_at;not null" json:"activated_at"`
}

func (Activation) TableName() string { return "plugin_activations" }

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, name string) (*Activation, error)
	Insert(ctx context.Context, db *gorm.DB, activation *Activation) error
	List(ctx context.Context, db *gorm.DB) ([]Activation, error)
}

// Manager is the activation registry.
type Manager interface {
	IsPluginActivated(ctx context.Context, name string) (bool, error)
	ActivatePlugin(ctx context.Context, name string) error
	ActivatedPlugins(ctx context.Context) ([]string, error)
}

var (
	ErrInvalidPluginName = errors.New("invalid_plugin_name")
)
