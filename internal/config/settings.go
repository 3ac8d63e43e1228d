package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// GeneralSettings is the persisted, admin-editable settings document.
type GeneralSettings struct {
	General     GeneralSection     `mapstructure:"general" yaml:"general"`
	Marketplace MarketplaceSection `mapstructure:"marketplace" yaml:"marketplace"`
}

type GeneralSection struct {
	// EnableMarketplace is the legacy switch replaced by Marketplace.Enabled.
	// It is only read by the upgrade step and removed afterwards.
	EnableMarketplace      *bool `mapstructure:"enable_marketplace" yaml:"enable_marketplace,omitempty"`
	EnablePluginsAdmin     bool  `mapstructure:"enable_plugins_admin" yaml:"enable_plugins_admin"`
	MultiServerEnvironment bool  `mapstructure:"multi_server_environment" yaml:"multi_server_environment"`
}

type MarketplaceSection struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		General: GeneralSection{
			EnablePluginsAdmin: true,
		},
		Marketplace: MarketplaceSection{
			Enabled: true,
		},
	}
}

// SettingsHolder keeps the current GeneralSettings and writes them back to disk.
type SettingsHolder struct {
	path    string
	log     *zap.Logger
	saveMu  sync.Mutex
	current atomic.Value // holds GeneralSettings
}

func NewSettingsHolder(cfg Config, log *zap.Logger) (*SettingsHolder, error) {
	return LoadSettings(cfg.SettingsPath, log)
}

// LoadSettings reads the settings file at path. A missing file yields defaults.
func LoadSettings(path string, log *zap.Logger) (*SettingsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	holder := &SettingsHolder{
		path: path,
		log:  log.Named("config.settings"),
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := DefaultGeneralSettings()
	v.SetDefault("general.enable_plugins_admin", defaults.General.EnablePluginsAdmin)
	v.SetDefault("general.multi_server_environment", defaults.General.MultiServerEnvironment)
	v.SetDefault("marketplace.enabled", defaults.Marketplace.Enabled)

	exists := true
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read settings %s: %w", path, err)
			}
		}
		exists = false
	}

	var settings GeneralSettings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}
	holder.current.Store(settings)

	if exists {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated GeneralSettings
			if err := v.Unmarshal(&updated); err != nil {
				holder.log.Warn("settings reload failed", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			holder.log.Info("settings reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *SettingsHolder) Get() GeneralSettings {
	return h.current.Load().(GeneralSettings)
}

// Update applies fn to a copy of the current settings and saves the result.
func (h *SettingsHolder) Update(fn func(*GeneralSettings)) error {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	next := h.Get()
	if next.General.EnableMarketplace != nil {
		flag := *next.General.EnableMarketplace
		next.General.EnableMarketplace = &flag
	}
	fn(&next)

	if err := next.Save(h.path); err != nil {
		return err
	}
	h.current.Store(next)
	return nil
}

// Save serializes the whole document and atomically replaces the file at path.
func (s GeneralSettings) Save(path string) error {
	payload, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
