package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	holder, err := LoadSettings(filepath.Join(t.TempDir(), "general.yml"), nil)
	require.NoError(t, err)

	settings := holder.Get()
	assert.True(t, settings.Marketplace.Enabled)
	assert.True(t, settings.General.EnablePluginsAdmin)
	assert.Nil(t, settings.General.EnableMarketplace)
}

func TestLoadSettingsReadsLegacyFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "general.yml")
	content := "general:\n  enable_marketplace: true\n  multi_server_environment: true\nmarketplace:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	holder, err := LoadSettings(path, nil)
	require.NoError(t, err)

	settings := holder.Get()
	require.NotNil(t, settings.General.EnableMarketplace)
	assert.True(t, *settings.General.EnableMarketplace)
	assert.True(t, settings.General.MultiServerEnvironment)
	assert.False(t, settings.Marketplace.Enabled)
}

func TestSettingsUpdatePersistsWholeDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "general.yml")
	holder, err := LoadSettings(path, nil)
	require.NoError(t, err)

	err = holder.Update(func(s *GeneralSettings) {
		s.Marketplace.Enabled = false
		s.General.MultiServerEnvironment = true
	})
	require.NoError(t, err)

	reloaded, err := LoadSettings(path, nil)
	require.NoError(t, err)
	assert.Equal(t, holder.Get(), reloaded.Get())
	assert.False(t, reloaded.Get().Marketplace.Enabled)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSettingsUpdateRemovesLegacyFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "general.yml")
	require.NoError(t, os.WriteFile(path, []byte("general:\n  enable_marketplace: false\n"), 0o644))

	holder, err := LoadSettings(path, nil)
	require.NoError(t, err)
	require.NotNil(t, holder.Get().General.EnableMarketplace)

	require.NoError(t, holder.Update(func(s *GeneralSettings) {
		s.General.EnableMarketplace = nil
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "enable_marketplace")
	assert.Nil(t, holder.Get().General.EnableMarketplace)
}
