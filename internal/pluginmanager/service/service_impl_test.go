package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/pluginmanager/domain"
	"github.com/smallbiznis/marketplace/internal/pluginmanager/repository"
	"github.com/smallbiznis/marketplace/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) domain.Manager {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Activation{}))
	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
}

func TestActivatePluginIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	active, err := m.IsPluginActivated(ctx, "Marketplace")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, m.ActivatePlugin(ctx, "Marketplace"))
	require.NoError(t, m.ActivatePlugin(ctx, "Marketplace"))
	require.NoError(t, m.ActivatePlugin(ctx, "CustomAlerts"))

	active, err = m.IsPluginActivated(ctx, "Marketplace")
	require.NoError(t, err)
	assert.True(t, active)

	names, err := m.ActivatedPlugins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CustomAlerts", "Marketplace"}, names)
}

func TestActivatePluginRejectsInvalidNames(t *testing.T) {
	m := newTestManager(t)
	for _, name := range []string{"", "1Plugin", "../etc", "Plugin-Name", strings.Repeat("a", 61)} {
		assert.ErrorIs(t, m.ActivatePlugin(context.Background(), name), domain.ErrInvalidPluginName, name)
	}
}
