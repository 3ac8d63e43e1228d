package repository

import (
	"context"
	"testing"

	settingsdomain "github.com/smallbiznis/marketplace/internal/settings/domain"
	"github.com/smallbiznis/marketplace/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionLifecycle(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&settingsdomain.Option{}))

	ctx := context.Background()
	repo := Provide()

	_, ok, err := repo.Get(ctx, conn, "marketplace_license_key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, conn, "marketplace_license_key", "first"))
	require.NoError(t, repo.Set(ctx, conn, "marketplace_license_key", "second"))

	value, ok, err := repo.Get(ctx, conn, "marketplace_license_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)

	require.NoError(t, repo.Delete(ctx, conn, "marketplace_license_key"))
	require.NoError(t, repo.Delete(ctx, conn, "marketplace_license_key"))

	_, ok, err = repo.Get(ctx, conn, "marketplace_license_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOptionRejectsBlankName(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	err = Provide().Set(context.Background(), conn, "  ", "value")
	assert.ErrorIs(t, err, settingsdomain.ErrInvalidName)
}
