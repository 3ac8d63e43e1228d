package store

import (
	"context"
	"testing"

	settingsdomain "github.com/smallbiznis/marketplace/internal/settings/domain"
	settingsrepo "github.com/smallbiznis/marketplace/internal/settings/repository"
	"github.com/smallbiznis/marketplace/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&settingsdomain.Option{}))

	s := Provide(Params{Settings: settingsrepo.Provide()})
	ctx := context.Background()

	_, ok, err := s.Get(ctx, conn)
	require.NoError(t, err)
	assert.False(t, ok, "no key means free tier")

	require.NoError(t, s.Set(ctx, conn, " key-1 "))
	key, ok, err := s.Get(ctx, conn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "key-1", key)

	require.NoError(t, s.Set(ctx, conn, "key-2"))
	key, _, err = s.Get(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, "key-2", key, "at most one key is stored")

	require.NoError(t, s.Set(ctx, conn, ""))
	_, ok, err = s.Get(ctx, conn)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, conn), "deleting an absent key is a no-op")
}
