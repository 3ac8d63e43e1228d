package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/audit/domain"
	"github.com/smallbiznis/marketplace/internal/audit/repository"
	"github.com/smallbiznis/marketplace/internal/clock"
	obscontext "github.com/smallbiznis/marketplace/internal/observability/context"
	"github.com/smallbiznis/marketplace/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, c clock.Clock) domain.Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: c,
	})
}

func TestRecordUsesContextActorAndMasksKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, clock.NewFakeClock(now))

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, domain.ActorUser, "admin")
	ctx = obscontext.WithClient(ctx, "10.0.0.1", "curl/8")

	require.NoError(t, svc.Record(ctx, domain.Event{
		Action:     "license.save",
		TargetType: "license",
		Metadata: map[string]any{
			"license_key": "0123456789abcdef",
			"fingerprint": "0a1b2c3d",
		},
	}))

	logs, err := svc.Recent(context.Background(), domain.Query{Action: "license.save"})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, domain.ActorUser, entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "admin", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, "****cdef", entry.Metadata["license_key"])
	assert.Equal(t, "0a1b2c3d", entry.Metadata["fingerprint"])
	assert.True(t, entry.CreatedAt.Equal(now))
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc := newTestService(t, nil)

	require.NoError(t, svc.Record(context.Background(), domain.Event{Action: "license.delete"}))

	logs, err := svc.Recent(context.Background(), domain.Query{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActorSystem, logs[0].ActorType)
	assert.Equal(t, "unknown", logs[0].TargetType)
	assert.Nil(t, logs[0].ActorID)
	assert.Nil(t, logs[0].TargetID)
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc := newTestService(t, nil)
	err := svc.Record(context.Background(), domain.Event{Action: "  "})
	assert.ErrorIs(t, err, domain.ErrMissingAction)
}

func TestRecentFiltersBySince(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	require.NoError(t, svc.Record(context.Background(), domain.Event{Action: "license.save"}))
	fake.Advance(time.Hour)
	require.NoError(t, svc.Record(context.Background(), domain.Event{Action: "license.delete"}))

	logs, err := svc.Recent(context.Background(), domain.Query{Since: fake.Now().Add(-time.Minute)})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "license.delete", logs[0].Action)
}
