package consumer

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/marketplace/api"
	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	consumer *domain.Consumer
	err      error
	calls    int32
}

func (f *fakeSource) Consumer(context.Context) (*domain.Consumer, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.consumer, f.err
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var now2024 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		consumer *domain.Consumer
		want     Entitlement
	}{
		{name: "no consumer", consumer: nil, want: Entitlement{}},
		{name: "empty record", consumer: &domain.Consumer{}, want: Entitlement{}},
		{name: "nameless future", consumer: &domain.Consumer{ExpireDate: date(2030, 1, 1)}, want: Entitlement{PaidAccess: true}},
		{name: "nameless expired", consumer: &domain.Consumer{ExpireDate: date(2000, 1, 1)}, want: Entitlement{Expired: true}},
		{name: "expired", consumer: &domain.Consumer{Name: "Acme", ExpireDate: date(2000, 1, 1), WhitelistedGithubOrgs: []string{"acme"}}, want: Entitlement{Expired: true}},
		{name: "future", consumer: &domain.Consumer{Name: "Acme", ExpireDate: date(2030, 1, 1)}, want: Entitlement{PaidAccess: true}},
		{name: "no expiry", consumer: &domain.Consumer{Name: "Acme"}, want: Entitlement{PaidAccess: true}},
		{name: "whitelist", consumer: &domain.Consumer{Name: "Acme", WhitelistedGithubOrgs: []string{"acme"}}, want: Entitlement{PaidAccess: true, FreeRestricted: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.consumer, now2024)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Evaluate(tt.consumer, now2024), "must be deterministic")
		})
	}
}

func TestEvaluateBoundaryIsExclusive(t *testing.T) {
	expiry := now2024
	consumer := &domain.Consumer{Name: "Acme", ExpireDate: &expiry}
	assert.True(t, Evaluate(consumer, now2024).PaidAccess)
	assert.False(t, Evaluate(consumer, now2024.Add(time.Second)).PaidAccess)
}

func newResolver(source Source, now time.Time) *Resolver {
	return NewFactory(Params{Source: source, Clock: clock.NewFakeClock(now), Log: zap.NewNop()}).New()
}

func TestResolverExpiredAcmeScenario(t *testing.T) {
	source := &fakeSource{consumer: &domain.Consumer{
		Name:                  "Acme",
		ExpireDate:            date(2000, 1, 1),
		WhitelistedGithubOrgs: []string{"acme-corp"},
	}}
	r := newResolver(source, now2024)
	ctx := context.Background()

	assert.False(t, r.HasAccessToPaidPlugins(ctx))
	assert.True(t, r.Entitlement(ctx).Expired)
	assert.Nil(t, r.WhitelistedGithubOrgs(ctx), "expiry lifts free plugin restrictions")

	view := r.View(ctx)
	require.NotNil(t, view)
	assert.Equal(t, "January 1, 2000", view.ExpireDateLong)
	assert.True(t, strings.HasSuffix(view.ExpireDateDiff, "years ago"), view.ExpireDateDiff)

	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls), "consumer is fetched once per resolver")
}

func TestResolverActiveLicense(t *testing.T) {
	source := &fakeSource{consumer: &domain.Consumer{
		Name:                  "Acme",
		ExpireDate:            date(2024, 9, 1),
		Distributor:           &domain.Distributor{Name: "Partner"},
		WhitelistedGithubOrgs: []string{"acme-corp"},
	}}
	r := newResolver(source, now2024)
	ctx := context.Background()

	assert.True(t, r.HasAccessToPaidPlugins(ctx))
	assert.Equal(t, []string{"acme-corp"}, r.WhitelistedGithubOrgs(ctx))
	require.NotNil(t, r.Distributor(ctx))
	assert.Equal(t, "Partner", r.Distributor(ctx).Name)
	assert.True(t, strings.HasSuffix(r.View(ctx).ExpireDateDiff, "from now"))
}

func TestResolverSwallowsLookupErrors(t *testing.T) {
	source := &fakeSource{err: &api.ServiceError{Code: api.CodeHTTPError, Resource: "consumer", Message: "timeout"}}
	r := newResolver(source, now2024)
	ctx := context.Background()

	assert.Nil(t, r.Consumer(ctx))
	assert.False(t, r.HasAccessToPaidPlugins(ctx))
	assert.Nil(t, r.Distributor(ctx))
	assert.Nil(t, r.View(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
}

func TestResolversAreIndependent(t *testing.T) {
	source := &fakeSource{consumer: &domain.Consumer{Name: "Acme"}}
	factory := NewFactory(Params{Source: source, Clock: clock.New(), Log: zap.NewNop()})

	factory.New().Consumer(context.Background())
	factory.New().Consumer(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}
