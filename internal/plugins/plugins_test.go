package plugins

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/config"
	"github.com/smallbiznis/marketplace/internal/consumer"
	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalogue struct {
	plugins  []domain.Plugin
	themes   []domain.Plugin
	queries  []domain.SearchQuery
	infoErr  error
	infoName string
}

func (f *fakeCatalogue) PluginInfo(_ context.Context, name string) (*domain.Plugin, error) {
	f.infoName = name
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &domain.Plugin{Name: name, DisplayName: name}, nil
}

func (f *fakeCatalogue) SearchForPlugins(_ context.Context, q domain.SearchQuery) ([]domain.Plugin, error) {
	f.queries = append(f.queries, q)
	source := f.plugins
	if q.Themes {
		source = f.themes
	}
	out := []domain.Plugin{}
	for _, p := range source {
		switch q.PurchaseType {
		case domain.PurchaseTypeFree:
			if !p.IsFree {
				continue
			}
		case domain.PurchaseTypePaid:
			if !p.IsPaid {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

type fakeManager struct {
	active []string
}

func (f *fakeManager) IsPluginActivated(_ context.Context, name string) (bool, error) {
	for _, n := range f.active {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeManager) ActivatePlugin(_ context.Context, name string) error {
	f.active = append(f.active, name)
	return nil
}

func (f *fakeManager) ActivatedPlugins(context.Context) ([]string, error) {
	return f.active, nil
}

type staticSource struct {
	consumer *domain.Consumer
}

func (s staticSource) Consumer(context.Context) (*domain.Consumer, error) {
	return s.consumer, nil
}

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newService(t *testing.T, cat *fakeCatalogue, c *domain.Consumer) *Service {
	t.Helper()
	settings, err := config.LoadSettings(filepath.Join(t.TempDir(), "general.yml"), nil)
	require.NoError(t, err)
	return New(Params{
		Log:       zap.NewNop(),
		Catalogue: cat,
		Manager:   &fakeManager{active: []string{"TagManager"}},
		Consumers: consumer.NewFactory(consumer.Params{
			Source: staticSource{consumer: c},
			Clock:  clock.NewFakeClock(now),
			Log:    zap.NewNop(),
		}),
		Settings: settings,
	})
}

func catalogue() *fakeCatalogue {
	return &fakeCatalogue{
		plugins: []domain.Plugin{
			{Name: "Bravo", DisplayName: "bravo", IsFree: true, NumDownloads: 10, LastUpdated: "2024-01-01"},
			{Name: "TagManager", DisplayName: "Tag Manager", IsFree: true, NumDownloads: 500, LastUpdated: "2023-01-01"},
			{Name: "Funnels", DisplayName: "Funnels", IsPaid: true, NumDownloads: 50, LastUpdated: "2024-05-01"},
		},
		themes: []domain.Plugin{
			{Name: "DarkTheme", DisplayName: "Dark", IsTheme: true, IsFree: true},
		},
	}
}

func names(plugins []domain.Plugin) []string {
	out := make([]string, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, p.Name)
	}
	return out
}

func TestSearchSortsAndDecorates(t *testing.T) {
	svc := newService(t, catalogue(), nil)
	ctx := context.Background()

	popular, err := svc.Search(ctx, domain.SearchQuery{Sort: domain.SortPopular})
	require.NoError(t, err)
	assert.Equal(t, []string{"TagManager", "Funnels", "Bravo"}, names(popular))
	assert.True(t, popular[0].IsActivated)
	assert.False(t, popular[1].IsActivated)

	newest, err := svc.Search(ctx, domain.SearchQuery{Sort: domain.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []string{"Funnels", "Bravo", "TagManager"}, names(newest))

	alpha, err := svc.Search(ctx, domain.SearchQuery{Sort: domain.SortAlpha})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "Funnels", "TagManager"}, names(alpha))
}

func TestSearchFallsBackToPopular(t *testing.T) {
	cat := catalogue()
	svc := newService(t, cat, nil)

	_, err := svc.Search(context.Background(), domain.SearchQuery{Sort: "random"})
	require.NoError(t, err)
	require.Len(t, cat.queries, 1)
	assert.Equal(t, domain.SortPopular, cat.queries[0].Sort)
}

func TestPluginInfoValidatesName(t *testing.T) {
	cat := catalogue()
	svc := newService(t, cat, nil)
	ctx := context.Background()

	_, err := svc.PluginInfo(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPluginName)
	assert.Empty(t, cat.infoName)

	plugin, err := svc.PluginInfo(ctx, "TagManager")
	require.NoError(t, err)
	assert.True(t, plugin.IsActivated)

	cat.infoErr = errors.New("boom")
	_, err = svc.PluginInfo(ctx, "Funnels")
	assert.Error(t, err)
}

func TestOverviewWithoutLicenseDefaultsToFree(t *testing.T) {
	svc := newService(t, catalogue(), nil)

	overview, err := svc.Overview(context.Background(), OverviewRequest{Sort: "bogus", Mode: "bogus"})
	require.NoError(t, err)

	assert.Equal(t, domain.PurchaseTypeFree, overview.Type)
	assert.Equal(t, domain.SortPopular, overview.Sort)
	assert.Equal(t, ModeAdmin, overview.Mode)
	assert.True(t, overview.ShowPlugins)
	assert.True(t, overview.ShowFree)
	assert.Equal(t, []string{"TagManager", "Bravo"}, names(overview.PluginsToShow))
	assert.Equal(t, 2, overview.NumFreePlugins)
	assert.Equal(t, 1, overview.NumPaidPlugins)
	assert.Equal(t, 1, overview.NumThemes)
	assert.Equal(t, 4, overview.NumAvailablePlugins)
	assert.Nil(t, overview.Consumer)
	assert.False(t, overview.HasAccessToPaidPlugins)
	assert.False(t, overview.IsMultiServerEnvironment)
}

func TestOverviewWithPaidAccessDefaultsToPaid(t *testing.T) {
	expiry := now.AddDate(1, 0, 0)
	svc := newService(t, catalogue(), &domain.Consumer{
		Name:                  "Acme",
		ExpireDate:            &expiry,
		WhitelistedGithubOrgs: []string{"acme-corp"},
	})

	overview, err := svc.Overview(context.Background(), OverviewRequest{Mode: ModeUser})
	require.NoError(t, err)

	assert.Equal(t, domain.PurchaseTypePaid, overview.Type)
	assert.Equal(t, ModeUser, overview.Mode)
	assert.True(t, overview.ShowPaid)
	assert.Equal(t, []string{"Funnels"}, names(overview.PluginsToShow))
	require.NotNil(t, overview.Consumer)
	assert.Equal(t, "Acme", overview.Consumer.Name)
	assert.True(t, overview.HasAccessToPaidPlugins)
	assert.Equal(t, []string{"acme-corp"}, overview.WhitelistedGithubOrgs)
}

func TestOverviewShowsThemes(t *testing.T) {
	svc := newService(t, catalogue(), nil)

	overview, err := svc.Overview(context.Background(), OverviewRequest{Show: ShowThemes})
	require.NoError(t, err)

	assert.True(t, overview.ShowThemes)
	assert.False(t, overview.ShowPlugins)
	assert.Equal(t, domain.PurchaseTypeAll, overview.Type)
	assert.Equal(t, []string{"DarkTheme"}, names(overview.PluginsToShow))
}

func TestCheckEnabledFollowsSettings(t *testing.T) {
	svc := newService(t, catalogue(), nil)
	require.NoError(t, svc.CheckEnabled())

	require.NoError(t, svc.settings.Update(func(s *config.GeneralSettings) {
		s.General.EnablePluginsAdmin = false
	}))
	assert.ErrorIs(t, svc.CheckEnabled(), ErrPluginsAdminDisabled)

	require.NoError(t, svc.settings.Update(func(s *config.GeneralSettings) {
		s.Marketplace.Enabled = false
	}))
	assert.ErrorIs(t, svc.CheckEnabled(), ErrMarketplaceDisabled)
}
