package plugins

import (
	"context"
	"sort"
	"strings"

	"github.com/smallbiznis/marketplace/internal/config"
	"github.com/smallbiznis/marketplace/internal/consumer"
	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
	pluginmanagerdomain "github.com/smallbiznis/marketplace/internal/pluginmanager/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidPluginName = pluginmanagerdomain.ErrInvalidPluginName

// Catalogue is the subset of the marketplace client used for browsing.
type Catalogue interface {
	PluginInfo(ctx context.Context, name string) (*domain.Plugin, error)
	SearchForPlugins(ctx context.Context, q domain.SearchQuery) ([]domain.Plugin, error)
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Catalogue Catalogue
	Manager   pluginmanagerdomain.Manager
	Consumers *consumer.Factory
	Settings  *config.SettingsHolder
}

type Service struct {
	log       *zap.Logger
	catalogue Catalogue
	manager   pluginmanagerdomain.Manager
	consumers *consumer.Factory
	settings  *config.SettingsHolder
}

func New(p Params) *Service {
	return &Service{
		log:       p.Log.Named("plugins.service"),
		catalogue: p.Catalogue,
		manager:   p.Manager,
		consumers: p.Consumers,
		settings:  p.Settings,
	}
}

// ValidPluginName reports whether name can identify a plugin.
func ValidPluginName(name string) bool {
	return pluginmanagerdomain.ValidPluginName(name)
}

// Search returns matching plugins ordered by sort, each marked with its activation state.
func (s *Service) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Plugin, error) {
	if !domain.ValidSort(q.Sort) {
		q.Sort = domain.SortPopular
	}
	found, err := s.catalogue.SearchForPlugins(ctx, q)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Plugin, len(found))
	copy(result, found)
	sortPlugins(result, q.Sort)

	if err := s.decorate(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) PluginInfo(ctx context.Context, name string) (*domain.Plugin, error) {
	name = strings.TrimSpace(name)
	if !ValidPluginName(name) {
		return nil, ErrInvalidPluginName
	}
	plugin, err := s.catalogue.PluginInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	decorated := []domain.Plugin{*plugin}
	if err := s.decorate(ctx, decorated); err != nil {
		return nil, err
	}
	return &decorated[0], nil
}

func (s *Service) decorate(ctx context.Context, plugins []domain.Plugin) error {
	if len(plugins) == 0 {
		return nil
	}
	activated, err := s.manager.ActivatedPlugins(ctx)
	if err != nil {
		return err
	}
	active := make(map[string]struct{}, len(activated))
	for _, name := range activated {
		active[name] = struct{}{}
	}
	for i := range plugins {
		_, plugins[i].IsActivated = active[plugins[i].Name]
	}
	return nil
}

// sortPlugins orders plugins locally so cached results stay consistent with sort.
func sortPlugins(plugins []domain.Plugin, order string) {
	switch order {
	case domain.SortAlpha:
		sort.SliceStable(plugins, func(i, j int) bool {
			return strings.ToLower(displayName(plugins[i])) < strings.ToLower(displayName(plugins[j]))
		})
	case domain.SortNewest:
		sort.SliceStable(plugins, func(i, j int) bool {
			return plugins[i].LastUpdated > plugins[j].LastUpdated
		})
	default:
		sort.SliceStable(plugins, func(i, j int) bool {
			return plugins[i].NumDownloads > plugins[j].NumDownloads
		})
	}
}

func displayName(p domain.Plugin) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}
