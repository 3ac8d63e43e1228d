package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	licensedomain "github.com/smallbiznis/marketplace/internal/license/domain"
	"github.com/smallbiznis/marketplace/internal/marketplace/api"
	"github.com/smallbiznis/marketplace/internal/marketplace/cache"
	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
	"github.com/smallbiznis/marketplace/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resourceConsumer = "consumer"
	resourcePlugins  = "plugins"
	resourceThemes   = "themes"
)

var ErrNotDownloadable = errors.New("plugin_not_downloadable")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Factory api.Factory
	Cache   cache.Cache
	Store   licensedomain.Store
	Metrics *metrics.Metrics `optional:"true"`
}

// Client answers marketplace questions for the stored license key, caching every response.
type Client struct {
	db      *gorm.DB
	log     *zap.Logger
	factory api.Factory
	cache   cache.Cache
	store   licensedomain.Store
	metrics *metrics.Metrics
}

func New(p Params) *Client {
	return &Client{
		db:      p.DB,
		log:     p.Log.Named("marketplace.client"),
		factory: p.Factory,
		cache:   p.Cache,
		store:   p.Store,
		metrics: p.Metrics,
	}
}

// Consumer returns the consumer bound to the stored license key.
// A nil consumer with a nil error means the marketplace returned no record.
// Only transport failures are returned as errors.
func (c *Client) Consumer(ctx context.Context) (*domain.Consumer, error) {
	licenseKey, ok, err := c.store.Get(ctx, c.db)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var consumer domain.Consumer
	err = c.fetch(ctx, licenseKey, resourceConsumer, nil, &consumer)
	if err != nil {
		if api.IsTransport(err) {
			return nil, err
		}
		code, _ := api.CodeOf(err)
		c.log.Debug("no consumer for license key", zap.String("code", string(code)), zap.Error(err))
		return nil, nil
	}
	if consumer.IsEmpty() {
		return nil, nil
	}
	return &consumer, nil
}

func (c *Client) PluginInfo(ctx context.Context, name string) (*domain.Plugin, error) {
	licenseKey, _, err := c.store.Get(ctx, c.db)
	if err != nil {
		return nil, err
	}

	var plugin domain.Plugin
	resource := fmt.Sprintf("%s/%s/info", resourcePlugins, url.PathEscape(name))
	if err := c.fetch(ctx, licenseKey, resource, nil, &plugin); err != nil {
		return nil, err
	}
	return &plugin, nil
}

// SearchForPlugins lists plugins, or themes when q.Themes is set.
func (c *Client) SearchForPlugins(ctx context.Context, q domain.SearchQuery) ([]domain.Plugin, error) {
	licenseKey, _, err := c.store.Get(ctx, c.db)
	if err != nil {
		return nil, err
	}

	resource := resourcePlugins
	if q.Themes {
		resource = resourceThemes
	}

	var result domain.SearchResult
	if err := c.fetch(ctx, licenseKey, resource, q.Params(), &result); err != nil {
		return nil, err
	}
	if result.Plugins == nil {
		return []domain.Plugin{}, nil
	}
	return result.Plugins, nil
}

// Download stores the latest archive of plugin name at target.
func (c *Client) Download(ctx context.Context, name string, target string) error {
	plugin, err := c.PluginInfo(ctx, name)
	if err != nil {
		return err
	}

	downloadURL := latestDownloadURL(plugin)
	if downloadURL == "" {
		return ErrNotDownloadable
	}

	licenseKey, _, err := c.store.Get(ctx, c.db)
	if err != nil {
		return err
	}
	svc := c.factory.New()
	svc.Authenticate(licenseKey)
	return svc.Download(ctx, downloadURL, target)
}

// ClearAllCacheEntries drops every cached marketplace response.
func (c *Client) ClearAllCacheEntries(ctx context.Context) error {
	return c.cache.ClearAll(ctx)
}

func (c *Client) fetch(ctx context.Context, licenseKey, resource string, params map[string]string, out any) error {
	key := cache.Key(resource, params, licenseKey)
	label := metricLabel(resource)

	payload, hit, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("marketplace cache read failed", zap.String("resource", label), zap.Error(err))
		hit = false
	}
	c.metrics.RecordCacheLookup(ctx, label, hit)

	if hit {
		if err := json.Unmarshal(payload, out); err == nil {
			return nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("resource", label))
	}

	svc := c.factory.New()
	svc.Authenticate(licenseKey)

	body, err := svc.Fetch(ctx, resource, params)
	if err != nil {
		return err
	}
	if err := api.Decode(resource, body, out); err != nil {
		return err
	}

	if err := c.cache.Put(ctx, key, body); err != nil {
		c.log.Warn("marketplace cache write failed", zap.String("resource", label), zap.Error(err))
	}
	return nil
}

func latestDownloadURL(plugin *domain.Plugin) string {
	if plugin == nil {
		return ""
	}
	for i := len(plugin.Versions) - 1; i >= 0; i-- {
		if link := strings.TrimSpace(plugin.Versions[i].Download); link != "" {
			return link
		}
	}
	return ""
}

func metricLabel(resource string) string {
	if strings.HasPrefix(resource, resourcePlugins+"/") {
		return "plugins.info"
	}
	return resource
}
