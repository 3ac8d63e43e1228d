package api

import (
	"net/http"

	"github.com/smallbiznis/marketplace/internal/config"
	"github.com/smallbiznis/marketplace/internal/observability/metrics"
	obstracing "github.com/smallbiznis/marketplace/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Factory hands out fresh Service instances sharing one transport.
type Factory interface {
	New() *Service
}

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type factory struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewFactory(p Params) Factory {
	cfg := Config{
		BaseURL:    p.Cfg.Marketplace.BaseURL,
		APIVersion: p.Cfg.Marketplace.APIVersion,
		Timeout:    p.Cfg.Marketplace.Timeout,
	}
	return NewFactoryWithClient(cfg, nil, p.Log, p.Metrics)
}

// NewFactoryWithClient builds a Factory around httpClient, which may be nil.
func NewFactoryWithClient(cfg Config, httpClient *http.Client, log *zap.Logger, m *metrics.Metrics) Factory {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = obstracing.WrapHTTPClient(&http.Client{Timeout: timeout})
	}
	return &factory{cfg: cfg, httpClient: httpClient, log: log, metrics: m}
}

func (f *factory) New() *Service {
	return NewService(f.cfg, f.httpClient, f.log, f.metrics)
}
