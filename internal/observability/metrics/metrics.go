package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const exportInterval = 10 * time.Second

type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics holds the marketplace counters. A nil *Metrics records nothing.
type Metrics struct {
	requests       metric.Int64Counter
	cacheLookups   metric.Int64Counter
	licenseChanges metric.Int64Counter
}

// NewProvider installs the global meter provider. Disabled configs get a no-op provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	if log != nil {
		log.Info("otel metrics enabled",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}
	return provider, nil
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "marketplace"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	if m.requests, err = meter.Int64Counter("marketplace_requests_total",
		metric.WithDescription("Remote marketplace calls by resource and outcome.")); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter("marketplace_cache_lookups_total",
		metric.WithDescription("Response cache lookups by resource and outcome.")); err != nil {
		return nil, err
	}
	if m.licenseChanges, err = meter.Int64Counter("marketplace_license_changes_total",
		metric.WithDescription("License key saves and deletes by outcome.")); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewNop returns counters backed by the no-op provider; used by tests.
func NewNop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordMarketplaceRequest(ctx context.Context, resource, outcome string) {
	if m == nil {
		return
	}
	add(ctx, m.requests, attribute.String("resource", resource), attribute.String("outcome", outcome))
}

func (m *Metrics) RecordCacheLookup(ctx context.Context, resource string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	add(ctx, m.cacheLookups, attribute.String("resource", resource), attribute.String("outcome", outcome))
}

func (m *Metrics) RecordLicenseChange(ctx context.Context, action, outcome string) {
	if m == nil {
		return
	}
	add(ctx, m.licenseChanges, attribute.String("action", action), attribute.String("outcome", outcome))
}

func add(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attrs...)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch p := strings.ToLower(strings.TrimSpace(protocol)); p {
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("metrics: unsupported OTLP protocol %q", p)
	}
}

// Label keys permitted on marketplace counters. License keys and access
// tokens never become labels.
var labelKeys = map[attribute.Key]struct{}{
	"resource": {},
	"outcome":  {},
	"action":   {},
}

// FilterAttributes keeps only attributes whose key is a permitted label.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := attrs[:0:0]
	for _, kv := range attrs {
		if _, ok := labelKeys[kv.Key]; ok {
			out = append(out, kv)
		}
	}
	return out
}
