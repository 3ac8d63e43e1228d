package observability

import (
	"github.com/smallbiznis/marketplace/internal/observability/logger"
	"github.com/smallbiznis/marketplace/internal/observability/metrics"
	"github.com/smallbiznis/marketplace/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(LoadConfig),
	fx.Provide(func(c Config) logger.Config {
		return logger.Config{
			Service:     c.ServiceName,
			Environment: c.Environment,
			Version:     c.Version,
			Level:       c.LogLevel,
			Format:      c.LogFormat,
			Development: c.Debug(),
		}
	}),
	fx.Provide(logger.New),
	fx.Provide(func(c Config) tracing.Config {
		return tracing.Config{
			Enabled:          c.OtelEnabled,
			ServiceName:      c.ServiceName,
			ServiceVersion:   c.Version,
			Environment:      c.Environment,
			ExporterEndpoint: c.OtlpEndpoint,
			ExporterProtocol: c.OtlpProtocol,
			SamplingRatio:    c.SamplingRatio,
		}
	}),
	fx.Provide(tracing.NewProvider),
	fx.Provide(func(c Config) metrics.Config {
		return metrics.Config{
			Enabled:          c.OtelEnabled,
			ExporterEndpoint: c.OtlpEndpoint,
			ExporterProtocol: c.OtlpProtocol,
			ServiceName:      c.ServiceName,
		}
	}),
	fx.Provide(metrics.NewProvider, metrics.New, metrics.NewHTTPMetrics),
	// the tracer provider must exist before the first request
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
