package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultServiceName = "service.atm"
	DefaultServiceHost = "localhost:8000"
	DefaultLogFileName = "service.atm.log"
)

var (
	logger Logger = NewNopLogger()
	tracer trace.Tracer
	meter  metric.Meter
)

type CancelFunc func(ctx context.Context) error

// Init installs the process wide logger, tracer and meter. The returned CancelFunc flushes
// and shuts down the OpenTelemetry providers and must be called before exit.
func Init(ctx context.Context, cfg Config) (CancelFunc, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.ServiceHost == "" {
		cfg.ServiceHost = DefaultServiceHost
	}

	otelShutdown, err := setupOTelSDK(ctx, cfg)
	if err != nil {
		return otelShutdown, err
	}

	zl := NewZapLogger(cfg)
	logger = zl
	tracer = otel.Tracer(cfg.ServiceName, trace.WithInstrumentationAttributes(
		attribute.String("service.host", cfg.ServiceHost)),
	)
	meter = otel.Meter(cfg.ServiceName, metric.WithInstrumentationAttributes(
		attribute.String("service.host", cfg.ServiceHost)),
	)

	return func(ctx context.Context) error {
		// stdout sync returns EINVAL on some terminals, ignore it
		_ = zl.Sync()
		return otelShutdown(ctx)
	}, nil
}

func Log() Logger {
	return logger
}

func GetTracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer(DefaultServiceName)
	}

	return tracer
}

func GetMeter() metric.Meter {
	if meter == nil {
		return otel.Meter(DefaultServiceName)
	}

	return meter
}
