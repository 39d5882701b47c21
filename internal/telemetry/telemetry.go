// Package telemetry wires OpenTelemetry tracing and metrics exporters and the
// Pyroscope profiler. Every signal is opt-in; disabled signals keep the
// global no-op providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ServiceName identifies this process in traces, metrics and profiles.
const ServiceName = "bikeflow"

// Version is set at build time via -ldflags "-X bikeflow/internal/telemetry.Version=...".
var Version = "dev"

// Options selects which signals to start.
type Options struct {
	Tracing   bool
	Metrics   bool
	Profiling bool
}

// ShutdownFunc flushes and stops whatever Init started.
type ShutdownFunc func(context.Context) error

// Init starts the enabled signals. Exporter endpoints and headers come from
// the standard OTEL_EXPORTER_OTLP_* variables; the profiler reads
// PYROSCOPE_SERVER_ADDRESS and friends.
func Init(ctx context.Context, opts Options, logger *slog.Logger) (ShutdownFunc, error) {
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if !opts.Tracing && !opts.Metrics && !opts.Profiling {
		logger.Debug("telemetry disabled")
		return shutdown, nil
	}

	res, err := newResource(ctx)
	if err != nil {
		return shutdown, fmt.Errorf("telemetry resource: %w", err)
	}

	if opts.Tracing {
		fn, err := initTracing(ctx, res)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, fn)
		logger.Info("tracing enabled")
	}
	if opts.Metrics {
		fn, err := initMetrics(ctx, res)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, fn)
		logger.Info("metrics enabled")
	}
	if opts.Profiling {
		fn, err := initProfiling()
		if err != nil {
			// Profiling is best effort.
			logger.Warn("failed to start profiler", "error", err)
		} else {
			shutdowns = append(shutdowns, fn)
			logger.Info("profiling enabled")
		}
	}
	return shutdown, nil
}

func newResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(Version),
			semconv.DeploymentEnvironment(envOr("OTEL_DEPLOYMENT_ENVIRONMENT", "production")),
			semconv.ProcessRuntimeName("go"),
			semconv.ProcessRuntimeVersion(runtime.Version()),
		),
	)
}

func initTracing(ctx context.Context, res *resource.Resource) (ShutdownFunc, error) {
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func initMetrics(ctx context.Context, res *resource.Resource) (ShutdownFunc, error) {
	exporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(60*time.Second),
		)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

func initProfiling() (ShutdownFunc, error) {
	cfg := pyroscope.Config{
		ApplicationName: envOr("PYROSCOPE_APPLICATION_NAME", ServiceName),
		ServerAddress:   envOr("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040"),
		Tags:            map[string]string{"version": Version},
	}
	if user, pass := os.Getenv("PYROSCOPE_BASIC_AUTH_USER"), os.Getenv("PYROSCOPE_BASIC_AUTH_PASSWORD"); user != "" && pass != "" {
		cfg.BasicAuthUser = user
		cfg.BasicAuthPassword = pass
	}
	profiler, err := pyroscope.Start(cfg)
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	return func(context.Context) error { return profiler.Stop() }, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
