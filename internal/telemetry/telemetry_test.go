package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestInit_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shutdown, err := Init(context.Background(), Options{}, logger)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error: %v", err)
	}
}

func TestInit_TracingAndMetrics(t *testing.T) {
	// Exporter construction does not dial; nothing is pushed before shutdown's final flush.
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:1")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "100")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shutdown, err := Init(context.Background(), Options{Tracing: true, Metrics: true}, logger)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The final flush cannot reach the collector.
	_ = shutdown(ctx)
}
