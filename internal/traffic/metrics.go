package traffic

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	instrumentsOnce sync.Once
	framesTotal     metric.Int64Counter
	frameDuration   metric.Float64Histogram
	tripsKept       metric.Int64Histogram
)

// initInstruments creates the frame instruments on the global meter. The
// global provider forwards to whatever provider is installed later.
func initInstruments() {
	meter := otel.Meter("bikeflow/traffic")
	var err error
	framesTotal, err = meter.Int64Counter("bikeflow.traffic.frames",
		metric.WithDescription("Frames computed, by filter state and outcome"),
		metric.WithUnit("{frame}"))
	if err != nil {
		slog.Warn("create frames counter", "error", err)
	}
	frameDuration, err = meter.Float64Histogram("bikeflow.traffic.frame.duration",
		metric.WithDescription("Time to filter, aggregate and scale one frame"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("create frame duration histogram", "error", err)
	}
	tripsKept, err = meter.Int64Histogram("bikeflow.traffic.trips_kept",
		metric.WithDescription("Trips inside the selected window"),
		metric.WithUnit("{trip}"))
	if err != nil {
		slog.Warn("create trips kept histogram", "error", err)
	}
}

func recordFrame(ctx context.Context, sel Selection, trips int, d time.Duration, err error) {
	instrumentsOnce.Do(initInstruments)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.Bool("filtered", sel.Filtered()),
		attribute.String("outcome", outcome),
	)
	if framesTotal != nil {
		framesTotal.Add(ctx, 1, attrs)
	}
	if frameDuration != nil {
		frameDuration.Record(ctx, d.Seconds(), attrs)
	}
	if tripsKept != nil && err == nil && sel.Filtered() {
		tripsKept.Record(ctx, int64(trips))
	}
}
