package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikeflow/internal/config"
	"bikeflow/internal/dataset"
	"bikeflow/internal/render"
	"bikeflow/internal/server"
	"bikeflow/internal/storage"
	"bikeflow/internal/telemetry"
	"bikeflow/internal/traffic"
)

func main() {
	config.LoadDotEnv(".")
	cfg := config.Load()

	// CLI flags
	importOnly := flag.Bool("import", false, "Download and import the station and trip datasets, then exit")
	renderOnly := flag.Bool("render", false, "Render one traffic frame to stdout, then exit")
	minute := flag.Int("minute", int(traffic.Unfiltered), "Minute of day for -render (0-1439, -1 for all day)")
	format := flag.String("format", "json", "Output format for -render: json or geojson")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for downloaded dataset files")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.ImportData = *importOnly

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *renderOnly, *minute, *format, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, renderOnly bool, minute int, format string, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		Tracing:   cfg.TracingEnabled,
		Metrics:   cfg.MetricsEnabled,
		Profiling: cfg.ProfilingEnabled,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	db, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	holder := traffic.NewHolder()
	downloader := dataset.NewDownloader(cfg.DataDir, logger)
	scheduler := dataset.NewScheduler(downloader, db,
		dataset.Sources{Stations: cfg.StationsURL, Trips: cfg.TripsURL},
		loc, cfg.RefreshHour, logger)
	scheduler.OnUpdate(func(ctx context.Context) error {
		return dataset.Reload(ctx, db, loc, holder)
	})

	// Handle -import flag
	if cfg.ImportData {
		logger.Info("force importing datasets")
		if err := scheduler.Update(ctx); err != nil {
			return fmt.Errorf("import: %w", err)
		}
		logger.Info("dataset import complete")
		return nil
	}

	// Ensure data exists (download on first run)
	if err := scheduler.EnsureData(ctx); err != nil {
		if renderOnly {
			return err
		}
		// Keep serving: data routes answer 503 until a refresh succeeds.
		logger.Error("failed to ensure dataset", "error", err)
	}
	if !holder.Loaded() && db.HasData(ctx) {
		if err := dataset.Reload(ctx, db, loc, holder); err != nil {
			logger.Error("failed to load dataset", "error", err)
		}
	}

	if renderOnly {
		return renderFrame(ctx, holder, minute, format, os.Stdout)
	}

	// Start background update scheduler
	go scheduler.StartBackground(ctx)

	// Check for updates on first start today
	go func() {
		if err := scheduler.CheckAndUpdate(ctx); err != nil {
			logger.Error("daily dataset check failed", "error", err)
		}
	}()

	srv := server.New(cfg, db, holder, logger)
	return srv.Run(ctx)
}

// renderFrame writes a single frame for minute to w.
func renderFrame(ctx context.Context, holder *traffic.Holder, minute int, format string, w io.Writer) error {
	e, err := holder.Engine()
	if err != nil {
		return err
	}
	var r traffic.Renderer
	switch format {
	case "json":
		r = render.NewJSON(w, true)
	case "geojson":
		r = render.NewGeoJSON(w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	_, err = traffic.NewSession(e, r).OnSelectionChange(ctx, minute)
	return err
}
