package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bikeflow/internal/config"
	"bikeflow/internal/geocode"
	"bikeflow/internal/handler"
	"bikeflow/internal/storage"
	"bikeflow/internal/traffic"
	"bikeflow/web"
)

// Server is the HTTP server for the traffic map.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new Server with all routes registered. Data routes answer
// 503 until holder has a snapshot.
func New(cfg *config.Config, db *storage.DB, holder *traffic.Holder, logger *slog.Logger) *Server {
	staticFS, _ := fs.Sub(web.StaticFiles, "static")
	geo := geocode.New(cfg.GeocoderURL, "bikeflow/1.0 (station traffic map)")
	h := handler.New(holder, db, geo, staticFS, cfg, logger)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(securityHeaders)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(waitForData(holder, h.Loading))

	// Static files, versioned URLs get immutable caching
	fileServer := http.FileServer(http.FS(staticFS))
	r.Handle("/static/*", http.StripPrefix("/static/", staticCacheHandler(fileServer)))

	r.Get("/", h.Home)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/traffic", h.Traffic)
		r.Get("/traffic.geojson", h.TrafficGeoJSON)
		r.Get("/stations/nearby", h.NearbyStations)
		r.Get("/stations/{id}", h.StationDetail)
	})

	r.Get("/sse/traffic", h.SSETraffic)

	return &Server{router: r, cfg: cfg, logger: logger}
}

// Handler returns the fully wrapped handler, including tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "bikeflow",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
