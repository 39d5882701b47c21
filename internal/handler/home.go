package handler

import (
	"net/http"

	"bikeflow/internal/geo"
	"bikeflow/internal/templates"
	"bikeflow/internal/traffic"
)

const appTitle = "Bike Station Traffic"

// Home serves the map page, framed on the station catalog.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	e, err := h.holder.Engine()
	if err != nil {
		h.Loading(w, r)
		return
	}

	var bounds geo.Bounds
	for _, s := range e.Catalog() {
		bounds.Extend(s.Lat, s.Lon)
	}
	lat, lon := bounds.Center()

	data := templates.MapData{
		Page: h.page(appTitle),
		Config: templates.MapConfig{
			TileURL:       h.cfg.MapTiles,
			Bounds:        bounds,
			Center:        [2]float64{lat, lon},
			StationCount:  len(e.Catalog()),
			TripCount:     e.TripCount(),
			WindowMinutes: traffic.WindowMinutes,
		},
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.MapPage(data).Render(r.Context(), w); err != nil {
		h.logger.Error("rendering map page", "error", err)
	}
}

// Loading serves the auto-refreshing placeholder page with a 503.
func (h *Handler) Loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Retry-After", "5")
	w.WriteHeader(http.StatusServiceUnavailable)
	if err := templates.Loading(h.page(appTitle)).Render(r.Context(), w); err != nil {
		h.logger.Error("rendering loading page", "error", err)
	}
}
