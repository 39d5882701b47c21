package handler

import (
	"net/http"
	"time"
)

// Health reports whether a dataset snapshot is loaded, with its sizes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	importedAt, _ := h.db.GetMetadata(r.Context(), "imported_at")
	dbErr := h.db.PingContext(r.Context())

	e, err := h.holder.Engine()
	if err != nil || dbErr != nil {
		body := map[string]any{
			"status":    "loading",
			"timestamp": time.Now().UTC(),
		}
		if dbErr != nil {
			body["status"] = "error"
			body["database"] = "disconnected"
		}
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"database":   "connected",
		"stations":   len(e.Catalog()),
		"trips":      e.TripCount(),
		"domainMax":  e.DomainMax(),
		"loadedAt":   e.LoadedAt().UTC(),
		"importedAt": importedAt,
		"timestamp":  time.Now().UTC(),
	})
}
