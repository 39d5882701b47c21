package handler

import (
	"bytes"
	"context"
	"net/http"

	"bikeflow/internal/render"
	"bikeflow/internal/traffic"
)

// Traffic serves the frame for ?minute= as JSON.
func (h *Handler) Traffic(w http.ResponseWriter, r *http.Request) {
	h.serveFrame(w, r, "application/json", func(buf *bytes.Buffer) traffic.Renderer {
		return render.NewJSON(buf, false)
	})
}

// TrafficGeoJSON serves the frame for ?minute= as a GeoJSON FeatureCollection.
func (h *Handler) TrafficGeoJSON(w http.ResponseWriter, r *http.Request) {
	h.serveFrame(w, r, "application/geo+json", func(buf *bytes.Buffer) traffic.Renderer {
		return render.NewGeoJSON(buf)
	})
}

// serveFrame runs one selection change through a fresh Session. The frame is
// rendered into a buffer so a failure can still produce a clean error status.
func (h *Handler) serveFrame(w http.ResponseWriter, r *http.Request, contentType string, newRenderer func(*bytes.Buffer) traffic.Renderer) {
	minute, err := parseMinute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, ok := h.engine(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	session := traffic.NewSession(e, newRenderer(&buf))
	if _, err := session.OnSelectionChange(r.Context(), minute); err != nil {
		h.logFrameError(r.Context(), minute, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

func (h *Handler) logFrameError(ctx context.Context, minute int, err error) {
	if statusFor(err) >= 500 {
		h.logger.ErrorContext(ctx, "computing traffic frame", "minute", minute, "error", err)
	}
}
