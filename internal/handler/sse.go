package handler

import (
	"fmt"
	"net/http"
	"time"

	"bikeflow/internal/render"
	"bikeflow/internal/traffic"
)

// keepAliveInterval spaces SSE comment lines so idle proxies keep the stream open.
const keepAliveInterval = 30 * time.Second

// SSETraffic streams "traffic" events for ?minute=: one immediately and one
// after every dataset reload.
func (h *Handler) SSETraffic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	minute, err := parseMinute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Grab the change signal before the snapshot so a reload in between is not missed.
	changed := h.holder.Changed()
	e, ok := h.engine(w)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	session := traffic.NewSession(e, render.NewSSE(w, flusher))
	if _, err := session.OnSelectionChange(ctx, minute); err != nil {
		h.logger.Error("sending initial traffic event", "minute", minute, "error", err)
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-changed:
			changed = h.holder.Changed()
			e, err := h.holder.Engine()
			if err != nil {
				continue
			}
			if _, err := session.Rebind(ctx, e); err != nil {
				h.logger.Error("sending traffic event after reload", "selection", session.Selection(), "error", err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
