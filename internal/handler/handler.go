package handler

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strconv"

	"bikeflow/internal/config"
	"bikeflow/internal/geocode"
	"bikeflow/internal/storage"
	"bikeflow/internal/templates"
	"bikeflow/internal/traffic"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	holder  *traffic.Holder
	db      *storage.DB
	geo     *geocode.Client
	cfg     *config.Config
	logger  *slog.Logger
	version string // content hash of static assets, for cache busting
}

// New creates a Handler. static is the asset tree served under /static/.
func New(holder *traffic.Holder, db *storage.DB, geo *geocode.Client, static fs.FS, cfg *config.Config, logger *slog.Logger) *Handler {
	v := computeAssetVersion(static)
	logger.Info("asset version computed", "version", v)
	return &Handler{holder: holder, db: db, geo: geo, cfg: cfg, logger: logger, version: v}
}

// computeAssetVersion hashes all CSS and JS files in the static tree
// to produce a short version string. Changes to any file produce a new version.
func computeAssetVersion(static fs.FS) string {
	h := md5.New()
	var paths []string
	fs.WalkDir(static, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext == ".css" || ext == ".js" {
			paths = append(paths, p)
		}
		return nil
	})
	sort.Strings(paths) // deterministic order
	for _, p := range paths {
		f, err := static.Open(p)
		if err != nil {
			continue
		}
		io.Copy(h, f)
		f.Close()
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:8]
}

// page creates a templates.Page with the asset version pre-filled.
func (h *Handler) page(title string) templates.Page {
	return templates.Page{Title: title, AssetVersion: h.version}
}

// AssetVersion returns the static asset hash.
func (h *Handler) AssetVersion() string { return h.version }

// engine returns the current snapshot or writes a 503.
func (h *Handler) engine(w http.ResponseWriter) (*traffic.Engine, bool) {
	e, err := h.holder.Engine()
	if err != nil {
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return e, true
}

// parseMinute reads the minute query parameter. Absent means unfiltered.
func parseMinute(r *http.Request) (int, error) {
	s := r.URL.Query().Get("minute")
	if s == "" {
		return int(traffic.Unfiltered), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: minute %q is not an integer", traffic.ErrInvalidSelection, s)
	}
	if _, err := traffic.NewSelection(n); err != nil {
		return 0, err
	}
	return n, nil
}

// statusFor maps core errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, traffic.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, traffic.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
