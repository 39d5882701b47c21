package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"bikeflow/internal/traffic"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	got := rec.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("X-Request-ID = %q, want a UUID", got)
	}
	if seen != got {
		t.Errorf("context id = %q, header id = %q", seen, got)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	const incoming = "6f1c2c8e-3b7a-4c1e-9a55-0d7d0f3e2b11"
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid uuid kept", incoming, true},
		{"garbage replaced", "<script>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Request-ID", tt.header)
			rec := httptest.NewRecorder()
			requestID(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if (got == tt.header) != tt.keep {
				t.Errorf("X-Request-ID = %q, keep = %v", got, tt.keep)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	securityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestWaitForData(t *testing.T) {
	holder := traffic.NewHolder()
	loading := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading page"))
	}
	h := waitForData(holder, loading)(http.HandlerFunc(okHandler))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/static/map.js", http.StatusOK, "ok"},
		{"/health", http.StatusOK, "ok"},
		{"/api/traffic", http.StatusServiceUnavailable, `"error":"traffic data not loaded"`},
		{"/sse/traffic", http.StatusServiceUnavailable, `"error"`},
		{"/", http.StatusServiceUnavailable, "loading page"},
	}
	for _, tt := range tests {
		t.Run("not loaded "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}

	holder.Set(traffic.NewEngine(nil, nil))
	for _, p := range []string{"/", "/api/traffic", "/sse/traffic"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", p, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("loaded %s: status = %d, want 200", p, rec.Code)
		}
	}
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := requestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/traffic?minute=5", nil))
	out := buf.String()
	if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/api/traffic") {
		t.Errorf("log line = %q", out)
	}

	// Event streams are not logged.
	buf.Reset()
	req := httptest.NewRequest("GET", "/sse/traffic", nil)
	req.Header.Set("Accept", "text/event-stream")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if buf.Len() != 0 {
		t.Errorf("SSE request was logged: %q", buf.String())
	}
}

func TestStaticCacheHandler(t *testing.T) {
	h := staticCacheHandler(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/static/map.js?v=abc", nil))
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "immutable") {
		t.Errorf("versioned Cache-Control = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/static/map.js", nil))
	if got := rec.Header().Get("Cache-Control"); got != "" {
		t.Errorf("unversioned Cache-Control = %q, want empty", got)
	}
}

func TestStatusWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: 200}
	var _ http.Flusher = sw
	sw.Flush()
	if !rec.Flushed {
		t.Error("Flush() did not reach the underlying writer")
	}
}
