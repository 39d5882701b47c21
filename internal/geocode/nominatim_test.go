package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bikeflow/internal/geo"
)

func TestSearch(t *testing.T) {
	var gotQuery, gotViewbox, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotViewbox = r.URL.Query().Get("viewbox")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`[{"lat":"42.3601","lon":"-71.0589","display_name":"Boston City Hall, Boston"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bikeflow-test")
	var b geo.Bounds
	b.Extend(42.30, -71.15)
	b.Extend(42.40, -71.00)

	res, err := c.Search(context.Background(), "city hall", b)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res == nil || res.Lat != 42.3601 || res.Lon != -71.0589 || res.DisplayName != "Boston City Hall, Boston" {
		t.Errorf("Search() = %+v", res)
	}
	if gotQuery != "city hall" || gotUA != "bikeflow-test" {
		t.Errorf("request q=%q ua=%q", gotQuery, gotUA)
	}
	if gotViewbox != "-71.150000,42.400000,-71.000000,42.300000" {
		t.Errorf("viewbox = %q", gotViewbox)
	}
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("viewbox") != "" {
			t.Error("empty bounds should not send a viewbox")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, "ua").Search(context.Background(), "nowhere", geo.Bounds{})
	if err != nil || res != nil {
		t.Errorf("Search() = %+v, %v; want nil, nil", res, err)
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, ""},
		{"bad json", http.StatusOK, `{`},
		{"bad lat", http.StatusOK, `[{"lat":"north","lon":"-71"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			if _, err := New(srv.URL, "ua").Search(context.Background(), "x", geo.Bounds{}); err == nil {
				t.Error("Search() should fail")
			}
		})
	}
}
