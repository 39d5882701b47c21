package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bikeflow/internal/geo"
)

// Result holds a geocoding result.
type Result struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
}

// Client is a Nominatim geocoding client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates a Nominatim geocoding client against baseURL.
// userAgent is required by Nominatim's usage policy.
func New(baseURL, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// Search geocodes a free-form query. When within is non-empty, results are
// restricted to that box (the station network's extent).
// Returns the top result, or nil if nothing found.
func (c *Client) Search(ctx context.Context, query string, within geo.Bounds) (*Result, error) {
	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {"1"},
		"addressdetails": {"0"},
	}
	if !within.IsZero() {
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", within.MinLon, within.MaxLat, within.MaxLon, within.MinLat))
		params.Set("bounded", "1")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim decode: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon: %w", err)
	}

	return &Result{
		Lat:         lat,
		Lon:         lon,
		DisplayName: results[0].DisplayName,
	}, nil
}
