// Package render turns traffic frames into wire formats for the map front-end.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bikeflow/internal/traffic"
)

// JSON writes each frame as one JSON document.
type JSON struct {
	w      io.Writer
	indent bool
}

// NewJSON creates a JSON renderer writing to w.
func NewJSON(w io.Writer, indent bool) *JSON {
	return &JSON{w: w, indent: indent}
}

// Render encodes f.
func (j *JSON) Render(_ context.Context, f traffic.Frame) error {
	enc := json.NewEncoder(j.w)
	if j.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

// FeatureCollection is a GeoJSON FeatureCollection of station markers.
type FeatureCollection struct {
	Type       string          `json:"type"`
	Properties CollectionProps `json:"properties"`
	Features   []Feature       `json:"features"`
}

// CollectionProps carries the frame-level values.
type CollectionProps struct {
	Selection   traffic.Selection `json:"selection"`
	Label       string            `json:"label"`
	Filtered    bool              `json:"filtered"`
	RadiusRange [2]float64        `json:"radiusRange"`
	DomainMax   int               `json:"domainMax"`
	TripCount   int               `json:"tripCount"`
}

// Feature is one station point.
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Geometry   Point          `json:"geometry"`
	Properties traffic.Marker `json:"properties"`
}

// Point is a GeoJSON point; coordinates are [lon, lat].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// ToGeoJSON converts a frame to a FeatureCollection.
func ToGeoJSON(f traffic.Frame) FeatureCollection {
	fc := FeatureCollection{
		Type: "FeatureCollection",
		Properties: CollectionProps{
			Selection:   f.Selection,
			Label:       f.Label,
			Filtered:    f.Filtered,
			RadiusRange: f.RadiusRange,
			DomainMax:   f.DomainMax,
			TripCount:   f.TripCount,
		},
		Features: make([]Feature, len(f.Markers)),
	}
	for i, m := range f.Markers {
		fc.Features[i] = Feature{
			Type:       "Feature",
			ID:         m.ID,
			Geometry:   Point{Type: "Point", Coordinates: [2]float64{m.Lon, m.Lat}},
			Properties: m,
		}
	}
	return fc
}

// GeoJSON writes each frame as a FeatureCollection.
type GeoJSON struct {
	w io.Writer
}

// NewGeoJSON creates a GeoJSON renderer writing to w.
func NewGeoJSON(w io.Writer) *GeoJSON {
	return &GeoJSON{w: w}
}

// Render encodes f as GeoJSON.
func (g *GeoJSON) Render(_ context.Context, f traffic.Frame) error {
	if err := json.NewEncoder(g.w).Encode(ToGeoJSON(f)); err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	return nil
}

// SSE writes each frame as a "traffic" server-sent event and flushes.
type SSE struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSE creates an SSE renderer. flusher may be nil.
func NewSSE(w io.Writer, flusher http.Flusher) *SSE {
	return &SSE{w: w, flusher: flusher}
}

// Render sends f as a single-line JSON data event.
func (s *SSE) Render(_ context.Context, f traffic.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: traffic\ndata: %s\n\n", b); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
