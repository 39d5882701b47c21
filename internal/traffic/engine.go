package traffic

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bikeflow/traffic")

// Marker is the per-station tuple handed to the render layer.
type Marker struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Radius       float64   `json:"radius"`
	FlowLevel    FlowLevel `json:"flowLevel"`
	TotalTraffic int       `json:"totalTraffic"`
	Arrivals     int       `json:"arrivals"`
	Departures   int       `json:"departures"`
}

// Frame is one complete render payload for a selection.
type Frame struct {
	Selection   Selection  `json:"selection"`
	Label       string     `json:"label"`
	Filtered    bool       `json:"filtered"`
	RadiusRange [2]float64 `json:"radiusRange"`
	DomainMax   int        `json:"domainMax"`
	TripCount   int        `json:"tripCount"`
	Markers     []Marker   `json:"markers"`
}

// Engine holds one immutable dataset snapshot: the station catalog, the trip
// store, the full-dataset aggregate and the radius domain derived from it.
// It is safe for concurrent use.
type Engine struct {
	catalog   []Station
	trips     []Trip
	global    []StationTraffic
	domainMax int
	loadedAt  time.Time
	byID      map[string]int // station id -> index in global
}

// NewEngine aggregates the full trip store once and fixes the radius domain.
func NewEngine(catalog []Station, trips []Trip) *Engine {
	global := Aggregate(catalog, trips)
	byID := make(map[string]int, len(global))
	for i, st := range global {
		if _, dup := byID[st.ID]; !dup {
			byID[st.ID] = i
		}
	}
	return &Engine{
		catalog:   catalog,
		trips:     trips,
		global:    global,
		domainMax: MaxTotal(global),
		loadedAt:  time.Now(),
		byID:      byID,
	}
}

// Catalog returns the station catalog. Callers must not modify it.
func (e *Engine) Catalog() []Station { return e.catalog }

// TripCount returns the size of the trip store.
func (e *Engine) TripCount() int { return len(e.trips) }

// DomainMax returns the largest unfiltered station total.
func (e *Engine) DomainMax() int { return e.domainMax }

// LoadedAt returns when the snapshot was built.
func (e *Engine) LoadedAt() time.Time { return e.loadedAt }

// Station returns the unfiltered traffic for one station.
func (e *Engine) Station(id string) (StationTraffic, bool) {
	i, ok := e.byID[id]
	if !ok {
		return StationTraffic{}, false
	}
	return e.global[i], true
}

// Frame runs filter, aggregate and scale for sel. Unfiltered reuses the
// full-dataset aggregate; a time window always re-aggregates from the
// original catalog. Every call builds a fresh Markers slice.
func (e *Engine) Frame(ctx context.Context, sel Selection) (Frame, error) {
	ctx, span := tracer.Start(ctx, "traffic.frame",
		trace.WithAttributes(attribute.Int("selection", int(sel))),
	)
	defer span.End()
	start := time.Now()

	if err := sel.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid selection")
		return Frame{}, err
	}

	stations := e.global
	tripCount := len(e.trips)
	if sel.Filtered() {
		_, fspan := tracer.Start(ctx, "traffic.filter")
		subset, err := Filter(e.trips, sel)
		if err != nil {
			fspan.RecordError(err)
			fspan.End()
			span.RecordError(err)
			span.SetStatus(codes.Error, "filter failed")
			recordFrame(ctx, sel, 0, time.Since(start), err)
			return Frame{}, err
		}
		fspan.SetAttributes(attribute.Int("trips.kept", len(subset)))
		fspan.End()

		_, aspan := tracer.Start(ctx, "traffic.aggregate")
		stations = Aggregate(e.catalog, subset)
		aspan.End()
		tripCount = len(subset)
	}

	scale := RadiusScale{DomainMax: float64(e.domainMax), Range: RadiusRange(sel)}
	markers := make([]Marker, len(stations))
	for i, st := range stations {
		markers[i] = Marker{
			ID:           st.ID,
			Name:         st.Name,
			Lat:          st.Lat,
			Lon:          st.Lon,
			Radius:       scale.Radius(st.TotalTraffic),
			FlowLevel:    Flow(st),
			TotalTraffic: st.TotalTraffic,
			Arrivals:     st.Arrivals,
			Departures:   st.Departures,
		}
	}

	span.SetAttributes(
		attribute.Int("trips.count", tripCount),
		attribute.Int("stations.count", len(markers)),
	)
	recordFrame(ctx, sel, tripCount, time.Since(start), nil)

	return Frame{
		Selection:   sel,
		Label:       sel.String(),
		Filtered:    sel.Filtered(),
		RadiusRange: scale.Range,
		DomainMax:   e.domainMax,
		TripCount:   tripCount,
		Markers:     markers,
	}, nil
}
