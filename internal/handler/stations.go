package handler

import (
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bikeflow/internal/geo"
	"bikeflow/internal/geocode"
	"bikeflow/internal/traffic"
)

const (
	defaultNearbyRadius = 500.0 // meters
	maxNearbyRadius     = 5000.0
	defaultNearbyLimit  = 10
	maxNearbyLimit      = 50
)

// StationView is one station with its whole-day counts.
type StationView struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Lat            float64           `json:"lat"`
	Lon            float64           `json:"lon"`
	Capacity       int               `json:"capacity"`
	Arrivals       int               `json:"arrivals"`
	Departures     int               `json:"departures"`
	TotalTraffic   int               `json:"totalTraffic"`
	DepartureRatio *float64          `json:"departureRatio"`
	FlowLevel      traffic.FlowLevel `json:"flowLevel"`
	DistanceMeters *float64          `json:"distanceMeters,omitempty"`
}

func stationView(st traffic.StationTraffic) StationView {
	v := StationView{
		ID:           st.ID,
		Name:         st.Name,
		Lat:          st.Lat,
		Lon:          st.Lon,
		Capacity:     st.Capacity,
		Arrivals:     st.Arrivals,
		Departures:   st.Departures,
		TotalTraffic: st.TotalTraffic,
		FlowLevel:    traffic.Flow(st),
	}
	if ratio := traffic.DepartureRatio(st); !math.IsNaN(ratio) {
		v.DepartureRatio = &ratio
	}
	return v
}

// StationDetail serves one station's unfiltered traffic.
func (h *Handler) StationDetail(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	st, found := e.Station(id)
	if !found {
		writeError(w, http.StatusNotFound, "unknown station "+strconv.Quote(id))
		return
	}
	writeJSON(w, http.StatusOK, stationView(st))
}

// NearbyStations serves stations within ?radius= meters of ?lat=&lon=,
// nearest first. Without coordinates, ?q= is geocoded inside the network's extent.
func (h *Handler) NearbyStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	e, ok := h.engine(w)
	if !ok {
		return
	}

	var place *geocode.Result
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
	if (err1 != nil || err2 != nil) && q.Get("q") != "" {
		var bounds geo.Bounds
		for _, s := range e.Catalog() {
			bounds.Extend(s.Lat, s.Lon)
		}
		res, err := h.geo.Search(r.Context(), q.Get("q"), bounds)
		if err != nil {
			h.logger.Error("geocoding nearby query", "q", q.Get("q"), "error", err)
			writeError(w, http.StatusBadGateway, "address lookup failed")
			return
		}
		if res == nil {
			writeError(w, http.StatusNotFound, "no match for "+strconv.Quote(q.Get("q")))
			return
		}
		place = res
		lat, lon, err1, err2 = res.Lat, res.Lon, nil, nil
	}
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lat and lon, or q, are required")
		return
	}

	radius := defaultNearbyRadius
	if v, err := strconv.ParseFloat(q.Get("radius"), 64); err == nil && v > 0 {
		radius = math.Min(v, maxNearbyRadius)
	}
	limit := defaultNearbyLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = min(v, maxNearbyLimit)
	}

	// The box query over-fetches corners; Haversine trims to the circle.
	rows, err := h.db.NearbyStations(r.Context(), lat, lon, geo.Around(lat, lon, radius), limit*2)
	if err != nil {
		h.logger.Error("finding nearby stations", "error", err)
		writeError(w, http.StatusInternalServerError, "nearby lookup failed")
		return
	}

	views := make([]StationView, 0, len(rows))
	for _, row := range rows {
		d := geo.Haversine(lat, lon, row.Lat, row.Lon)
		if d > radius {
			continue
		}
		st, found := e.Station(row.ID)
		if !found {
			st = traffic.StationTraffic{Station: traffic.Station{ID: row.ID, Name: row.Name, Lat: row.Lat, Lon: row.Lon}}
		}
		v := stationView(st)
		v.DistanceMeters = &d
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return *views[i].DistanceMeters < *views[j].DistanceMeters
	})
	if len(views) > limit {
		views = views[:limit]
	}
	body := map[string]any{
		"lat":      lat,
		"lon":      lon,
		"radius":   radius,
		"stations": views,
	}
	if place != nil {
		body["place"] = place
	}
	writeJSON(w, http.StatusOK, body)
}
