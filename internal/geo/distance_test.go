package geo

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantMeters             float64
		tolerance              float64 // allowed error in meters
	}{
		{
			name: "Fan Pier to Harvard Square (~7 km)",
			lat1: 42.353391, lon1: -71.044571,
			lat2: 42.373268, lon2: -71.118579,
			wantMeters: 6_470,
			tolerance:  30,
		},
		{
			name: "same point returns zero",
			lat1: 42.353391, lon1: -71.044571,
			lat2: 42.353391, lon2: -71.044571,
			wantMeters: 0,
			tolerance:  0.001,
		},
		{
			name: "north pole to south pole",
			lat1: 90, lon1: 0,
			lat2: -90, lon2: 0,
			wantMeters: math.Pi * earthRadiusMeters,
			tolerance:  1,
		},
		{
			name: "equator quarter circumference",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 90,
			wantMeters: math.Pi / 2 * earthRadiusMeters,
			tolerance:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantMeters) > tt.tolerance {
				t.Errorf("Haversine() = %.1f m, want %.1f m (±%.0f)", got, tt.wantMeters, tt.tolerance)
			}
		})
	}
}

func TestHaversine_Symmetry(t *testing.T) {
	a := Haversine(42.353391, -71.044571, 42.340021, -71.100812)
	b := Haversine(42.340021, -71.100812, 42.353391, -71.044571)
	if a != b {
		t.Errorf("Haversine not symmetric: %f != %f", a, b)
	}
}

func TestAround(t *testing.T) {
	// At the equator, 1 degree of lat and of lon are both ~111 km.
	b := Around(0, 0, 111_000)
	if math.Abs(b.MaxLat-1.0) > 0.01 || math.Abs(b.MinLat+1.0) > 0.01 {
		t.Errorf("lat span at equator for 111km = [%f, %f], want ~[-1, 1]", b.MinLat, b.MaxLat)
	}
	if math.Abs(b.MaxLon-1.0) > 0.01 {
		t.Errorf("lon half-span at equator for 111km = %f, want ~1.0", b.MaxLon)
	}

	// Longitude span is ~sqrt(2) times wider at 45 degrees.
	b45 := Around(45, 10, 1000)
	if ratio := (b45.MaxLon - b45.MinLon) / (b45.MaxLat - b45.MinLat); math.Abs(ratio-math.Sqrt(2)) > 0.01 {
		t.Errorf("lon/lat span at 45° = %f, want ~%f", ratio, math.Sqrt(2))
	}

	// The box holds the whole circle: a point 900 m due east is inside.
	fanPier := Around(42.353391, -71.044571, 1000)
	if fanPier.IsZero() {
		t.Fatal("Around() should return a non-empty box")
	}
	lonEast := -71.044571 + degrees(900/earthRadiusMeters)/math.Cos(radians(42.353391))
	if !fanPier.Contains(42.353391, lonEast) {
		t.Error("point 900 m east should fall inside a 1 km box")
	}
	if d := Haversine(42.353391, -71.044571, 42.353391, lonEast); math.Abs(d-900) > 1 {
		t.Errorf("distance to point 900 m east = %f", d)
	}
}

func TestBounds(t *testing.T) {
	var b Bounds
	if !b.IsZero() || b.Contains(0, 0) {
		t.Fatal("zero Bounds should be empty and contain nothing")
	}

	b.Extend(42.353391, -71.044571)
	if b.IsZero() || !b.Contains(42.353391, -71.044571) {
		t.Fatal("Bounds should contain its only point")
	}

	b.Extend(42.373268, -71.118579)
	b.Extend(42.340021, -71.100812)
	want := Bounds{MinLat: 42.340021, MinLon: -71.118579, MaxLat: 42.373268, MaxLon: -71.044571, set: true}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}

	lat, lon := b.Center()
	if math.Abs(lat-42.3566445) > 1e-9 || math.Abs(lon-(-71.081575)) > 1e-9 {
		t.Errorf("Center() = (%f, %f)", lat, lon)
	}
	if b.Contains(42.4, -71.05) {
		t.Error("point north of the box should not be contained")
	}
}
