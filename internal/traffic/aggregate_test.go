package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_CountsArrivalsAndDepartures(t *testing.T) {
	catalog := []Station{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	trips := []Trip{
		trip("1", "A", "B", "08:00", "08:10"),
		trip("2", "A", "C", "08:00", "08:10"),
		trip("3", "B", "A", "08:00", "08:10"),
		trip("4", "A", "A", "08:00", "08:10"),
	}

	got := Aggregate(catalog, trips)

	want := []StationTraffic{
		{Station: Station{ID: "A"}, Arrivals: 2, Departures: 3, TotalTraffic: 5},
		{Station: Station{ID: "B"}, Arrivals: 1, Departures: 1, TotalTraffic: 2},
		{Station: Station{ID: "C"}, Arrivals: 1, Departures: 0, TotalTraffic: 1},
	}
	assert.Equal(t, want, got)
}

func TestAggregate_StationWithoutTripsIsZero(t *testing.T) {
	got := Aggregate([]Station{{ID: "lonely"}}, []Trip{trip("1", "A", "B", "08:00", "08:10")})
	assert.Equal(t, []StationTraffic{{Station: Station{ID: "lonely"}}}, got)
}

func TestAggregate_UnknownStationsIgnored(t *testing.T) {
	catalog := []Station{{ID: "A"}}
	trips := []Trip{
		trip("1", "A", "ghost", "08:00", "08:10"),
		trip("2", "ghost", "other", "08:00", "08:10"),
	}

	got := Aggregate(catalog, trips)
	assert.Equal(t, 0, got[0].Arrivals)
	assert.Equal(t, 1, got[0].Departures)
}

func TestAggregate_PreservesCatalogOrderAndFields(t *testing.T) {
	catalog := []Station{
		{ID: "Z", Name: "Zeta", Lat: 42.1, Lon: -71.2, Capacity: 19},
		{ID: "A", Name: "Alpha", Lat: 42.3, Lon: -71.0, Capacity: 11},
	}
	got := Aggregate(catalog, nil)
	assert.Equal(t, catalog[0], got[0].Station)
	assert.Equal(t, catalog[1], got[1].Station)
}

func TestAggregate_DoesNotMutateCatalog(t *testing.T) {
	catalog := []Station{{ID: "A"}, {ID: "B"}}
	before := append([]Station(nil), catalog...)
	first := Aggregate(catalog, []Trip{trip("1", "A", "B", "08:00", "08:10")})
	second := Aggregate(catalog, nil)

	assert.Equal(t, before, catalog)
	assert.Equal(t, 1, first[0].Departures)
	assert.Equal(t, 0, second[0].Departures, "a later pass must not see earlier counts")
}

func TestAggregate_Conservation(t *testing.T) {
	catalog := []Station{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	trips := []Trip{
		trip("1", "A", "B", "08:00", "08:10"),
		trip("2", "B", "C", "09:00", "09:10"),
		trip("3", "C", "A", "10:00", "10:10"),
		trip("4", "A", "ghost", "11:00", "11:10"),
		trip("5", "ghost", "B", "12:00", "12:10"),
	}

	matched := trips[:3]
	for _, subset := range [][]Trip{matched, trips} {
		var arrivals, departures int
		for _, st := range Aggregate(catalog, subset) {
			arrivals += st.Arrivals
			departures += st.Departures
			assert.Equal(t, st.Arrivals+st.Departures, st.TotalTraffic, "station %s", st.ID)
		}
		assert.LessOrEqual(t, arrivals, len(subset))
		assert.LessOrEqual(t, departures, len(subset))
		if len(subset) == len(matched) {
			assert.Equal(t, len(subset), arrivals)
			assert.Equal(t, len(subset), departures)
		}
	}
}

func TestMaxTotal(t *testing.T) {
	assert.Equal(t, 0, MaxTotal(nil))
	assert.Equal(t, 7, MaxTotal([]StationTraffic{{TotalTraffic: 3}, {TotalTraffic: 7}, {TotalTraffic: 1}}))
}
