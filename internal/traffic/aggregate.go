package traffic

// Aggregate counts arrivals and departures per station over trips.
// The result is a new slice in catalog order. Trips naming stations that are
// not in the catalog contribute to nothing.
func Aggregate(stations []Station, trips []Trip) []StationTraffic {
	arrivals := countBy(trips, func(t Trip) string { return t.EndStationID })
	departures := countBy(trips, func(t Trip) string { return t.StartStationID })

	out := make([]StationTraffic, len(stations))
	for i, s := range stations {
		a, d := arrivals[s.ID], departures[s.ID]
		out[i] = StationTraffic{
			Station:      s,
			Arrivals:     a,
			Departures:   d,
			TotalTraffic: a + d,
		}
	}
	return out
}

func countBy(trips []Trip, key func(Trip) string) map[string]int {
	counts := make(map[string]int)
	for _, t := range trips {
		counts[key(t)]++
	}
	return counts
}

// MaxTotal returns the largest TotalTraffic, or 0 for an empty slice.
func MaxTotal(st []StationTraffic) int {
	max := 0
	for _, s := range st {
		if s.TotalTraffic > max {
			max = s.TotalTraffic
		}
	}
	return max
}
