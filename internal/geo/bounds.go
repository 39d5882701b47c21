package geo

// Bounds is a lat/lon rectangle. The zero value is empty.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
	set    bool
}

// Extend grows b to include the point.
func (b *Bounds) Extend(lat, lon float64) {
	if !b.set {
		*b = Bounds{MinLat: lat, MinLon: lon, MaxLat: lat, MaxLon: lon, set: true}
		return
	}
	b.MinLat = min(b.MinLat, lat)
	b.MinLon = min(b.MinLon, lon)
	b.MaxLat = max(b.MaxLat, lat)
	b.MaxLon = max(b.MaxLon, lon)
}

// IsZero reports whether no point has been added.
func (b Bounds) IsZero() bool {
	return !b.set
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return b.set && lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
