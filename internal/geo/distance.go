// Package geo holds the spherical math behind nearby-station lookups and
// map framing.
package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points.
// Nearby lookups use it to trim rectangular index hits down to a circle and
// to order stations by distance.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	sinLat := math.Sin(radians(lat2-lat1) / 2)
	sinLon := math.Sin(radians(lon2-lon1) / 2)
	h := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Around returns the rectangle enclosing the circle of radiusMeters centered
// on a point, sized for the station R-Tree query. The longitude span widens
// with latitude.
func Around(lat, lon, radiusMeters float64) Bounds {
	dLat := degrees(radiusMeters / earthRadiusMeters)
	dLon := dLat / math.Cos(radians(lat))
	return Bounds{
		MinLat: lat - dLat,
		MinLon: lon - dLon,
		MaxLat: lat + dLat,
		MaxLon: lon + dLon,
		set:    true,
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
