package domain

import "math"

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lon float64
}

const earthRadiusKm = 6371.0

// Round6 rounds both components to 6 decimal places (~11 cm), the precision
// routing engines accept without cache-busting jitter.
func (c Coordinates) Round6() Coordinates {
	return Coordinates{
		Lat: math.Round(c.Lat*1e6) / 1e6,
		Lon: math.Round(c.Lon*1e6) / 1e6,
	}
}

// HaversineKm returns the great-circle distance between two points in km.
// It is a road-distance proxy, not a travel-time estimate.
func HaversineKm(a, b Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
