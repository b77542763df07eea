package geo

import "math"

// Coordinate is a latitude/longitude pair in degrees. Callers validate
// ranges before handing coordinates to this package.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const (
	earthRadiusKm = 6371.0
	// Assumed average city-traffic speed for the naive duration estimate.
	avgSpeedKmh = 25.0
)

// DistanceAndDuration returns the great-circle distance in km, rounded to
// two decimal places, and the estimated travel time in whole minutes.
func DistanceAndDuration(from, to Coordinate) (float64, int) {
	km := math.Round(haversineKm(from, to)*100) / 100
	min := int(math.Round(km / avgSpeedKmh * 60))
	return km, min
}

func haversineKm(a, b Coordinate) float64 {
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
