// Package geo provides great-circle distance and nearest-station search
package geo

import (
	"math"

	"github.com/jusunglee/polaris/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by Distance
const EarthRadiusKm = 6371

// Distance calculates the distance in kilometers between two coordinates
// using the Haversine formula
func Distance(a, b models.Coordinate) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	// rounding can push h just past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Validate checks that c is within range, naming it field in the error
func Validate(field string, c models.Coordinate) error {
	if !c.Valid() {
		return &models.InvalidCoordinateError{Field: field, Coord: c}
	}
	return nil
}
