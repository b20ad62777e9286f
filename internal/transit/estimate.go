// Package transit estimates the rail leg between two stations
package transit

import (
	"github.com/jusunglee/polaris/internal/geo"
	"github.com/jusunglee/polaris/internal/models"
)

// AverageSpeedKmh is the assumed average train speed
const AverageSpeedKmh = 60

// Estimator derives straight-line transit legs at a fixed average speed
type Estimator struct {
	SpeedKmh float64
}

// NewEstimator creates an estimator; a non-positive speed falls back to
// AverageSpeedKmh
func NewEstimator(speedKmh float64) Estimator {
	if speedKmh <= 0 {
		speedKmh = AverageSpeedKmh
	}
	return Estimator{SpeedKmh: speedKmh}
}

// Estimate returns the transit leg between two stations. No track geometry
// is modelled: the leg is the straight line from one station to the other.
func (e Estimator) Estimate(from, to models.Station) models.RouteLeg {
	speed := e.SpeedKmh
	if speed <= 0 {
		speed = AverageSpeedKmh
	}

	distanceKm := geo.Distance(from.Location, to.Location)
	return models.RouteLeg{
		Mode:            models.ModeTransit,
		DistanceMeters:  distanceKm * 1000,
		DurationSeconds: distanceKm / speed * 3600,
		Geometry:        []models.Coordinate{from.Location, to.Location},
	}
}

// Estimate returns the transit leg at AverageSpeedKmh
func Estimate(from, to models.Station) models.RouteLeg {
	return NewEstimator(AverageSpeedKmh).Estimate(from, to)
}
