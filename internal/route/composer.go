// Package route composes drive → train → drive itineraries
package route

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/polaris/internal/geo"
	"github.com/jusunglee/polaris/internal/models"
	"github.com/jusunglee/polaris/internal/transit"
)

// DrivingRouteProvider fetches a single driving leg
type DrivingRouteProvider interface {
	Drive(ctx context.Context, from, to models.Coordinate) (models.RouteLeg, error)
}

// StationDirectory lists the stations a route may pass through
type StationDirectory interface {
	Stations() []models.Station
}

// Options tunes composition
type Options struct {
	// SkipCoincident synthesizes a zero-length driving leg instead of
	// calling the provider when an endpoint is exactly at its station.
	SkipCoincident bool
	// TransitSpeedKmh overrides the average train speed; zero means
	// transit.AverageSpeedKmh.
	TransitSpeedKmh float64
}

// DefaultOptions returns the options used by the server
func DefaultOptions() Options {
	return Options{
		SkipCoincident:  true,
		TransitSpeedKmh: transit.AverageSpeedKmh,
	}
}

// Composer builds multi-modal itineraries. It holds no per-request state
// and may be shared between goroutines.
type Composer struct {
	stations       StationDirectory
	driver         DrivingRouteProvider
	transit        transit.Estimator
	skipCoincident bool
}

// NewComposer creates a new composer
func NewComposer(stations StationDirectory, driver DrivingRouteProvider, opts Options) *Composer {
	return &Composer{
		stations:       stations,
		driver:         driver,
		transit:        transit.NewEstimator(opts.TransitSpeedKmh),
		skipCoincident: opts.SkipCoincident,
	}
}

// Compose returns the itinerary driving from start to the nearest station,
// taking the train to the station nearest end, and driving on to end.
// Any failure aborts the whole composition; no partial itinerary is
// returned.
func (c *Composer) Compose(ctx context.Context, start, end models.Coordinate) (models.Itinerary, error) {
	if err := geo.Validate("start", start); err != nil {
		return models.Itinerary{}, err
	}
	if err := geo.Validate("end", end); err != nil {
		return models.Itinerary{}, err
	}

	stations := c.stations.Stations()
	if len(stations) == 0 {
		return models.Itinerary{}, models.ErrNoStationsAvailable
	}

	startStation, err := geo.Nearest(start, stations)
	if err != nil {
		return models.Itinerary{}, fmt.Errorf("finding station near start: %w", err)
	}
	endStation, err := geo.Nearest(end, stations)
	if err != nil {
		return models.Itinerary{}, fmt.Errorf("finding station near end: %w", err)
	}

	// The two driving legs are independent; fetch them together and let
	// the first failure cancel the other.
	var legA, legC models.RouteLeg
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leg, err := c.drive(gctx, start, startStation.Location)
		if err != nil {
			return &models.LegError{Leg: models.LegDriveToStation, Err: err}
		}
		legA = leg
		return nil
	})
	g.Go(func() error {
		leg, err := c.drive(gctx, endStation.Location, end)
		if err != nil {
			return &models.LegError{Leg: models.LegDriveFromStation, Err: err}
		}
		legC = leg
		return nil
	})

	legB := c.transit.Estimate(startStation, endStation)

	if err := g.Wait(); err != nil {
		slog.Debug("Route composition failed",
			"start", start,
			"end", end,
			"stage", models.StageOf(err),
			"error", err,
		)
		return models.Itinerary{}, err
	}

	it := merge(legA, legB, legC, startStation, endStation)
	it.StartLabel = "Start: " + formatCoordinate(start)
	it.EndLabel = "End: " + formatCoordinate(end)

	slog.Debug("Route composed",
		"start_station", startStation.Code,
		"end_station", endStation.Code,
		"distance_m", it.DistanceMeters,
		"time_s", it.DurationSeconds,
	)
	return it, nil
}

func (c *Composer) drive(ctx context.Context, from, to models.Coordinate) (models.RouteLeg, error) {
	if c.skipCoincident && from == to {
		return models.RouteLeg{
			Mode:     models.ModeDrive,
			Geometry: []models.Coordinate{from, to},
		}, nil
	}
	return c.driver.Drive(ctx, from, to)
}

// TransitInstruction is the step describing the train leg
func TransitInstruction(from, to models.Station, leg models.RouteLeg) models.Instruction {
	return models.Instruction{
		Text:     fmt.Sprintf("Take train from %s to %s (%.1f km)", from.Name, to.Name, leg.DistanceMeters/1000),
		Distance: leg.DistanceMeters,
		Time:     leg.DurationSeconds,
	}
}

// merge stitches the three legs in travel order. Fresh slices are built so
// that legs shared with a provider cache are never written to.
func merge(legA, legB, legC models.RouteLeg, startStation, endStation models.Station) models.Itinerary {
	legs := [3]models.RouteLeg{legA, legB, legC}

	it := models.Itinerary{
		StartStation: startStation,
		EndStation:   endStation,
		Legs:         legs,
	}

	points := 0
	for _, leg := range legs {
		it.DistanceMeters += leg.DistanceMeters
		it.DurationSeconds += leg.DurationSeconds
		points += len(leg.Geometry)
	}

	it.Geometry = make([]models.Coordinate, 0, points)
	for _, leg := range legs {
		it.Geometry = append(it.Geometry, leg.Geometry...)
	}

	it.Instructions = make([]models.Instruction, 0, len(legA.Instructions)+1+len(legC.Instructions))
	it.Instructions = append(it.Instructions, legA.Instructions...)
	it.Instructions = append(it.Instructions, TransitInstruction(startStation, endStation, legB))
	it.Instructions = append(it.Instructions, legC.Instructions...)

	return it
}

func formatCoordinate(c models.Coordinate) string {
	return formatDegrees(c.Lat) + ", " + formatDegrees(c.Lon)
}

// formatDegrees renders the shortest exact decimal, keeping a ".0" on
// whole numbers and using exponent form outside [1e-4, 1e16)
func formatDegrees(v float64) string {
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
