package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the composer matches exactly one
// of these with errors.Is.
var (
	ErrEmptyCandidateSet   = errors.New("empty candidate set")
	ErrNoStationsAvailable = errors.New("no train stations available")
	ErrNoRouteFound        = errors.New("no route found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrPlaceNotFound       = errors.New("place not found")
)

// InvalidCoordinateError reports an out-of-range input coordinate
type InvalidCoordinateError struct {
	Field string
	Coord Coordinate
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid %s coordinate (%g, %g): latitude must be in [-90, 90] and longitude in [-180, 180]",
		e.Field, e.Coord.Lat, e.Coord.Lon)
}

func (e *InvalidCoordinateError) Is(target error) bool {
	return target == ErrInvalidCoordinate
}

// NoRouteFoundError is returned when the routing provider has no path
// between two points
type NoRouteFoundError struct {
	From Coordinate
	To   Coordinate
}

func (e *NoRouteFoundError) Error() string {
	return fmt.Sprintf("no route found from (%g, %g) to (%g, %g)",
		e.From.Lat, e.From.Lon, e.To.Lat, e.To.Lon)
}

func (e *NoRouteFoundError) Is(target error) bool {
	return target == ErrNoRouteFound
}

// UpstreamError wraps a transport or provider failure.
// StatusCode is zero when no HTTP response was received.
type UpstreamError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// PlaceNotFoundError is returned when geocoding yields no result
type PlaceNotFoundError struct {
	Query string
}

func (e *PlaceNotFoundError) Error() string {
	return fmt.Sprintf("no results found for location: %s", e.Query)
}

func (e *PlaceNotFoundError) Is(target error) bool {
	return target == ErrPlaceNotFound
}

// Leg names used in LegError
const (
	LegDriveToStation   = "drive-to-station"
	LegTransit          = "transit"
	LegDriveFromStation = "drive-from-station"
	StageGeocodeStart   = "geocode-start"
	StageGeocodeEnd     = "geocode-end"
)

// LegError records which stage of a composition failed
type LegError struct {
	Leg string
	Err error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("%s: %v", e.Leg, e.Err)
}

func (e *LegError) Unwrap() error {
	return e.Err
}

// StageOf returns the failed stage recorded in err, or "" if none
func StageOf(err error) string {
	var legErr *LegError
	if errors.As(err, &legErr) {
		return legErr.Leg
	}
	return ""
}
