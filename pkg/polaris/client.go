package polaris

import (
	"context"
	"time"

	"github.com/jusunglee/polaris/internal/models"
	"github.com/jusunglee/polaris/internal/store"
	"github.com/jusunglee/polaris/internal/transit"
)

// Client defines the interface for composing multi-modal routes
// Abstracts the local implementation so handlers can be tested with fakes
type Client interface {
	ComposeRoute(ctx context.Context, start, end models.Coordinate) (models.Itinerary, error)
	ComposeRouteByName(ctx context.Context, startQuery, endQuery string) (models.Itinerary, error)

	Geocode(ctx context.Context, query string) (models.Place, error)

	Stations() []models.Station
	NearbyStations(c models.Coordinate, limit int) []store.StationDistance

	GetLastStaticUpdate() time.Time
}

// Station sources accepted in Config.StationsSource
const (
	SourceEmbedded = "embedded"
	SourceYAML     = "yaml"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds configuration for the client
// APIKey is the GraphHopper key used for routing and geocoding
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	RouteCacheSize  int
	RouteCacheTTL   time.Duration
	GeocodeCacheTTL time.Duration

	StationsSource string
	StationsPath   string
	StationsDSN    string
	StationsTable  string

	TransitSpeedKmh float64
	SkipCoincident  bool
}

// DefaultConfig returns default configuration
// Stations come from the embedded Chennai suburban list
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		RouteCacheSize:  1024,
		RouteCacheTTL:   time.Hour,
		GeocodeCacheTTL: 24 * time.Hour,
		StationsSource:  SourceEmbedded,
		StationsTable:   "stations",
		TransitSpeedKmh: transit.AverageSpeedKmh,
		SkipCoincident:  true,
	}
}
