package polaris

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/polaris/internal/graphhopper"
	"github.com/jusunglee/polaris/internal/models"
	"github.com/jusunglee/polaris/internal/route"
	"github.com/jusunglee/polaris/internal/store"
)

// LocalClient implements the Client interface in-process
// Owns the station directory, provider caches and the composer
type LocalClient struct {
	store    *store.Store
	geocoder graphhopper.Geocoder
	composer *route.Composer
}

// NewLocal creates a new local client
// Loads the station directory once; it is never reloaded
func NewLocal(ctx context.Context, config Config) (*LocalClient, error) {
	return NewLocalWithHTTPClient(ctx, config, nil)
}

// NewLocalWithHTTPClient is NewLocal with a caller-supplied HTTP client for
// the GraphHopper API
func NewLocalWithHTTPClient(ctx context.Context, config Config, httpClient *http.Client) (*LocalClient, error) {
	src, err := stationSource(config)
	if err != nil {
		return nil, err
	}

	s, err := store.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	gh := graphhopper.NewClient(graphhopper.Config{
		BaseURL: config.BaseURL,
		APIKey:  config.APIKey,
		Timeout: config.Timeout,
	}, httpClient)

	var driver route.DrivingRouteProvider = gh
	if config.RouteCacheSize > 0 {
		driver = graphhopper.NewCachedDriver(gh, config.RouteCacheSize, config.RouteCacheTTL)
	}

	var geocoder graphhopper.Geocoder = gh
	if config.GeocodeCacheTTL > 0 {
		geocoder = graphhopper.NewCachedGeocoder(gh, config.GeocodeCacheTTL)
	}

	return newLocal(s, driver, geocoder, route.Options{
		SkipCoincident:  config.SkipCoincident,
		TransitSpeedKmh: config.TransitSpeedKmh,
	}), nil
}

func newLocal(s *store.Store, driver route.DrivingRouteProvider, geocoder graphhopper.Geocoder, opts route.Options) *LocalClient {
	return &LocalClient{
		store:    s,
		geocoder: geocoder,
		composer: route.NewComposer(s, driver, opts),
	}
}

func stationSource(config Config) (store.Source, error) {
	switch config.StationsSource {
	case "", SourceEmbedded:
		return store.Embedded(), nil
	case SourceYAML:
		return store.YAMLFile(config.StationsPath), nil
	case SourceSQLite:
		return store.SQLite(config.StationsPath, config.StationsTable), nil
	case SourcePostgres:
		return store.Postgres(config.StationsDSN, config.StationsTable), nil
	default:
		return nil, fmt.Errorf("unknown stations source %q", config.StationsSource)
	}
}

func (c *LocalClient) ComposeRoute(ctx context.Context, start, end models.Coordinate) (models.Itinerary, error) {
	return c.composer.Compose(ctx, start, end)
}

// ComposeRouteByName geocodes both queries and composes the route between
// the results. Labels carry the geocoded display names.
func (c *LocalClient) ComposeRouteByName(ctx context.Context, startQuery, endQuery string) (models.Itinerary, error) {
	var start, end models.Place

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		place, err := c.geocoder.Geocode(gctx, startQuery)
		if err != nil {
			return &models.LegError{Leg: models.StageGeocodeStart, Err: err}
		}
		start = place
		return nil
	})
	g.Go(func() error {
		place, err := c.geocoder.Geocode(gctx, endQuery)
		if err != nil {
			return &models.LegError{Leg: models.StageGeocodeEnd, Err: err}
		}
		end = place
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Itinerary{}, err
	}

	it, err := c.composer.Compose(ctx, start.Coordinate, end.Coordinate)
	if err != nil {
		return models.Itinerary{}, err
	}
	it.StartLabel = "Start: " + start.DisplayName
	it.EndLabel = "End: " + end.DisplayName
	return it, nil
}

func (c *LocalClient) Geocode(ctx context.Context, query string) (models.Place, error) {
	return c.geocoder.Geocode(ctx, query)
}

func (c *LocalClient) Stations() []models.Station {
	return c.store.Stations()
}

func (c *LocalClient) NearbyStations(coord models.Coordinate, limit int) []store.StationDistance {
	return c.store.Nearby(coord, limit)
}

func (c *LocalClient) GetLastStaticUpdate() time.Time {
	return c.store.LoadedAt()
}
