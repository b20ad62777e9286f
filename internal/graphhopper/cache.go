package graphhopper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/jusunglee/polaris/internal/models"
)

// Driver fetches a single driving leg
type Driver interface {
	Drive(ctx context.Context, from, to models.Coordinate) (models.RouteLeg, error)
}

// Geocoder resolves a place name
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Place, error)
}

// CachedDriver keeps recently fetched driving legs in a bounded LRU.
// Failures are never cached.
type CachedDriver struct {
	next  Driver
	cache gcache.Cache
}

// NewCachedDriver wraps next with an LRU of size entries expiring after ttl
func NewCachedDriver(next Driver, size int, ttl time.Duration) *CachedDriver {
	builder := gcache.New(size).LRU()
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}
	return &CachedDriver{next: next, cache: builder.Build()}
}

// Drive returns a cached leg or fetches one from the wrapped driver
func (d *CachedDriver) Drive(ctx context.Context, from, to models.Coordinate) (models.RouteLeg, error) {
	key := legKey(from, to)
	if v, err := d.cache.Get(key); err == nil {
		return v.(models.RouteLeg), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return models.RouteLeg{}, err
	}

	leg, err := d.next.Drive(ctx, from, to)
	if err != nil {
		return models.RouteLeg{}, err
	}

	_ = d.cache.Set(key, leg)
	return leg, nil
}

// Len returns the number of cached legs
func (d *CachedDriver) Len() int {
	return d.cache.Len(false)
}

// CachedGeocoder keeps geocoding results for a TTL and collapses
// concurrent lookups of the same query into one upstream call
type CachedGeocoder struct {
	next   Geocoder
	cache  *gocache.Cache
	flight singleflight.Group
}

// NewCachedGeocoder wraps next with a TTL cache
func NewCachedGeocoder(next Geocoder, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Geocode returns a cached place or resolves it through the wrapped geocoder
func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (models.Place, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if v, ok := g.cache.Get(key); ok {
		return v.(models.Place), nil
	}

	// The shared lookup outlives any single caller; each caller still
	// stops waiting when its own context ends. The HTTP client timeout
	// bounds the lookup itself.
	ch := g.flight.DoChan(key, func() (interface{}, error) {
		// a flight that just finished may have filled the cache
		if v, ok := g.cache.Get(key); ok {
			return v, nil
		}
		place, err := g.next.Geocode(context.WithoutCancel(ctx), query)
		if err != nil {
			return nil, err
		}
		g.cache.Set(key, place, gocache.DefaultExpiration)
		return place, nil
	})

	select {
	case <-ctx.Done():
		return models.Place{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.Place{}, res.Err
		}
		return res.Val.(models.Place), nil
	}
}

// Flush empties the geocode cache
func (g *CachedGeocoder) Flush() {
	g.cache.Flush()
}

func legKey(from, to models.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f:%.6f,%.6f", from.Lat, from.Lon, to.Lat, to.Lon)
}
