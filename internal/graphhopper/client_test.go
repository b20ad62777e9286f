package graphhopper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jusunglee/polaris/internal/models"
)

var (
	potheri = models.Coordinate{Lat: 12.8236, Lon: 80.0444}
	srm     = models.Coordinate{Lat: 12.8231, Lon: 80.0442}
)

const routeBody = `{
  "paths": [{
    "distance": 1520.5,
    "time": 245000,
    "points": {"type": "LineString", "coordinates": [[80.0442, 12.8231], [80.0443, 12.8233], [80.0444, 12.8236]]},
    "instructions": [
      {"text": "Continue onto GST Road", "distance": 1500.5, "time": 240000, "sign": 0, "street_name": "GST Road"},
      {"text": "Arrive at destination", "distance": 20, "time": 5000, "sign": 4}
    ]
  }]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, srv.Client())
}

func TestDrive(t *testing.T) {
	var query map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/route" {
			t.Errorf("Expected /route, got %s", r.URL.Path)
		}
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(routeBody))
	})

	leg, err := c.Drive(context.Background(), srm, potheri)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Run("request", func(t *testing.T) {
		points := query["point"]
		if len(points) != 2 || points[0] != "12.8231,80.0442" || points[1] != "12.8236,80.0444" {
			t.Errorf("Unexpected points %v", points)
		}
		if query["points_encoded"][0] != "false" || query["vehicle"][0] != "car" || query["key"][0] != "test-key" {
			t.Errorf("Unexpected query %v", query)
		}
	})

	t.Run("units", func(t *testing.T) {
		if leg.DistanceMeters != 1520.5 {
			t.Errorf("Expected distance 1520.5, got %v", leg.DistanceMeters)
		}
		if leg.DurationSeconds != 245 {
			t.Errorf("Expected 245 s, got %v", leg.DurationSeconds)
		}
		if leg.Instructions[0].Time != 240 {
			t.Errorf("Expected instruction time 240 s, got %v", leg.Instructions[0].Time)
		}
	})

	t.Run("geometry", func(t *testing.T) {
		if len(leg.Geometry) != 3 {
			t.Fatalf("Expected 3 points, got %d", len(leg.Geometry))
		}
		if leg.Geometry[0] != srm || leg.Geometry[2] != potheri {
			t.Errorf("Expected [lon, lat] to be swapped into coordinates, got %v", leg.Geometry)
		}
	})

	t.Run("instructions", func(t *testing.T) {
		if len(leg.Instructions) != 2 {
			t.Fatalf("Expected 2 instructions, got %d", len(leg.Instructions))
		}
		if leg.Instructions[0].StreetName != "GST Road" || leg.Instructions[1].Sign != 4 {
			t.Errorf("Turn metadata lost: %+v", leg.Instructions)
		}
		if leg.Mode != models.ModeDrive {
			t.Errorf("Expected drive mode, got %s", leg.Mode)
		}
	})
}

func TestDriveErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"zero paths", http.StatusOK, `{"paths": []}`, models.ErrNoRouteFound},
		{"missing paths", http.StatusOK, `{}`, models.ErrUpstreamUnavailable},
		{"null body", http.StatusOK, `null`, models.ErrUpstreamUnavailable},
		{"null paths", http.StatusOK, `{"paths": null}`, models.ErrUpstreamUnavailable},
		{"connection not found", http.StatusBadRequest, `{"message": "Connection between locations not found"}`, models.ErrNoRouteFound},
		{"cannot find point", http.StatusBadRequest, `{"message": "Cannot find point 1: 91.0,80.0"}`, models.ErrNoRouteFound},
		{"bad key", http.StatusUnauthorized, `{"message": "Wrong credentials"}`, models.ErrUpstreamUnavailable},
		{"server error", http.StatusInternalServerError, `oops`, models.ErrUpstreamUnavailable},
		{"other bad request", http.StatusBadRequest, `{"message": "Unsupported vehicle"}`, models.ErrUpstreamUnavailable},
		{"malformed payload", http.StatusOK, `{"paths": [`, models.ErrUpstreamUnavailable},
		{"empty geometry", http.StatusOK, `{"paths": [{"distance": 1, "time": 1, "points": {"coordinates": []}}]}`, models.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Drive(context.Background(), srm, potheri)
			if !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
			if calls.Load() != 1 {
				t.Errorf("Expected exactly one attempt, got %d", calls.Load())
			}

			var noRoute *models.NoRouteFoundError
			if errors.As(err, &noRoute) && (noRoute.From != srm || noRoute.To != potheri) {
				t.Errorf("NoRouteFoundError lost endpoints: %+v", noRoute)
			}
			var upstream *models.UpstreamError
			if errors.As(err, &upstream) && tt.status != http.StatusOK && upstream.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, upstream.StatusCode)
			}
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c := NewClient(Config{BaseURL: url}, nil)
		_, err := c.Drive(context.Background(), srm, potheri)
		if !errors.Is(err, models.ErrUpstreamUnavailable) {
			t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(routeBody))
		})
		c.httpClient.Timeout = 20 * time.Millisecond

		_, err := c.Drive(context.Background(), srm, potheri)
		if !errors.Is(err, models.ErrUpstreamUnavailable) {
			t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
		}
	})
}

func TestDriveSinglePointPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"paths": [{"distance": 0, "time": 0, "points": {"coordinates": [[80.0444, 12.8236]]}, "instructions": []}]}`))
	})

	leg, err := c.Drive(context.Background(), potheri, potheri)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(leg.Geometry) != 2 || leg.Geometry[0] != leg.Geometry[1] {
		t.Errorf("Expected degenerate two-point geometry, got %v", leg.Geometry)
	}
}

func TestGeocode(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		want   models.Place
	}{
		{
			name:   "found",
			status: http.StatusOK,
			body:   `{"hits": [{"point": {"lat": 13.0827, "lng": 80.2707}, "name": "Chennai Central"}]}`,
			want:   models.Place{Coordinate: models.Coordinate{Lat: 13.0827, Lon: 80.2707}, DisplayName: "Chennai Central"},
		},
		{
			name:   "unnamed hit uses query",
			status: http.StatusOK,
			body:   `{"hits": [{"point": {"lat": 12.8236, "lng": 80.0444}}]}`,
			want:   models.Place{Coordinate: potheri, DisplayName: "central station"},
		},
		{"no hits", http.StatusOK, `{"hits": []}`, models.ErrPlaceNotFound, models.Place{}},
		{"server error", http.StatusBadGateway, ``, models.ErrUpstreamUnavailable, models.Place{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/geocode" {
					t.Errorf("Expected /geocode, got %s", r.URL.Path)
				}
				if r.URL.Query().Get("q") != "central station" || r.URL.Query().Get("limit") != "1" {
					t.Errorf("Unexpected query %v", r.URL.Query())
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			place, err := c.Geocode(context.Background(), "central station")
			if tt.kind != nil {
				if !errors.Is(err, tt.kind) {
					t.Errorf("Expected %v, got %v", tt.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if place != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, place)
			}
		})
	}
}

type countingDriver struct {
	calls atomic.Int32
	err   error
}

func (d *countingDriver) Drive(ctx context.Context, from, to models.Coordinate) (models.RouteLeg, error) {
	d.calls.Add(1)
	if d.err != nil {
		return models.RouteLeg{}, d.err
	}
	return models.RouteLeg{Mode: models.ModeDrive, DistanceMeters: 10, Geometry: []models.Coordinate{from, to}}, nil
}

func TestCachedDriver(t *testing.T) {
	next := &countingDriver{}
	d := NewCachedDriver(next, 8, time.Minute)

	for i := 0; i < 3; i++ {
		leg, err := d.Drive(context.Background(), srm, potheri)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if leg.DistanceMeters != 10 {
			t.Errorf("Unexpected leg %+v", leg)
		}
	}
	if next.calls.Load() != 1 {
		t.Errorf("Expected 1 upstream call, got %d", next.calls.Load())
	}

	// Reverse direction is a different leg
	if _, err := d.Drive(context.Background(), potheri, srm); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if next.calls.Load() != 2 || d.Len() != 2 {
		t.Errorf("Expected 2 calls and 2 entries, got %d and %d", next.calls.Load(), d.Len())
	}

	t.Run("errors not cached", func(t *testing.T) {
		failing := &countingDriver{err: &models.NoRouteFoundError{From: srm, To: potheri}}
		d := NewCachedDriver(failing, 8, 0)
		for i := 0; i < 2; i++ {
			if _, err := d.Drive(context.Background(), srm, potheri); !errors.Is(err, models.ErrNoRouteFound) {
				t.Errorf("Expected ErrNoRouteFound, got %v", err)
			}
		}
		if failing.calls.Load() != 2 {
			t.Errorf("Expected failures to reach upstream each time, got %d calls", failing.calls.Load())
		}
	})
}

type slowGeocoder struct {
	calls atomic.Int32
	delay time.Duration
}

func (g *slowGeocoder) Geocode(ctx context.Context, query string) (models.Place, error) {
	g.calls.Add(1)
	time.Sleep(g.delay)
	if query == "nowhere" {
		return models.Place{}, &models.PlaceNotFoundError{Query: query}
	}
	return models.Place{Coordinate: potheri, DisplayName: query}, nil
}

func TestCachedGeocoder(t *testing.T) {
	next := &slowGeocoder{delay: 50 * time.Millisecond}
	g := NewCachedGeocoder(next, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Geocode(context.Background(), "Potheri"); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// Same query, different case and spacing
	place, err := g.Geocode(context.Background(), "  potheri ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if place.Coordinate != potheri {
		t.Errorf("Unexpected place %+v", place)
	}
	if next.calls.Load() != 1 {
		t.Errorf("Expected 1 upstream call, got %d", next.calls.Load())
	}

	t.Run("not found is not cached", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := g.Geocode(context.Background(), "nowhere"); !errors.Is(err, models.ErrPlaceNotFound) {
				t.Errorf("Expected ErrPlaceNotFound, got %v", err)
			}
		}
		if next.calls.Load() != 3 {
			t.Errorf("Expected 3 upstream calls, got %d", next.calls.Load())
		}
	})

	g.Flush()
	if _, err := g.Geocode(context.Background(), "Potheri"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if next.calls.Load() != 4 {
		t.Errorf("Expected flush to force a new lookup, got %d calls", next.calls.Load())
	}
}

// blockingGeocoder resolves after delay unless its context ends first
type blockingGeocoder struct {
	calls atomic.Int32
	delay time.Duration
}

func (g *blockingGeocoder) Geocode(ctx context.Context, query string) (models.Place, error) {
	g.calls.Add(1)
	select {
	case <-time.After(g.delay):
		return models.Place{Coordinate: potheri, DisplayName: query}, nil
	case <-ctx.Done():
		return models.Place{}, ctx.Err()
	}
}

func TestCachedGeocoderCallerCancellation(t *testing.T) {
	next := &blockingGeocoder{delay: 150 * time.Millisecond}
	g := NewCachedGeocoder(next, time.Minute)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := g.Geocode(ctxA, "Guindy")
		errA <- err
	}()

	// second caller joins the lookup the first one started
	time.Sleep(20 * time.Millisecond)
	errB := make(chan error, 1)
	go func() {
		_, err := g.Geocode(context.Background(), "Guindy")
		errB <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()

	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancelled caller to get context.Canceled, got %v", err)
	}
	if err := <-errB; err != nil {
		t.Errorf("Expected other caller to succeed, got %v", err)
	}
	if next.calls.Load() != 1 {
		t.Errorf("Expected 1 upstream call, got %d", next.calls.Load())
	}

	// the shared result was cached despite the first caller leaving
	if _, err := g.Geocode(context.Background(), "guindy"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if next.calls.Load() != 1 {
		t.Errorf("Expected cached result, got %d upstream calls", next.calls.Load())
	}
}
