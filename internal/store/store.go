package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jusunglee/polaris/internal/geo"
	"github.com/jusunglee/polaris/internal/models"
)

// Store is the read-only station directory.
// It is built once and safe to share between goroutines.
type Store struct {
	stations []models.Station
	byCode   map[string]int
	source   string
	loadedAt time.Time
}

// StationDistance is a station with its distance from a query point
type StationDistance struct {
	models.Station
	DistanceKm float64 `json:"distance_km"`
}

// NewStore creates a store over a fixed station list, keeping input order
func NewStore(stations []models.Station) *Store {
	s := &Store{
		stations: make([]models.Station, len(stations)),
		byCode:   make(map[string]int, len(stations)),
		loadedAt: time.Now(),
	}
	copy(s.stations, stations)

	for i, station := range s.stations {
		code := strings.ToUpper(station.Code)
		if _, dup := s.byCode[code]; !dup {
			s.byCode[code] = i
		}
	}

	return s
}

// Load reads all stations from src and builds a store
func Load(ctx context.Context, src Source) (*Store, error) {
	stations, err := src.Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stations from %s: %w", src.Name(), err)
	}

	for i, station := range stations {
		if err := validateStation(station); err != nil {
			return nil, fmt.Errorf("station %d from %s: %w", i, src.Name(), err)
		}
	}

	s := NewStore(stations)
	s.source = src.Name()
	return s, nil
}

// Stations returns all stations in directory order
func (s *Store) Stations() []models.Station {
	result := make([]models.Station, len(s.stations))
	copy(result, s.stations)
	return result
}

// Len returns the number of stations
func (s *Store) Len() int {
	return len(s.stations)
}

// Source returns the name of the source the store was loaded from
func (s *Store) Source() string {
	return s.source
}

// LoadedAt returns when the store was built
func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// ByCode returns a station by its code (case-insensitive)
func (s *Store) ByCode(code string) (models.Station, error) {
	i, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return models.Station{}, fmt.Errorf("station %s not found", code)
	}
	return s.stations[i], nil
}

// Nearby returns up to limit stations closest to c, nearest first.
// Stations at equal distance keep directory order.
func (s *Store) Nearby(c models.Coordinate, limit int) []StationDistance {
	stations := make([]StationDistance, len(s.stations))
	for i, station := range s.stations {
		stations[i] = StationDistance{station, geo.Distance(c, station.Location)}
	}

	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].DistanceKm < stations[j].DistanceKm
	})

	if limit >= 0 && limit < len(stations) {
		stations = stations[:limit]
	}
	return stations
}
