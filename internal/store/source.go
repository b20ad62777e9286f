// Package store holds the read-only station directory and the sources it
// can be loaded from
package store

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jusunglee/polaris/internal/models"
)

//go:embed stations.yaml
var embeddedStations []byte

var (
	validate  = validator.New()
	tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// Source supplies the station list a Store is built from
type Source interface {
	Name() string
	Stations(ctx context.Context) ([]models.Station, error)
}

// stationRecord is the flat on-disk/row representation of a station
type stationRecord struct {
	Name string  `yaml:"name" validate:"required"`
	Code string  `yaml:"code" validate:"required"`
	Lat  float64 `yaml:"lat" validate:"latitude"`
	Lon  float64 `yaml:"lon" validate:"longitude"`
}

func (r stationRecord) toStation() models.Station {
	return models.Station{
		Name:     r.Name,
		Code:     r.Code,
		Location: models.Coordinate{Lat: r.Lat, Lon: r.Lon},
	}
}

type stationsFile struct {
	Stations []stationRecord `yaml:"stations"`
}

func validateStation(s models.Station) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if !s.Location.Valid() {
		return &models.InvalidCoordinateError{Field: s.Code, Coord: s.Location}
	}
	return nil
}

func parseYAML(data []byte) ([]models.Station, error) {
	var file stationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing stations YAML: %w", err)
	}

	stations := make([]models.Station, 0, len(file.Stations))
	for i, rec := range file.Stations {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		stations = append(stations, rec.toStation())
	}
	return stations, nil
}

func checkTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

type embeddedSource struct{}

// Embedded returns the built-in Chennai suburban station list
func Embedded() Source {
	return embeddedSource{}
}

func (embeddedSource) Name() string { return "embedded" }

func (embeddedSource) Stations(ctx context.Context) ([]models.Station, error) {
	return parseYAML(embeddedStations)
}

type yamlSource struct {
	path string
}

// YAMLFile returns a source reading a stations YAML file
func YAMLFile(path string) Source {
	return yamlSource{path: path}
}

func (s yamlSource) Name() string { return "yaml:" + s.path }

func (s yamlSource) Stations(ctx context.Context) ([]models.Station, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading stations file: %w", err)
	}
	return parseYAML(data)
}

// Static returns a source over an in-memory list
func Static(stations []models.Station) Source {
	return staticSource(stations)
}

type staticSource []models.Station

func (staticSource) Name() string { return "static" }

func (s staticSource) Stations(ctx context.Context) ([]models.Station, error) {
	result := make([]models.Station, len(s))
	copy(result, s)
	return result, nil
}
