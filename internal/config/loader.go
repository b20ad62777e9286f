// Package config loads server configuration from YAML, .env files and
// environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jusunglee/polaris/internal/graphhopper"
	"github.com/jusunglee/polaris/pkg/polaris"
)

// Environment variables that override file values
const (
	EnvPort            = "PORT"
	EnvAPIKey          = "GRAPHHOPPER_API_KEY"
	EnvBaseURL         = "GRAPHHOPPER_BASE_URL"
	EnvStationsSource  = "STATIONS_SOURCE"
	EnvStationsPath    = "STATIONS_PATH"
	EnvStationsDSN     = "STATIONS_DSN"
	defaultServerPort  = 8080
	defaultStationsTab = "stations"
)

var validate = validator.New()

// Default returns the configuration used when no file is given
func Default() AppConfig {
	client := polaris.DefaultConfig()
	return AppConfig{
		Server: ServerConfig{Port: defaultServerPort},
		GraphHopper: GraphHopperConfig{
			BaseURL:         graphhopper.DefaultBaseURL,
			Timeout:         client.Timeout,
			RouteCacheSize:  client.RouteCacheSize,
			RouteCacheTTL:   client.RouteCacheTTL,
			GeocodeCacheTTL: client.GeocodeCacheTTL,
		},
		Stations: StationsConfig{
			Source: client.StationsSource,
			Table:  defaultStationsTab,
		},
		Transit: TransitConfig{AverageSpeedKmh: client.TransitSpeedKmh},
		Route:   RouteConfig{SkipCoincident: client.SkipCoincident},
	}
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration like Read and validates it
func Load(path string) (AppConfig, error) {
	cfg, err := Read(path)
	if err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Read reads the YAML file at path over the defaults and applies
// environment overrides without validating, so callers can layer flags
// on top before calling Validate. An empty path skips the file.
func Read(path string) (AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Overrides are command-line values layered over file and environment.
// Zero values leave the configuration unchanged.
type Overrides struct {
	Port           int
	APIKey         string
	StationsSource string
	StationsPath   string
}

// Apply layers o over c
func (c *AppConfig) Apply(o Overrides) {
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.APIKey != "" {
		c.GraphHopper.APIKey = o.APIKey
	}
	if o.StationsSource != "" {
		c.Stations.Source = o.StationsSource
	}
	if o.StationsPath != "" {
		c.Stations.Path = o.StationsPath
	}
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q", EnvPort, v)
		}
		cfg.Server.Port = port
	}

	overrides := []struct {
		env string
		dst *string
	}{
		{EnvAPIKey, &cfg.GraphHopper.APIKey},
		{EnvBaseURL, &cfg.GraphHopper.BaseURL},
		{EnvStationsSource, &cfg.Stations.Source},
		{EnvStationsPath, &cfg.Stations.Path},
		{EnvStationsDSN, &cfg.Stations.DSN},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	return nil
}

// Validate checks field constraints and cross-field requirements
func (c AppConfig) Validate() error {
	for _, section := range []any{c.Server, c.GraphHopper, c.Stations, c.Transit} {
		if err := validate.Struct(section); err != nil {
			return err
		}
	}

	switch c.Stations.Source {
	case polaris.SourceYAML, polaris.SourceSQLite:
		if c.Stations.Path == "" {
			return fmt.Errorf("stations.path is required for source %q", c.Stations.Source)
		}
	}

	// The hosted API rejects keyless requests; self-hosted instances do not
	if c.GraphHopper.APIKey == "" && (c.GraphHopper.BaseURL == "" || c.GraphHopper.BaseURL == graphhopper.DefaultBaseURL) {
		return fmt.Errorf("graphhopper.api_key (or %s) is required for %s", EnvAPIKey, graphhopper.DefaultBaseURL)
	}
	return nil
}

// Client converts the configuration to polaris client options
func (c AppConfig) Client() polaris.Config {
	return polaris.Config{
		APIKey:          c.GraphHopper.APIKey,
		BaseURL:         c.GraphHopper.BaseURL,
		Timeout:         c.GraphHopper.Timeout,
		RouteCacheSize:  c.GraphHopper.RouteCacheSize,
		RouteCacheTTL:   c.GraphHopper.RouteCacheTTL,
		GeocodeCacheTTL: c.GraphHopper.GeocodeCacheTTL,
		StationsSource:  c.Stations.Source,
		StationsPath:    c.Stations.Path,
		StationsDSN:     c.Stations.DSN,
		StationsTable:   c.Stations.Table,
		TransitSpeedKmh: c.Transit.AverageSpeedKmh,
		SkipCoincident:  c.Route.SkipCoincident,
	}
}
