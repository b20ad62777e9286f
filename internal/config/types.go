package config

import "time"

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// GraphHopperConfig contains routing and geocoding provider configuration
type GraphHopperConfig struct {
	BaseURL         string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey          string        `yaml:"api_key"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0s"`
	RouteCacheSize  int           `yaml:"route_cache_size" validate:"gte=0"`
	RouteCacheTTL   time.Duration `yaml:"route_cache_ttl" validate:"gte=0s"`
	GeocodeCacheTTL time.Duration `yaml:"geocode_cache_ttl" validate:"gte=0s"`
}

// StationsConfig selects where the station directory is loaded from
type StationsConfig struct {
	Source string `yaml:"source" validate:"oneof=embedded yaml sqlite postgres"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn" validate:"required_if=Source postgres"`
	Table  string `yaml:"table"`
}

// TransitConfig contains the synthetic train leg settings
type TransitConfig struct {
	AverageSpeedKmh float64 `yaml:"average_speed_kmh" validate:"gt=0"`
}

// RouteConfig contains composition settings
type RouteConfig struct {
	// SkipCoincident avoids a provider call when an endpoint is its own
	// nearest station
	SkipCoincident bool `yaml:"skip_coincident"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	GraphHopper GraphHopperConfig `yaml:"graphhopper"`
	Stations    StationsConfig    `yaml:"stations"`
	Transit     TransitConfig     `yaml:"transit"`
	Route       RouteConfig       `yaml:"route"`
}
