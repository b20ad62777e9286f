package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jusunglee/polaris/internal/config"
	"github.com/jusunglee/polaris/internal/models"
	"github.com/jusunglee/polaris/pkg/polaris"
)

func main() {
	var (
		configFile = flag.String("config", "", "YAML config file")
		apiKey     = flag.String("api-key", "", "GraphHopper API key")
		from       = flag.String("from", "", "Start place name (geocoded)")
		to         = flag.String("to", "", "End place name (geocoded)")
		startLat   = flag.Float64("start-lat", 12.8231, "Start latitude")
		startLon   = flag.Float64("start-lon", 80.0442, "Start longitude")
		endLat     = flag.Float64("end-lat", 13.0500, "End latitude")
		endLon     = flag.Float64("end-lon", 80.2824, "End longitude")
		timeout    = flag.Duration("timeout", 30*time.Second, "Overall request timeout")
	)
	flag.Parse()

	if err := config.LoadEnvFiles(".env"); err != nil {
		slog.Error("Failed to load .env", "error", err)
		os.Exit(1)
	}

	byName, err := routeByName(*from, *to)
	if err != nil {
		slog.Error("Invalid arguments", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Read(*configFile)
	if err == nil {
		cfg.Apply(config.Overrides{APIKey: *apiKey})
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("Invalid configuration (set -api-key or GRAPHHOPPER_API_KEY)", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := polaris.NewLocal(ctx, cfg.Client())
	if err != nil {
		slog.Error("Failed to create polaris client", "error", err)
		os.Exit(1)
	}

	var it models.Itinerary
	if byName {
		it, err = client.ComposeRouteByName(ctx, *from, *to)
	} else {
		it, err = client.ComposeRoute(ctx,
			models.Coordinate{Lat: *startLat, Lon: *startLon},
			models.Coordinate{Lat: *endLat, Lon: *endLon})
	}
	if err != nil {
		slog.Error("Failed to compose route", "stage", models.StageOf(err), "error", err)
		os.Exit(1)
	}

	printItinerary(it)
}

// routeByName reports whether place names were given; names must come
// as a pair
func routeByName(from, to string) (bool, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if (from == "") != (to == "") {
		return false, errors.New("both -from and -to are required when routing by name")
	}
	return from != "", nil
}

func printItinerary(it models.Itinerary) {
	fmt.Printf("\n%s\n%s\n", it.StartLabel, it.EndLabel)
	fmt.Printf("Board at %s (%s), alight at %s (%s)\n",
		it.StartStation.Name, it.StartStation.Code, it.EndStation.Name, it.EndStation.Code)

	for i, leg := range it.Legs {
		fmt.Printf("\nLeg %d [%s] %.1f km, %s\n", i+1, leg.Mode,
			leg.DistanceMeters/1000, formatDuration(leg.DurationSeconds))
		for _, in := range leg.Instructions[:min(5, len(leg.Instructions))] {
			fmt.Printf("  - %s\n", in.Text)
		}
		if n := len(leg.Instructions); n > 5 {
			fmt.Printf("  ... %d more steps\n", n-5)
		}
	}

	fmt.Printf("\nTotal: %.1f km, %s\n", it.DistanceMeters/1000, formatDuration(it.DurationSeconds))
}

func formatDuration(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
