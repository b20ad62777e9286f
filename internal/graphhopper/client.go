// Package graphhopper adapts the GraphHopper Directions and Geocoding APIs
// to driving legs and places
package graphhopper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jusunglee/polaris/internal/models"
)

const (
	providerName = "graphhopper"

	// DefaultBaseURL is the public GraphHopper API endpoint
	DefaultBaseURL = "https://graphhopper.com/api/1"
	defaultVehicle = "car"
	defaultLocale  = "en"

	// upper bound on error bodies we read for a message
	maxErrorBody = 64 << 10
)

// GraphHopper messages that mean the points cannot be connected, as
// opposed to a broken request or service
var unroutableMessages = []string{
	"connection between locations not found",
	"cannot find point",
	"point 0 is out of bounds",
	"point 1 is out of bounds",
}

// Config holds configuration for the GraphHopper client
type Config struct {
	BaseURL string
	APIKey  string
	Vehicle string
	Locale  string
	Timeout time.Duration
}

// Client calls the GraphHopper route and geocode endpoints.
// Each call is a single attempt; failures are never retried.
type Client struct {
	baseURL    string
	apiKey     string
	vehicle    string
	locale     string
	httpClient *http.Client
}

// NewClient creates a new GraphHopper client.
// If httpClient is nil one is created with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		vehicle:    cfg.Vehicle,
		locale:     cfg.Locale,
		httpClient: httpClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.vehicle == "" {
		c.vehicle = defaultVehicle
	}
	if c.locale == "" {
		c.locale = defaultLocale
	}
	return c
}

// Drive fetches the best driving path between two points
func (c *Client) Drive(ctx context.Context, from, to models.Coordinate) (models.RouteLeg, error) {
	params := url.Values{}
	params.Add("point", formatPoint(from))
	params.Add("point", formatPoint(to))
	params.Set("vehicle", c.vehicle)
	params.Set("locale", c.locale)
	params.Set("instructions", "true")
	params.Set("calc_points", "true")
	params.Set("points_encoded", "false")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var result routeResponse
	status, err := c.get(ctx, "/route", params, &result)
	if err != nil {
		if status == http.StatusBadRequest && isUnroutable(err) {
			slog.Error("No route found", "from", from, "to", to, "reason", err)
			return models.RouteLeg{}, &models.NoRouteFoundError{From: from, To: to}
		}
		slog.Error("Error fetching car route", "from", from, "to", to, "error", err)
		return models.RouteLeg{}, &models.UpstreamError{Provider: providerName, Op: "route", StatusCode: status, Err: err}
	}

	if result.Paths == nil {
		slog.Error("Route response without paths", "from", from, "to", to)
		return models.RouteLeg{}, &models.UpstreamError{Provider: providerName, Op: "route", StatusCode: status, Err: errors.New("response has no paths field")}
	}
	paths := *result.Paths
	if len(paths) == 0 {
		slog.Error("No route found", "from", from, "to", to)
		return models.RouteLeg{}, &models.NoRouteFoundError{From: from, To: to}
	}

	leg, err := paths[0].toLeg()
	if err != nil {
		return models.RouteLeg{}, &models.UpstreamError{Provider: providerName, Op: "route", StatusCode: status, Err: err}
	}

	slog.Debug("Car route fetched",
		"from", from,
		"to", to,
		"distance_m", leg.DistanceMeters,
		"time_s", leg.DurationSeconds,
	)
	return leg, nil
}

// Geocode resolves a place name to its first matching coordinate
func (c *Client) Geocode(ctx context.Context, query string) (models.Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("locale", c.locale)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var result geocodeResponse
	status, err := c.get(ctx, "/geocode", params, &result)
	if err != nil {
		slog.Error("Error geocoding location", "query", query, "error", err)
		return models.Place{}, &models.UpstreamError{Provider: providerName, Op: "geocode", StatusCode: status, Err: err}
	}

	if len(result.Hits) == 0 {
		slog.Error("No results found for location", "query", query)
		return models.Place{}, &models.PlaceNotFoundError{Query: query}
	}

	hit := result.Hits[0]
	place := models.Place{
		Coordinate:  models.Coordinate{Lat: hit.Point.Lat, Lon: hit.Point.Lng},
		DisplayName: hit.Name,
	}
	if place.DisplayName == "" {
		place.DisplayName = query
	}

	slog.Debug("Geocoded location", "query", query, "lat", place.Lat, "lon", place.Lon)
	return place, nil
}

// get performs a GET and decodes a 2xx JSON body into out.
// The returned status is zero when no response was received.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, readErrorMessage(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("parsing response: %w", err)
	}
	return resp.StatusCode, nil
}

func readErrorMessage(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}

func isUnroutable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range unroutableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func formatPoint(c models.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// API response structures
type routeResponse struct {
	// nil when the field is absent or null
	Paths *[]routePath `json:"paths"`
}

type routePath struct {
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"` // milliseconds
	Points   struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"points"`
	Instructions []struct {
		Text       string  `json:"text"`
		Distance   float64 `json:"distance"`
		Time       float64 `json:"time"` // milliseconds
		Sign       int     `json:"sign"`
		StreetName string  `json:"street_name"`
	} `json:"instructions"`
}

type geocodeResponse struct {
	Hits []struct {
		Point struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"point"`
		Name string `json:"name"`
	} `json:"hits"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// toLeg converts a GraphHopper path to a driving leg, normalizing
// milliseconds to seconds and [lon, lat] pairs to coordinates
func (p routePath) toLeg() (models.RouteLeg, error) {
	if p.Distance < 0 || p.Time < 0 {
		return models.RouteLeg{}, fmt.Errorf("negative distance or time in path")
	}

	geometry := make([]models.Coordinate, 0, len(p.Points.Coordinates))
	for i, pair := range p.Points.Coordinates {
		if len(pair) < 2 {
			return models.RouteLeg{}, fmt.Errorf("point %d has %d values", i, len(pair))
		}
		geometry = append(geometry, models.Coordinate{Lat: pair[1], Lon: pair[0]})
	}
	switch len(geometry) {
	case 0:
		return models.RouteLeg{}, fmt.Errorf("path has no points")
	case 1:
		// zero-length route snapped to a single point
		geometry = append(geometry, geometry[0])
	}

	instructions := make([]models.Instruction, len(p.Instructions))
	for i, in := range p.Instructions {
		instructions[i] = models.Instruction{
			Text:       in.Text,
			Distance:   in.Distance,
			Time:       in.Time / 1000,
			Sign:       in.Sign,
			StreetName: in.StreetName,
		}
	}

	return models.RouteLeg{
		Mode:            models.ModeDrive,
		DistanceMeters:  p.Distance,
		DurationSeconds: p.Time / 1000,
		Geometry:        geometry,
		Instructions:    instructions,
	}, nil
}
