package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/jusunglee/polaris/internal/models"
	"github.com/jusunglee/polaris/pkg/polaris"
)

const (
	defaultNearbyLimit = 5
	maxNearbyLimit     = 20
)

// Handler handles HTTP requests
type Handler struct {
	client    polaris.Client
	startTime time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(client polaris.Client) *Handler {
	return &Handler{client: client, startTime: time.Now()}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/route", h.handleRouteByName).Methods("GET")
	r.HandleFunc("/route/coords", h.handleRouteByCoords).Methods("GET")
	r.HandleFunc("/geocode", h.handleGeocode).Methods("GET")
	r.HandleFunc("/stations", h.handleStations).Methods("GET")
	r.HandleFunc("/stations/nearby", h.handleNearbyStations).Methods("GET")

	// Legacy path used by the map frontend
	r.HandleFunc("/api/map/route/", h.handleRouteByName).Methods("GET")
}

// Response wraps API responses
type Response struct {
	Data    interface{} `json:"data"`
	Updated string      `json:"updated,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"title":  "polaris",
		"readme": "Multi-modal drive + train routing. Try /route?start=<place>&end=<place>",
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	stations := len(h.client.Stations())
	status := "OK"
	code := http.StatusOK
	if stations == 0 {
		status = "DEGRADED"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":        status,
		"stations":      stations,
		"static_update": h.client.GetLastStaticUpdate().Format(time.RFC3339),
		"uptime":        time.Since(h.startTime).String(),
	})
}

func (h *Handler) handleRouteByName(w http.ResponseWriter, r *http.Request) {
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))

	if start == "" || end == "" {
		h.writeError(w, "Missing start/end parameter", http.StatusBadRequest)
		return
	}

	it, err := h.client.ComposeRouteByName(r.Context(), start, end)
	if err != nil {
		h.writeComposeError(w, err)
		return
	}

	h.writeJSON(w, it.ConvertToResponse())
}

func (h *Handler) handleRouteByCoords(w http.ResponseWriter, r *http.Request) {
	start, err := parseCoordinate(r.URL.Query().Get("start"))
	if err != nil {
		h.writeError(w, "Invalid start parameter: "+err.Error(), http.StatusBadRequest)
		return
	}

	end, err := parseCoordinate(r.URL.Query().Get("end"))
	if err != nil {
		h.writeError(w, "Invalid end parameter: "+err.Error(), http.StatusBadRequest)
		return
	}

	it, err := h.client.ComposeRoute(r.Context(), start, end)
	if err != nil {
		h.writeComposeError(w, err)
		return
	}

	h.writeJSON(w, it.ConvertToResponse())
}

func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, "Missing q parameter", http.StatusBadRequest)
		return
	}

	place, err := h.client.Geocode(r.Context(), query)
	if err != nil {
		h.writeComposeError(w, err)
		return
	}

	h.writeJSON(w, Response{Data: place})
}

func (h *Handler) handleStations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, Response{
		Data:    h.client.Stations(),
		Updated: h.client.GetLastStaticUpdate().Format(time.RFC3339),
	})
}

func (h *Handler) handleNearbyStations(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")

	if latStr == "" || lonStr == "" {
		h.writeError(w, "Missing lat/lon parameter", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lat parameter", http.StatusBadRequest)
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lon parameter", http.StatusBadRequest)
		return
	}

	coord := models.Coordinate{Lat: lat, Lon: lon}
	if !coord.Valid() {
		h.writeError(w, "lat/lon out of range", http.StatusBadRequest)
		return
	}

	limit := defaultNearbyLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = min(n, maxNearbyLimit)
	}

	h.writeJSON(w, Response{Data: h.client.NearbyStations(coord, limit)})
}

// parseCoordinate parses "lat,lon"
func parseCoordinate(s string) (models.Coordinate, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return models.Coordinate{}, fmt.Errorf("expected lat,lon")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("bad latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("bad longitude %q", lonStr)
	}

	return models.Coordinate{Lat: lat, Lon: lon}, nil
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPlaceNotFound), errors.Is(err, models.ErrNoRouteFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNoStationsAvailable), errors.Is(err, models.ErrEmptyCandidateSet):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeComposeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), Stage: models.StageOf(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
