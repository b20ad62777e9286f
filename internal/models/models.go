package models

import (
	"math"
)

// Coordinate represents a geographic coordinate in WGS-84 degrees
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Lon float64 `json:"lon" yaml:"lon" validate:"longitude"`
}

// Valid reports whether the coordinate lies within latitude/longitude bounds
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// LonLat returns the coordinate in GeoJSON order
func (c Coordinate) LonLat() [2]float64 {
	return [2]float64{c.Lon, c.Lat}
}

// Station represents a transit station from the directory
type Station struct {
	Name     string     `json:"name" validate:"required"`
	Code     string     `json:"code" validate:"required"`
	Location Coordinate `json:"location"`
}

// Mode identifies how a leg is travelled
type Mode string

const (
	ModeDrive   Mode = "drive"
	ModeTransit Mode = "transit"
)

// Instruction is a single turn-by-turn step.
// Sign and StreetName are only set when the provider supplies them.
type Instruction struct {
	Text       string  `json:"text"`
	Distance   float64 `json:"distance"`
	Time       float64 `json:"time"`
	Sign       int     `json:"sign,omitempty"`
	StreetName string  `json:"street_name,omitempty"`
}

// RouteLeg is one contiguous single-mode segment of a journey
type RouteLeg struct {
	Mode            Mode          `json:"mode"`
	DistanceMeters  float64       `json:"distance"`
	DurationSeconds float64       `json:"time"`
	Geometry        []Coordinate  `json:"-"`
	Instructions    []Instruction `json:"instructions"`
}

// Itinerary is the full drive → transit → drive journey
type Itinerary struct {
	StartLabel      string
	EndLabel        string
	StartStation    Station
	EndStation      Station
	Legs            [3]RouteLeg
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []Coordinate
	Instructions    []Instruction
}

// Place is a geocoding result
type Place struct {
	Coordinate
	DisplayName string `json:"display_name"`
}

// Points is the GeoJSON-style coordinate wrapper used in responses
type Points struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

// Path wraps the geometry of one leg
type Path struct {
	Points Points `json:"points"`
}

// ItineraryResponse is the API response format for an itinerary
type ItineraryResponse struct {
	StartAddress string             `json:"start_address"`
	EndAddress   string             `json:"end_address"`
	Distance     float64            `json:"distance"`
	Time         float64            `json:"time"`
	Instructions []Instruction      `json:"instructions"`
	Paths        []Path             `json:"paths"`
	Legs         []RouteLegResponse `json:"legs"`
	Stations     [2]Station         `json:"stations"`
}

// RouteLegResponse is the API response format for a single leg
type RouteLegResponse struct {
	Mode         Mode          `json:"mode"`
	Distance     float64       `json:"distance"`
	Time         float64       `json:"time"`
	Instructions []Instruction `json:"instructions"`
	Points       Points        `json:"points"`
}

// ToPoints converts a coordinate sequence to GeoJSON [lon, lat] pairs
func ToPoints(geometry []Coordinate) Points {
	coords := make([][2]float64, len(geometry))
	for i, c := range geometry {
		coords[i] = c.LonLat()
	}
	return Points{Coordinates: coords}
}

// ConvertToResponse converts an Itinerary to ItineraryResponse format
func (it *Itinerary) ConvertToResponse() ItineraryResponse {
	paths := make([]Path, len(it.Legs))
	legs := make([]RouteLegResponse, len(it.Legs))
	for i, leg := range it.Legs {
		points := ToPoints(leg.Geometry)
		paths[i] = Path{Points: points}

		instructions := leg.Instructions
		if instructions == nil {
			instructions = []Instruction{}
		}
		legs[i] = RouteLegResponse{
			Mode:         leg.Mode,
			Distance:     leg.DistanceMeters,
			Time:         leg.DurationSeconds,
			Instructions: instructions,
			Points:       points,
		}
	}

	instructions := it.Instructions
	if instructions == nil {
		instructions = []Instruction{}
	}

	return ItineraryResponse{
		StartAddress: it.StartLabel,
		EndAddress:   it.EndLabel,
		Distance:     it.DistanceMeters,
		Time:         it.DurationSeconds,
		Instructions: instructions,
		Paths:        paths,
		Legs:         legs,
		Stations:     [2]Station{it.StartStation, it.EndStation},
	}
}
