package model

import (
	"encoding/json"
	"time"
)

// CoordinateEpsilon is the tolerance, in degrees, under which two coordinates
// are the same location.
const CoordinateEpsilon = 1e-6

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"latitude" validate:"latitude"`
	Lng float64 `json:"longitude" validate:"longitude"`
}

// Location is a geographic point guides can be anchored to.
type Location struct {
	ID         int64           `json:"id"`
	Coordinate Coordinate      `json:"coordinate"`
	Name       *string         `json:"name,omitempty"`
	Address    *string         `json:"address,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DisplayName is the name shown on guides anchored here.
func (l Location) DisplayName() *string {
	if l.Name != nil && *l.Name != "" {
		return l.Name
	}
	if l.Address != nil && *l.Address != "" {
		return l.Address
	}
	return nil
}

// Address is what a reverse geocoder knows about a coordinate.
type Address struct {
	Name             string          `json:"name,omitempty"`
	FormattedAddress string          `json:"formatted_address,omitempty"`
	CountryCode      string          `json:"country_code,omitempty"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}

type ResolveLocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}
