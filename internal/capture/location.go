// Package capture holds the field-capture helpers: geolocation fixes,
// free-hand signatures, and check images. Each helper produces a raw
// artifact the caller attaches to an offline record payload.
package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrLocationDenied reports that the platform refused or cannot
// provide a position fix.
var ErrLocationDenied = errors.New("location access denied or unavailable")

// Position is a single GPS fix.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Timestamp time.Time `json:"timestamp"`
}

// PositionProvider is the platform capability behind LocationManager.
// Implementations wrap whatever positioning source the device has;
// tests substitute fixed fixes.
type PositionProvider interface {
	// CurrentPosition blocks for a single fix.
	CurrentPosition(ctx context.Context) (Position, error)

	// Watch streams fixes until ctx is cancelled. The provider owns
	// the channel and closes it when the watch ends.
	Watch(ctx context.Context) (<-chan Position, error)
}

// LocationManager wraps a PositionProvider with error context and the
// distance utility.
type LocationManager struct {
	provider PositionProvider
}

func NewLocationManager(provider PositionProvider) *LocationManager {
	return &LocationManager{provider: provider}
}

// CurrentPosition returns a single fix from the underlying provider.
func (m *LocationManager) CurrentPosition(ctx context.Context) (Position, error) {
	pos, err := m.provider.CurrentPosition(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("current position: %w", err)
	}
	return pos, nil
}

// Watch streams position fixes until ctx is cancelled.
func (m *LocationManager) Watch(ctx context.Context) (<-chan Position, error) {
	ch, err := m.provider.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("watch position: %w", err)
	}
	return ch, nil
}

const earthRadiusKm = 6371.0

// CalculateDistance returns the haversine great-circle distance in
// kilometers between two coordinate pairs.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
