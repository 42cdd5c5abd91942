package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"taxifare/internal/types"
)

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

// FormatAddress joins street, city/ZIP and country the way the search endpoints expect.
// Empty parts are skipped.
func FormatAddress(street, locality, country string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{street, locality, country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// GoogleGeocoder handles interactions with the Google Geocoding API.
type GoogleGeocoder struct {
	client *maps.Client
}

// NewGoogleGeocoder creates a GoogleGeocoder with the given API Key.
func NewGoogleGeocoder(apiKey string, opts ...maps.ClientOption) (*GoogleGeocoder, error) {
	client, err := newGoogleClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleGeocoder{client: client}, nil
}

// Geocode returns the location of the best match for address.
func (s *GoogleGeocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return types.Point{}, fmt.Errorf("%w: empty address", types.ErrInvalidInput)
	}

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return types.Point{}, fmt.Errorf("geocoding api: %w: %w", googleErrKind(err), err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("geocoding api: %w: %q", types.ErrNotFound, address)
	}

	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
