package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"taxifare/internal/types"
)

// Route is the road path between two points.
type Route struct {
	DistanceKm  float64
	DurationMin float64
	// Geometry is the ordered polyline from pickup to dropoff.
	Geometry []types.Point
}

// Router resolves the driving route between two points.
type Router interface {
	Route(ctx context.Context, from, to types.Point) (Route, error)
}

// GoogleRouter handles interactions with the Google Directions API.
type GoogleRouter struct {
	client *maps.Client
}

// NewGoogleRouter creates a GoogleRouter with the given API Key.
func NewGoogleRouter(apiKey string, opts ...maps.ClientOption) (*GoogleRouter, error) {
	client, err := newGoogleClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleRouter{client: client}, nil
}

// Route returns distance, duration and geometry for a driving trip.
func (s *GoogleRouter) Route(ctx context.Context, from, to types.Point) (Route, error) {
	r := &maps.DirectionsRequest{
		Origin:      latLngString(from),
		Destination: latLngString(to),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return Route{}, fmt.Errorf("directions api: %w: %w", googleErrKind(err), err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("directions api: %w: no route found", types.ErrNotFound)
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}

	out := Route{
		DistanceKm:  roundTo(float64(meters)/1000, 2),
		DurationMin: roundTo(seconds/60, 2),
	}

	if routes[0].OverviewPolyline.Points != "" {
		path, err := routes[0].OverviewPolyline.Decode()
		if err != nil {
			return Route{}, fmt.Errorf("directions api: %w: bad polyline: %w", types.ErrUpstreamUnavailable, err)
		}
		out.Geometry = make([]types.Point, 0, len(path))
		for _, p := range path {
			out.Geometry = append(out.Geometry, types.Point{Lat: p.Lat, Lng: p.Lng})
		}
	}
	return out, nil
}

func newGoogleClient(apiKey string, opts ...maps.ClientOption) (*maps.Client, error) {
	all := append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

// googleErrKind maps a maps client error onto the shared taxonomy. The client reports
// non-OK API statuses as errors of the form "maps: STATUS - message".
func googleErrKind(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND") {
		return types.ErrNotFound
	}
	return types.ErrUpstreamUnavailable
}

func latLngString(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
