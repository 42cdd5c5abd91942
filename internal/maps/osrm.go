package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"taxifare/internal/types"
)

const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRMRouter fetches driving routes from an OSRM server.
type OSRMRouter struct {
	baseURL string
	client  *http.Client
}

func NewOSRMRouter(baseURL string, client *http.Client) *OSRMRouter {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OSRMRouter{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

func (r *OSRMRouter) Route(ctx context.Context, from, to types.Point) (Route, error) {
	u := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=full&geometries=geojson",
		r.baseURL,
		formatCoord(from.Lng), formatCoord(from.Lat),
		formatCoord(to.Lng), formatCoord(to.Lat),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Route{}, fmt.Errorf("osrm: build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("osrm: %w: %w", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	// OSRM answers 400 with a code when no route connects the points.
	if body.Code == "NoRoute" || body.Code == "NoSegment" {
		return Route{}, fmt.Errorf("osrm: %w: %s", types.ErrNotFound, body.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("osrm: %w: status %d", types.ErrUpstreamUnavailable, resp.StatusCode)
	}
	if decodeErr != nil {
		return Route{}, fmt.Errorf("osrm: %w: decode response: %w", types.ErrUpstreamUnavailable, decodeErr)
	}
	if len(body.Routes) == 0 {
		return Route{}, fmt.Errorf("osrm: %w: no route found", types.ErrNotFound)
	}

	best := body.Routes[0]
	out := Route{
		DistanceKm:  roundTo(best.Distance/1000, 2),
		DurationMin: roundTo(best.Duration/60, 2),
		Geometry:    make([]types.Point, 0, len(best.Geometry.Coordinates)),
	}
	for _, c := range best.Geometry.Coordinates {
		out.Geometry = append(out.Geometry, types.Point{Lat: c[1], Lng: c[0]})
	}
	return out, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
