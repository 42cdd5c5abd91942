package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taxifare/internal/types"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "TaxiFareApp"
)

// NominatimGeocoder resolves addresses with the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatimGeocoder creates a geocoder. Nominatim rejects requests without a User-Agent,
// so an empty userAgent falls back to DefaultUserAgent.
func NewNominatimGeocoder(baseURL, userAgent string, client *http.Client) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return types.Point{}, fmt.Errorf("%w: empty address", types.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return types.Point{}, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return types.Point{}, fmt.Errorf("nominatim: %w: %w", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Point{}, fmt.Errorf("nominatim: %w: status %d", types.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return types.Point{}, fmt.Errorf("nominatim: %w: decode response: %w", types.ErrUpstreamUnavailable, err)
	}
	if len(places) == 0 {
		return types.Point{}, fmt.Errorf("nominatim: %w: %q", types.ErrNotFound, address)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("nominatim: %w: bad latitude %q", types.ErrUpstreamUnavailable, places[0].Lat)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("nominatim: %w: bad longitude %q", types.ErrUpstreamUnavailable, places[0].Lon)
	}
	return types.Point{Lat: lat, Lng: lng}, nil
}
