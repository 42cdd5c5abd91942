// README: Handler tests for status mapping and request parsing.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifare/internal/http/handlers"
	"taxifare/internal/modules/pricing"
	"taxifare/internal/modules/quote"
	"taxifare/internal/types"
)

type stubQuoteService struct {
	quote      *quote.Quote
	err        error
	estimate   *quote.EstimateCommand
	prediction *quote.PredictCommand
}

func (s *stubQuoteService) Estimate(_ context.Context, cmd quote.EstimateCommand) (*quote.Quote, error) {
	s.estimate = &cmd
	return s.quote, s.err
}

func (s *stubQuoteService) Predict(_ context.Context, cmd quote.PredictCommand) (*quote.Quote, error) {
	s.prediction = &cmd
	return s.quote, s.err
}

func (s *stubQuoteService) Get(_ context.Context, _ types.ID) (*quote.Quote, error) {
	return s.quote, s.err
}

type stubGeocoder struct {
	point types.Point
	err   error
	got   string
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) (types.Point, error) {
	s.got = address
	return s.point, s.err
}

func buildTestRouter(q handlers.QuoteService, g *stubGeocoder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	fh := handlers.NewFareHandler(pricing.NewService(pricing.DefaultRates(), nil), time.UTC)
	r.POST("/api/fares", fh.Price)
	r.GET("/api/vehicles", fh.Vehicle)

	qh := handlers.NewQuoteHandler(q, time.UTC)
	r.POST("/api/quotes", qh.Create)
	r.GET("/api/quotes/:id", qh.Get)
	r.POST("/api/predictions", qh.Predict)

	gh := handlers.NewGeocodeHandler(g)
	r.GET("/api/geocode", gh.Geocode)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestFare_Price(t *testing.T) {
	r := buildTestRouter(&stubQuoteService{}, &stubGeocoder{})

	tests := []struct {
		name     string
		body     map[string]any
		wantFare float64
		wantCur  string
	}{
		{"weekday afternoon", map[string]any{"distance_km": 10, "passenger_count": 1, "pickup_datetime": "2026-02-10 14:00:00"}, 18.50, "EUR"},
		{"saturday night", map[string]any{"distance_km": 10, "passenger_count": 1, "pickup_datetime": "2026-02-14T23:00"}, 28.86, "EUR"},
		{"usd lower case", map[string]any{"distance_km": 10, "passenger_count": 1, "pickup_datetime": "2026-02-10 14:00:00", "currency": "usd"}, 20.11, "USD"},
		{"offset kept as local time", map[string]any{"distance_km": 10, "passenger_count": 1, "pickup_datetime": "2026-02-10T06:30:00+02:00"}, 18.50, "EUR"},
		{"bastille day", map[string]any{"distance_km": 10, "passenger_count": 1, "pickup_datetime": "2026-07-14 14:00:00", "country": "France"}, 27.75, "EUR"},
		{"zero distance minibus", map[string]any{"distance_km": 0, "passenger_count": 7, "pickup_datetime": "2026-02-10 14:00:00"}, 5.25, "EUR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/fares", tc.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			m := decode(t, w)
			assert.Equal(t, tc.wantFare, m["fare"])
			assert.Equal(t, tc.wantCur, m["currency"])
			assert.Contains(t, m, "breakdown")
		})
	}
}

func TestFare_Price_InvalidInput(t *testing.T) {
	r := buildTestRouter(&stubQuoteService{}, &stubGeocoder{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero passengers", map[string]any{"distance_km": 10, "passenger_count": 0, "pickup_datetime": "2026-02-10 14:00:00"}},
		{"negative distance", map[string]any{"distance_km": -1, "passenger_count": 1, "pickup_datetime": "2026-02-10 14:00:00"}},
		{"overflowing distance", map[string]any{"distance_km": 1e308, "passenger_count": 1, "pickup_datetime": "2026-02-10 14:00:00"}},
		{"missing distance", map[string]any{"passenger_count": 1, "pickup_datetime": "2026-02-10 14:00:00"}},
		{"missing time", map[string]any{"distance_km": 10, "passenger_count": 1}},
		{"garbled time", map[string]any{"distance_km": 10, "passenger_count": 1, "pickup_datetime": "tomorrow"}},
		{"unknown currency", map[string]any{"distance_km": 10, "passenger_count": 1, "pickup_datetime": "2026-02-10 14:00:00", "currency": "GBP"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/fares", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestFare_Vehicle(t *testing.T) {
	r := buildTestRouter(&stubQuoteService{}, &stubGeocoder{})

	w := doRequest(r, http.MethodGet, "/api/vehicles?passengers=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := decode(t, w)
	assert.Equal(t, "suv", m["vehicle"])
	assert.Equal(t, "SUV/Break", m["label"])
	assert.Equal(t, float64(6), m["capacity"])

	for _, q := range []string{"0", "abc", ""} {
		w := doRequest(r, http.MethodGet, "/api/vehicles?passengers="+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "passengers=%q", q)
	}
}

func TestGeocode(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		g := &stubGeocoder{point: types.Point{Lat: 48.8606, Lng: 2.3376}}
		r := buildTestRouter(&stubQuoteService{}, g)

		w := doRequest(r, http.MethodGet, "/api/geocode?street=Rue+de+Rivoli&locality=Paris&country=France", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Rue de Rivoli, Paris, France", g.got)
		assert.Equal(t, 48.8606, decode(t, w)["lat"])
	})

	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"missing query", "/api/geocode", nil, http.StatusBadRequest},
		{"not found", "/api/geocode?q=Nowhere", types.ErrNotFound, http.StatusNotFound},
		{"upstream down", "/api/geocode?q=Paris", types.ErrUpstreamUnavailable, http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := buildTestRouter(&stubQuoteService{}, &stubGeocoder{err: tc.err})
			w := doRequest(r, http.MethodGet, tc.path, nil)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestQuote_Create(t *testing.T) {
	breakdown := pricing.Breakdown{BaseEUR: 18.5, PassengerMultiplier: 1, TimeMultiplier: 1, Vehicle: pricing.VehicleCityCar}
	svc := &stubQuoteService{quote: &quote.Quote{
		ID:          "3f0c1f8e-5a4e-4a61-9d55-0d9f8f8e2b10",
		Source:      quote.SourceLocal,
		Pickup:      types.Point{Lat: 48.8606, Lng: 2.3376},
		Dropoff:     types.Point{Lat: 48.8443, Lng: 2.3744},
		DistanceKm:  10,
		DurationMin: 20.5,
		Geometry:    []types.Point{{Lat: 48.8606, Lng: 2.3376}, {Lat: 48.8443, Lng: 2.3744}},
		Fare:        types.Money{Amount: 18.5, Currency: "EUR"},
		Vehicle:     pricing.VehicleCityCar,
		Breakdown:   &breakdown,
		PickupTime:  time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC),
	}}
	r := buildTestRouter(svc, &stubGeocoder{})

	w := doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"pickup":          map[string]any{"lat": 48.8606, "lng": 2.3376},
		"dropoff":         map[string]any{"street": "Place Louis-Armand", "locality": "Paris", "country": "France"},
		"passenger_count": 2,
		"pickup_datetime": "2026-02-10 14:00:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, svc.estimate)
	require.NotNil(t, svc.estimate.Pickup.Point)
	assert.Equal(t, 48.8606, svc.estimate.Pickup.Point.Lat)
	assert.Nil(t, svc.estimate.Dropoff.Point)
	assert.Equal(t, "Place Louis-Armand", svc.estimate.Dropoff.Street)
	assert.Equal(t, 2, svc.estimate.PassengerCount)
	assert.Equal(t, pricing.CurrencyEUR, svc.estimate.Currency)

	m := decode(t, w)
	assert.Equal(t, 18.5, m["fare"])
	assert.Equal(t, "City Car", m["vehicle_label"])
	geometry := m["geometry"].(map[string]any)
	assert.Equal(t, "LineString", geometry["type"])
	first := geometry["coordinates"].([]any)[0].([]any)
	assert.Equal(t, []any{2.3376, 48.8606}, first)
}

func TestQuote_Create_Errors(t *testing.T) {
	valid := map[string]any{
		"pickup":          map[string]any{"lat": 48.8606, "lng": 2.3376},
		"dropoff":         map[string]any{"lat": 48.8443, "lng": 2.3744},
		"passenger_count": 1,
		"pickup_datetime": "2026-02-10 14:00:00",
	}

	tests := []struct {
		name string
		body map[string]any
		err  error
		want int
	}{
		{"half a coordinate", map[string]any{
			"pickup":          map[string]any{"lat": 48.8606},
			"dropoff":         map[string]any{"lat": 48.8443, "lng": 2.3744},
			"passenger_count": 1,
			"pickup_datetime": "2026-02-10 14:00:00",
		}, nil, http.StatusBadRequest},
		{"invalid input", valid, types.ErrInvalidInput, http.StatusBadRequest},
		{"address not found", valid, fmt.Errorf("geocode pickup: %w", types.ErrNotFound), http.StatusNotFound},
		{"router down", valid, types.ErrUpstreamUnavailable, http.StatusBadGateway},
		{"store failure", valid, errors.New("store quote: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := buildTestRouter(&stubQuoteService{err: tc.err}, &stubGeocoder{})
			w := doRequest(r, http.MethodPost, "/api/quotes", tc.body)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusInternalServerError {
				assert.Equal(t, "internal error", decode(t, w)["error"])
			}
		})
	}
}

func TestQuote_Get_NotFound(t *testing.T) {
	r := buildTestRouter(&stubQuoteService{err: types.ErrNotFound}, &stubGeocoder{})
	w := doRequest(r, http.MethodGet, "/api/quotes/3f0c1f8e-5a4e-4a61-9d55-0d9f8f8e2b10", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuote_Get_KeepsPickupOffset(t *testing.T) {
	svc := &stubQuoteService{quote: &quote.Quote{
		ID:         "3f0c1f8e-5a4e-4a61-9d55-0d9f8f8e2b10",
		Source:     quote.SourceLocal,
		PickupTime: time.Date(2026, 2, 14, 23, 0, 0, 0, time.FixedZone("", 3600)),
	}}
	r := buildTestRouter(svc, &stubGeocoder{})

	w := doRequest(r, http.MethodGet, "/api/quotes/3f0c1f8e-5a4e-4a61-9d55-0d9f8f8e2b10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2026-02-14T23:00:00+01:00", decode(t, w)["pickup_datetime"])
}

func TestQuote_Predict(t *testing.T) {
	svc := &stubQuoteService{quote: &quote.Quote{
		ID:     "3f0c1f8e-5a4e-4a61-9d55-0d9f8f8e2b10",
		Source: quote.SourceRemote,
		Fare:   types.Money{Amount: 23.4, Currency: "USD"},
	}}
	r := buildTestRouter(svc, &stubGeocoder{})

	w := doRequest(r, http.MethodPost, "/api/predictions", map[string]any{
		"pickup":          map[string]any{"lat": 40.7614327, "lng": -73.9798156},
		"dropoff":         map[string]any{"lat": 40.6513111, "lng": -73.8803331},
		"passenger_count": 2,
		"pickup_datetime": "2026-02-10 14:00:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.prediction)
	assert.Equal(t, -73.9798156, svc.prediction.Pickup.Lng)
	assert.Equal(t, "remote", decode(t, w)["source"])

	w = doRequest(r, http.MethodPost, "/api/predictions", map[string]any{
		"pickup":          map[string]any{"lat": 40.7614327},
		"passenger_count": 2,
		"pickup_datetime": "2026-02-10 14:00:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
