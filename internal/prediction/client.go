// Package prediction calls the remote fare-prediction endpoint.
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taxifare/internal/types"
)

const DefaultEndpoint = "https://taxifare.lewagon.ai/predict"

// DateTimeLayout is the pickup_datetime format the endpoint expects.
const DateTimeLayout = "2006-01-02 15:04:05"

type Request struct {
	PickupTime     time.Time
	Pickup         types.Point
	Dropoff        types.Point
	PassengerCount int
}

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

type predictResponse struct {
	Fare *float64 `json:"fare"`
}

// Predict returns the remote model's fare, rounded to cents.
func (c *Client) Predict(ctx context.Context, req Request) (float64, error) {
	if req.PassengerCount < 1 {
		return 0, fmt.Errorf("%w: passenger_count must be at least 1", types.ErrInvalidInput)
	}
	if req.PickupTime.IsZero() {
		return 0, fmt.Errorf("%w: pickup_datetime is required", types.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("pickup_datetime", req.PickupTime.Format(DateTimeLayout))
	q.Set("pickup_longitude", formatFloat(req.Pickup.Lng))
	q.Set("pickup_latitude", formatFloat(req.Pickup.Lat))
	q.Set("dropoff_longitude", formatFloat(req.Dropoff.Lng))
	q.Set("dropoff_latitude", formatFloat(req.Dropoff.Lat))
	q.Set("passenger_count", strconv.Itoa(req.PassengerCount))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("prediction: build request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("prediction: %w: %w", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("prediction: %w: status %d", types.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("prediction: %w: decode response: %w", types.ErrUpstreamUnavailable, err)
	}
	if pr.Fare == nil || math.IsNaN(*pr.Fare) || math.IsInf(*pr.Fare, 0) {
		return 0, fmt.Errorf("prediction: %w: response has no fare", types.ErrNotFound)
	}
	return math.Round(*pr.Fare*100) / 100, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
