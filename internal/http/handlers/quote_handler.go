// README: Quote handlers for local estimates, remote predictions and lookups.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taxifare/internal/modules/pricing"
	"taxifare/internal/modules/quote"
	"taxifare/internal/types"
)

type QuoteService interface {
	Estimate(ctx context.Context, cmd quote.EstimateCommand) (*quote.Quote, error)
	Predict(ctx context.Context, cmd quote.PredictCommand) (*quote.Quote, error)
	Get(ctx context.Context, id types.ID) (*quote.Quote, error)
}

type QuoteHandler struct {
	quote QuoteService
	loc   *time.Location
}

func NewQuoteHandler(svc QuoteService, loc *time.Location) *QuoteHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &QuoteHandler{quote: svc, loc: loc}
}

type locationReq struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Street   string   `json:"street"`
	Locality string   `json:"locality"`
	Country  string   `json:"country"`
}

type estimateReq struct {
	Pickup         locationReq `json:"pickup"`
	Dropoff        locationReq `json:"dropoff"`
	PassengerCount int         `json:"passenger_count"`
	PickupDatetime string      `json:"pickup_datetime" binding:"required"`
	Country        string      `json:"country"`
	Currency       string      `json:"currency"`
}

type coordReq struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

type predictReq struct {
	Pickup         coordReq `json:"pickup"`
	Dropoff        coordReq `json:"dropoff"`
	PassengerCount int      `json:"passenger_count"`
	PickupDatetime string   `json:"pickup_datetime" binding:"required"`
}

type placeResp struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// lineString is a GeoJSON LineString; coordinates are [lng, lat].
type lineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type quoteResp struct {
	ID             types.ID           `json:"id"`
	Source         quote.Source       `json:"source"`
	Fare           float64            `json:"fare"`
	Currency       string             `json:"currency"`
	Vehicle        string             `json:"vehicle"`
	VehicleLabel   string             `json:"vehicle_label"`
	Pickup         placeResp          `json:"pickup"`
	Dropoff        placeResp          `json:"dropoff"`
	DistanceKm     float64            `json:"distance_km"`
	DurationMin    float64            `json:"duration_min,omitempty"`
	StraightLineKm float64            `json:"straight_line_km"`
	PassengerCount int                `json:"passenger_count"`
	PickupDatetime string             `json:"pickup_datetime"`
	Country        string             `json:"country,omitempty"`
	Breakdown      *pricing.Breakdown `json:"breakdown,omitempty"`
	Geometry       *lineString        `json:"geometry,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	pickupTime, err := parsePickupTime(req.PickupDatetime, h.loc)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	pickup, err := req.Pickup.toLocation("pickup")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	dropoff, err := req.Dropoff.toLocation("dropoff")
	if err != nil {
		writeServiceError(c, err)
		return
	}

	q, err := h.quote.Estimate(c.Request.Context(), quote.EstimateCommand{
		Pickup:         pickup,
		Dropoff:        dropoff,
		PassengerCount: req.PassengerCount,
		PickupTime:     pickupTime,
		Country:        req.Country,
		Currency:       currency,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toQuoteResp(q))
}

func (h *QuoteHandler) Predict(c *gin.Context) {
	var req predictReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	pickupTime, err := parsePickupTime(req.PickupDatetime, h.loc)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	q, err := h.quote.Predict(c.Request.Context(), quote.PredictCommand{
		Pickup:         types.Point{Lat: *req.Pickup.Lat, Lng: *req.Pickup.Lng},
		Dropoff:        types.Point{Lat: *req.Dropoff.Lat, Lng: *req.Dropoff.Lng},
		PassengerCount: req.PassengerCount,
		PickupTime:     pickupTime,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toQuoteResp(q))
}

func (h *QuoteHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing quote id")
		return
	}
	q, err := h.quote.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toQuoteResp(q))
}

func (l locationReq) toLocation(role string) (quote.Location, error) {
	loc := quote.Location{Street: l.Street, Locality: l.Locality, Country: l.Country}
	switch {
	case l.Lat != nil && l.Lng != nil:
		loc.Point = &types.Point{Lat: *l.Lat, Lng: *l.Lng}
	case l.Lat != nil || l.Lng != nil:
		return quote.Location{}, fmt.Errorf("%w: %s needs both lat and lng", types.ErrInvalidInput, role)
	}
	return loc, nil
}

func toQuoteResp(q *quote.Quote) quoteResp {
	resp := quoteResp{
		ID:             q.ID,
		Source:         q.Source,
		Fare:           q.Fare.Amount,
		Currency:       q.Fare.Currency,
		Vehicle:        string(q.Vehicle),
		VehicleLabel:   q.Vehicle.Label(),
		Pickup:         placeResp{Lat: q.Pickup.Lat, Lng: q.Pickup.Lng, Address: q.PickupAddress},
		Dropoff:        placeResp{Lat: q.Dropoff.Lat, Lng: q.Dropoff.Lng, Address: q.DropoffAddress},
		DistanceKm:     q.DistanceKm,
		DurationMin:    q.DurationMin,
		StraightLineKm: q.StraightLineKm,
		PassengerCount: q.PassengerCount,
		PickupDatetime: q.PickupTime.Format(time.RFC3339),
		Country:        q.Country,
		Breakdown:      q.Breakdown,
		CreatedAt:      q.CreatedAt,
	}
	if len(q.Geometry) > 0 {
		coords := make([][2]float64, len(q.Geometry))
		for i, p := range q.Geometry {
			coords[i] = [2]float64{p.Lng, p.Lat}
		}
		resp.Geometry = &lineString{Type: "LineString", Coordinates: coords}
	}
	return resp
}
