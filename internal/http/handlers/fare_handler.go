// README: Fare handlers for bare pricing and vehicle classification.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taxifare/internal/modules/pricing"
	"taxifare/internal/types"
)

type Pricer interface {
	Price(req pricing.TripPricingRequest) (pricing.FareResult, error)
}

type FareHandler struct {
	pricer Pricer
	loc    *time.Location
}

func NewFareHandler(pricer Pricer, loc *time.Location) *FareHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &FareHandler{pricer: pricer, loc: loc}
}

type fareReq struct {
	DistanceKm     *float64 `json:"distance_km" binding:"required"`
	PassengerCount int      `json:"passenger_count"`
	PickupDatetime string   `json:"pickup_datetime" binding:"required"`
	Country        string   `json:"country"`
	Currency       string   `json:"currency"`
}

type fareResp struct {
	Fare         float64           `json:"fare"`
	Currency     pricing.Currency  `json:"currency"`
	Vehicle      string            `json:"vehicle"`
	VehicleLabel string            `json:"vehicle_label"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
}

func (h *FareHandler) Price(c *gin.Context) {
	var req fareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	pickup, err := parsePickupTime(req.PickupDatetime, h.loc)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	res, err := h.pricer.Price(pricing.TripPricingRequest{
		DistanceKm:     *req.DistanceKm,
		PassengerCount: req.PassengerCount,
		PickupTime:     pickup,
		Country:        req.Country,
		Currency:       currency,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, fareResp{
		Fare:         res.Amount,
		Currency:     res.Currency,
		Vehicle:      string(res.Breakdown.Vehicle),
		VehicleLabel: res.Breakdown.Vehicle.Label(),
		Breakdown:    res.Breakdown,
	})
}

func (h *FareHandler) Vehicle(c *gin.Context) {
	n, err := strconv.Atoi(c.Query("passengers"))
	if err != nil || n < 1 {
		writeServiceError(c, fmt.Errorf("%w: passengers must be a positive integer", types.ErrInvalidInput))
		return
	}
	v := pricing.ClassifyVehicle(n)
	writeJSON(c, http.StatusOK, gin.H{
		"passengers": n,
		"vehicle":    v,
		"label":      v.Label(),
		"capacity":   v.Capacity(),
	})
}
