// README: Pricing rates, trip pricing request and fare result definitions.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"taxifare/internal/types"
)

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency accepts "EUR"/"USD" in any case, optionally followed by a symbol ("EUR (€)").
func ParseCurrency(s string) (Currency, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: currency is required", types.ErrInvalidInput)
	}
	switch c := Currency(strings.ToUpper(fields[0])); c {
	case CurrencyEUR, CurrencyUSD:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unsupported currency %q", types.ErrInvalidInput, s)
	}
}

// Rates is the immutable rate card. Amounts are EUR.
type Rates struct {
	BaseFare          float64
	PerKm             float64
	USDToEUR          float64
	NightMultiplier   float64
	WeekendMultiplier float64
	HolidayMultiplier float64
	// Night window is [NightStartHour, 24) ∪ [0, NightEndHour).
	NightStartHour int
	NightEndHour   int
}

func DefaultRates() Rates {
	return Rates{
		BaseFare:          3.50,
		PerKm:             1.50,
		USDToEUR:          0.92,
		NightMultiplier:   1.3,
		WeekendMultiplier: 1.2,
		HolidayMultiplier: 1.5,
		NightStartHour:    22,
		NightEndHour:      6,
	}
}

func (r Rates) Validate() error {
	switch {
	case r.BaseFare < 0 || r.PerKm < 0:
		return errors.New("base fare and per-km rate must be non-negative")
	case r.USDToEUR <= 0:
		return errors.New("USD to EUR rate must be positive")
	case r.NightMultiplier < 1 || r.WeekendMultiplier < 1 || r.HolidayMultiplier < 1:
		return errors.New("surcharge multipliers must be >= 1")
	case r.NightStartHour < 0 || r.NightStartHour > 23 || r.NightEndHour < 0 || r.NightEndHour > 23:
		return errors.New("night window hours must be within 0-23")
	}
	return nil
}

type TripPricingRequest struct {
	DistanceKm     float64
	PassengerCount int
	// PickupTime is evaluated in its own location for weekday and hour.
	PickupTime time.Time
	Country    string
	Currency   Currency
}

func (r TripPricingRequest) Validate() error {
	switch {
	case math.IsNaN(r.DistanceKm) || math.IsInf(r.DistanceKm, 0) || r.DistanceKm < 0:
		return fmt.Errorf("%w: distance_km must be a non-negative number", types.ErrInvalidInput)
	case r.PassengerCount < 1:
		return fmt.Errorf("%w: passenger_count must be at least 1", types.ErrInvalidInput)
	case r.PickupTime.IsZero():
		return fmt.Errorf("%w: pickup_datetime is required", types.ErrInvalidInput)
	case r.Currency != CurrencyEUR && r.Currency != CurrencyUSD:
		return fmt.Errorf("%w: unsupported currency %q", types.ErrInvalidInput, r.Currency)
	}
	return nil
}

// Breakdown explains how a fare was reached.
type Breakdown struct {
	BaseEUR             float64     `json:"base_eur"`
	PassengerMultiplier float64     `json:"passenger_multiplier"`
	TimeMultiplier      float64     `json:"time_multiplier"`
	Night               bool        `json:"night"`
	Weekend             bool        `json:"weekend"`
	Holiday             bool        `json:"holiday"`
	Vehicle             VehicleType `json:"vehicle"`
}

type FareResult struct {
	Amount    float64
	Currency  Currency
	Breakdown Breakdown
}

// Money converts the result into the shared money value.
func (f FareResult) Money() types.Money {
	return types.Money{Amount: f.Amount, Currency: string(f.Currency)}
}
