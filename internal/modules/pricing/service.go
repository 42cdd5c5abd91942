// README: Pricing service computes deterministic local fares.
package pricing

import (
	"fmt"
	"math"
	"time"

	"taxifare/internal/types"
)

type Service struct {
	rates    Rates
	holidays HolidayCalendar
}

// NewService returns a pricer over the given rate card. A nil calendar falls back to DefaultCalendar.
func NewService(rates Rates, holidays HolidayCalendar) *Service {
	if holidays == nil {
		holidays = DefaultCalendar()
	}
	return &Service{rates: rates, holidays: holidays}
}

func (s *Service) Rates() Rates {
	return s.rates
}

// Price maps a trip to a fare. It performs no I/O and only fails with types.ErrInvalidInput.
func (s *Service) Price(req TripPricingRequest) (FareResult, error) {
	if err := req.Validate(); err != nil {
		return FareResult{}, err
	}

	base := s.rates.BaseFare + req.DistanceKm*s.rates.PerKm
	passengerMult := PassengerMultiplier(req.PassengerCount)

	night := s.isNight(req.PickupTime)
	weekend := isWeekend(req.PickupTime)
	holiday := s.holidays.IsHoliday(req.Country, req.PickupTime)

	timeMult := 1.0
	if night {
		timeMult *= s.rates.NightMultiplier
	}
	if weekend {
		timeMult *= s.rates.WeekendMultiplier
	}
	if holiday {
		timeMult *= s.rates.HolidayMultiplier
	}

	fareEUR := base * (passengerMult * timeMult)

	amount := fareEUR
	if req.Currency == CurrencyUSD {
		amount = fareEUR / s.rates.USDToEUR
	}
	amount = roundCents(amount)
	if math.IsInf(amount, 0) || math.IsNaN(amount) {
		return FareResult{}, fmt.Errorf("%w: fare overflows for distance_km %g", types.ErrInvalidInput, req.DistanceKm)
	}

	return FareResult{
		Amount:   amount,
		Currency: req.Currency,
		Breakdown: Breakdown{
			BaseEUR:             base,
			PassengerMultiplier: passengerMult,
			TimeMultiplier:      timeMult,
			Night:               night,
			Weekend:             weekend,
			Holiday:             holiday,
			Vehicle:             ClassifyVehicle(req.PassengerCount),
		},
	}, nil
}

// PassengerMultiplier grows 5% per extra passenger up to 4, 10% up to 6, 15% beyond.
func PassengerMultiplier(p int) float64 {
	switch {
	case p <= 4:
		return 1.0 + float64(p-1)*0.05
	case p <= 6:
		return 1.15 + float64(p-4)*0.10
	default:
		return 1.35 + float64(p-6)*0.15
	}
}

func (s *Service) isNight(t time.Time) bool {
	h := t.Hour()
	start, end := s.rates.NightStartHour, s.rates.NightEndHour
	if start > end {
		return h >= start || h < end
	}
	return h >= start && h < end
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// roundCents rounds half away from zero to two decimals.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
