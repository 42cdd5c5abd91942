// README: Quote aggregate and the location input accepted by the estimator.
package quote

import (
	"time"

	"taxifare/internal/modules/pricing"
	"taxifare/internal/types"
)

type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Location is either a coordinate or a free-text address split the way the booking form collects it.
// Point wins when both are set.
type Location struct {
	Point    *types.Point
	Street   string
	Locality string
	Country  string
}

type Quote struct {
	ID             types.ID
	Source         Source
	Pickup         types.Point
	Dropoff        types.Point
	PickupAddress  string
	DropoffAddress string
	DistanceKm     float64
	DurationMin    float64
	StraightLineKm float64
	Geometry       []types.Point
	PassengerCount int
	PickupTime     time.Time
	Country        string
	Fare           types.Money
	Vehicle        pricing.VehicleType
	// Breakdown is nil for remote predictions.
	Breakdown *pricing.Breakdown
	CreatedAt time.Time
}
