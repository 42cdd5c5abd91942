package events

// TopicFareQuoted is the default topic for issued quotes.
const TopicFareQuoted = "fare.quoted"

// LatLng is a coordinate pair used in event payloads.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FareQuotedEvent is published to fare.quoted.
type FareQuotedEvent struct {
	QuoteID        string  `json:"quote_id"`
	Source         string  `json:"source"`
	Pickup         LatLng  `json:"pickup"`
	Dropoff        LatLng  `json:"dropoff"`
	DistanceKm     float64 `json:"distance_km"`
	PassengerCount int     `json:"passenger_count"`
	Country        string  `json:"country,omitempty"`
	Fare           float64 `json:"fare"`
	Currency       string  `json:"currency"`
	PickupTime     string  `json:"pickup_time"`
	QuotedAt       string  `json:"quoted_at"`
}
