// README: Quote service resolves locations, routes the trip and prices it locally or remotely.
package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxifare/internal/events"
	"taxifare/internal/maps"
	"taxifare/internal/modules/pricing"
	"taxifare/internal/prediction"
	"taxifare/internal/types"
)

type Pricer interface {
	Price(req pricing.TripPricingRequest) (pricing.FareResult, error)
}

type Predictor interface {
	Predict(ctx context.Context, req prediction.Request) (float64, error)
}

type Repository interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, id types.ID) (*Quote, error)
}

const publishTimeout = 5 * time.Second

// Deps wires the service. Repo, Predictor and Publisher are optional.
type Deps struct {
	Geocoder  maps.Geocoder
	Router    maps.Router
	Pricer    Pricer
	Predictor Predictor
	Repo      Repository
	Publisher events.Publisher
	// Topic defaults to events.TopicFareQuoted.
	Topic     string
	Logger    *zap.Logger
}

type Service struct {
	geocoder  maps.Geocoder
	router    maps.Router
	pricer    Pricer
	predictor Predictor
	repo      Repository
	publisher events.Publisher
	topic     string
	logger    *zap.Logger
	now       func() time.Time

	// pending tracks in-flight event publishes.
	pending sync.WaitGroup
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	topic := d.Topic
	if topic == "" {
		topic = events.TopicFareQuoted
	}
	return &Service{
		geocoder:  d.Geocoder,
		router:    d.Router,
		pricer:    d.Pricer,
		predictor: d.Predictor,
		repo:      d.Repo,
		publisher: d.Publisher,
		topic:     topic,
		logger:    logger,
		now:       time.Now,
	}
}

type EstimateCommand struct {
	Pickup         Location
	Dropoff        Location
	PassengerCount int
	PickupTime     time.Time
	// Country overrides the pickup address country for holiday lookup.
	Country  string
	Currency pricing.Currency
}

type PredictCommand struct {
	Pickup         types.Point
	Dropoff        types.Point
	PassengerCount int
	PickupTime     time.Time
}

// Estimate prices a trip with the local pricer. Any collaborator failure aborts the quote.
func (s *Service) Estimate(ctx context.Context, cmd EstimateCommand) (*Quote, error) {
	country := cmd.Country
	if country == "" {
		country = cmd.Pickup.Country
	}
	req := pricing.TripPricingRequest{
		PassengerCount: cmd.PassengerCount,
		PickupTime:     cmd.PickupTime,
		Country:        country,
		Currency:       cmd.Currency,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.router == nil {
		return nil, fmt.Errorf("route: %w: no router configured", types.ErrUpstreamUnavailable)
	}

	pickup, pickupAddr, err := s.resolve(ctx, "pickup", cmd.Pickup)
	if err != nil {
		return nil, err
	}
	dropoff, dropoffAddr, err := s.resolve(ctx, "dropoff", cmd.Dropoff)
	if err != nil {
		return nil, err
	}

	route, err := s.router.Route(ctx, pickup, dropoff)
	if err != nil {
		return nil, err
	}

	req.DistanceKm = route.DistanceKm
	fare, err := s.pricer.Price(req)
	if err != nil {
		return nil, err
	}

	breakdown := fare.Breakdown
	q := &Quote{
		ID:             newID(),
		Source:         SourceLocal,
		Pickup:         pickup,
		Dropoff:        dropoff,
		PickupAddress:  pickupAddr,
		DropoffAddress: dropoffAddr,
		DistanceKm:     route.DistanceKm,
		DurationMin:    route.DurationMin,
		StraightLineKm: straightLineKm(pickup, dropoff),
		Geometry:       route.Geometry,
		PassengerCount: cmd.PassengerCount,
		PickupTime:     cmd.PickupTime,
		Country:        country,
		Fare:           fare.Money(),
		Vehicle:        breakdown.Vehicle,
		Breakdown:      &breakdown,
		CreatedAt:      s.now(),
	}
	if err := s.record(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Predict asks the remote model for a fare. The model answers in USD.
func (s *Service) Predict(ctx context.Context, cmd PredictCommand) (*Quote, error) {
	if !cmd.Pickup.Valid() || !cmd.Dropoff.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", types.ErrInvalidInput)
	}
	if s.predictor == nil {
		return nil, fmt.Errorf("predict: %w: no prediction endpoint configured", types.ErrUpstreamUnavailable)
	}

	amount, err := s.predictor.Predict(ctx, prediction.Request{
		PickupTime:     cmd.PickupTime,
		Pickup:         cmd.Pickup,
		Dropoff:        cmd.Dropoff,
		PassengerCount: cmd.PassengerCount,
	})
	if err != nil {
		return nil, err
	}

	km := straightLineKm(cmd.Pickup, cmd.Dropoff)
	q := &Quote{
		ID:             newID(),
		Source:         SourceRemote,
		Pickup:         cmd.Pickup,
		Dropoff:        cmd.Dropoff,
		DistanceKm:     km,
		StraightLineKm: km,
		PassengerCount: cmd.PassengerCount,
		PickupTime:     cmd.PickupTime,
		Fare:           types.Money{Amount: amount, Currency: string(pricing.CurrencyUSD)},
		Vehicle:        pricing.ClassifyVehicle(cmd.PassengerCount),
		CreatedAt:      s.now(),
	}
	if err := s.record(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Quote, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("quote %s: %w", id, types.ErrNotFound)
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return nil, fmt.Errorf("quote %s: %w", id, types.ErrNotFound)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) resolve(ctx context.Context, role string, loc Location) (types.Point, string, error) {
	address := maps.FormatAddress(loc.Street, loc.Locality, loc.Country)
	if loc.Point != nil {
		if !loc.Point.Valid() {
			return types.Point{}, "", fmt.Errorf("%w: %s coordinates out of range", types.ErrInvalidInput, role)
		}
		return *loc.Point, address, nil
	}
	if address == "" {
		return types.Point{}, "", fmt.Errorf("%w: %s needs coordinates or an address", types.ErrInvalidInput, role)
	}
	if s.geocoder == nil {
		return types.Point{}, "", fmt.Errorf("geocode %s: %w: no geocoder configured", role, types.ErrUpstreamUnavailable)
	}
	p, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return types.Point{}, "", fmt.Errorf("geocode %s: %w", role, err)
	}
	return p, address, nil
}

// record persists the quote when a repository is configured and publishes it in the background.
func (s *Service) record(ctx context.Context, q *Quote) error {
	if s.repo != nil {
		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("store quote: %w", err)
		}
	}
	if s.publisher == nil {
		return nil
	}

	evt := toEvent(q)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		pctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pctx, s.topic, evt.QuoteID, evt); err != nil {
			s.logger.Warn("failed to publish quote event",
				zap.String("topic", s.topic),
				zap.String("quote_id", evt.QuoteID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until every queued quote event has been handed to the publisher or has timed out.
// Call it before closing the publisher.
func (s *Service) Wait() {
	s.pending.Wait()
}

func toEvent(q *Quote) events.FareQuotedEvent {
	return events.FareQuotedEvent{
		QuoteID:        string(q.ID),
		Source:         string(q.Source),
		Pickup:         events.LatLng{Lat: q.Pickup.Lat, Lng: q.Pickup.Lng},
		Dropoff:        events.LatLng{Lat: q.Dropoff.Lat, Lng: q.Dropoff.Lng},
		DistanceKm:     q.DistanceKm,
		PassengerCount: q.PassengerCount,
		Country:        q.Country,
		Fare:           q.Fare.Amount,
		Currency:       q.Fare.Currency,
		PickupTime:     q.PickupTime.Format(time.RFC3339),
		QuotedAt:       q.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func straightLineKm(a, b types.Point) float64 {
	return maps.RoundKm(maps.HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng))
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}
