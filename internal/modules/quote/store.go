// README: Quote store backed by PostgreSQL.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxifare/internal/modules/pricing"
	"taxifare/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, q *Quote) error {
	breakdown, err := marshalNullable(q.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	var geometry []byte
	if len(q.Geometry) > 0 {
		if geometry, err = json.Marshal(q.Geometry); err != nil {
			return fmt.Errorf("encode geometry: %w", err)
		}
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO quotes (
			id, source,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			pickup_address, dropoff_address,
			distance_km, duration_min, straight_line_km,
			passenger_count, pickup_time, pickup_offset, country,
			amount, currency, vehicle, breakdown, geometry, created_at
		) VALUES (
			$1, $2,
			$3, $4, $5, $6,
			$7, $8,
			$9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21
		)`,
		string(q.ID), string(q.Source),
		q.Pickup.Lat, q.Pickup.Lng, q.Dropoff.Lat, q.Dropoff.Lng,
		q.PickupAddress, q.DropoffAddress,
		q.DistanceKm, q.DurationMin, q.StraightLineKm,
		q.PassengerCount, q.PickupTime, pickupOffset(q.PickupTime), q.Country,
		q.Fare.Amount, q.Fare.Currency, string(q.Vehicle), breakdown, geometry, q.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Quote, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id::text, source,
		       pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		       pickup_address, dropoff_address,
		       distance_km, duration_min, straight_line_km,
		       passenger_count, pickup_time, pickup_offset, country,
		       amount::float8, currency, vehicle, breakdown, geometry, created_at
		FROM quotes
		WHERE id = $1`, string(id),
	)

	var q Quote
	var source, vehicle string
	var breakdown, geometry []byte
	var offset int
	err := row.Scan(
		&q.ID, &source,
		&q.Pickup.Lat, &q.Pickup.Lng, &q.Dropoff.Lat, &q.Dropoff.Lng,
		&q.PickupAddress, &q.DropoffAddress,
		&q.DistanceKm, &q.DurationMin, &q.StraightLineKm,
		&q.PassengerCount, &q.PickupTime, &offset, &q.Country,
		&q.Fare.Amount, &q.Fare.Currency, &vehicle, &breakdown, &geometry, &q.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quote %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	q.PickupTime = withPickupOffset(q.PickupTime, offset)
	q.Source = Source(source)
	q.Vehicle = pricing.VehicleType(vehicle)
	if len(breakdown) > 0 {
		var b pricing.Breakdown
		if err := json.Unmarshal(breakdown, &b); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
		q.Breakdown = &b
	}
	if len(geometry) > 0 {
		if err := json.Unmarshal(geometry, &q.Geometry); err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
	}
	return &q, nil
}

// pickupOffset is the UTC offset in seconds that decided the night and weekend flags.
// TIMESTAMPTZ keeps only the instant.
func pickupOffset(t time.Time) int {
	_, off := t.Zone()
	return off
}

func withPickupOffset(t time.Time, offset int) time.Time {
	return t.In(time.FixedZone("", offset))
}

func marshalNullable(b *pricing.Breakdown) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}
