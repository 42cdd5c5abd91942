package quote

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifare/internal/modules/pricing"
	"taxifare/internal/types"
)

// TestStore_CreateGet requires a Postgres with migrations/0001_init.sql applied.
func TestStore_CreateGet(t *testing.T) {
	dsn := os.Getenv("TAXIFARE_TEST_DSN")
	if dsn == "" {
		t.Skip("TAXIFARE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	store := NewStore(db)
	id := types.ID(uuid.NewString())
	breakdown := pricing.Breakdown{BaseEUR: 18.5, PassengerMultiplier: 1, TimeMultiplier: 1, Vehicle: pricing.VehicleCityCar}
	in := &Quote{
		ID:             id,
		Source:         SourceLocal,
		Pickup:         louvre,
		Dropoff:        gareDeLyon,
		PickupAddress:  "Rue de Rivoli, Paris, France",
		DistanceKm:     10,
		DurationMin:    20.5,
		StraightLineKm: 3.24,
		Geometry:       []types.Point{louvre, gareDeLyon},
		PassengerCount: 1,
		PickupTime:     tuesday.In(time.FixedZone("", 3600)),
		Country:        "France",
		Fare:           types.Money{Amount: 18.5, Currency: "EUR"},
		Vehicle:        pricing.VehicleCityCar,
		Breakdown:      &breakdown,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Create(ctx, in))
	t.Cleanup(func() { _, _ = db.Exec(context.Background(), "DELETE FROM quotes WHERE id = $1", string(id)) })

	out, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, in.Fare, out.Fare)
	assert.Equal(t, in.Geometry, out.Geometry)
	assert.Equal(t, breakdown, *out.Breakdown)
	assert.True(t, in.PickupTime.Equal(out.PickupTime))
	assert.Equal(t, in.PickupTime.Format(time.RFC3339), out.PickupTime.Format(time.RFC3339))

	_, err = store.Get(ctx, types.ID(uuid.NewString()))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPickupOffset_RoundTrip(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	for _, in := range []time.Time{
		time.Date(2026, 2, 10, 23, 30, 0, 0, paris),
		time.Date(2026, 7, 4, 6, 0, 0, 0, paris),
		time.Date(2026, 2, 10, 14, 0, 0, 0, time.FixedZone("", -5*3600)),
		time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC),
	} {
		// Postgres hands TIMESTAMPTZ back in UTC.
		fromDB := in.UTC()
		out := withPickupOffset(fromDB, pickupOffset(in))
		assert.True(t, in.Equal(out))
		assert.Equal(t, in.Format(time.RFC3339), out.Format(time.RFC3339))
		assert.Equal(t, in.Hour(), out.Hour())
		assert.Equal(t, in.Weekday(), out.Weekday())
	}
}
