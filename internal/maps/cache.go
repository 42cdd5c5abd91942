package maps

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taxifare/internal/types"
)

// GeocodeCacheTTL keeps resolved addresses for a day; street coordinates rarely move.
const GeocodeCacheTTL = 24 * time.Hour

const geocodeCachePrefix = "geocode:"

// CachedGeocoder is a read-through Redis cache in front of another Geocoder.
// Cache failures are logged and never fail a lookup; misses are not cached.
type CachedGeocoder struct {
	next   Geocoder
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedGeocoder(next Geocoder, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedGeocoder {
	if ttl <= 0 {
		ttl = GeocodeCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	key := geocodeCacheKey(address)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p types.Point
		if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
			return p, nil
		}
		c.logger.Warn("discarding corrupt geocode cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.Geocode(ctx, address)
	if err != nil {
		return types.Point{}, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}

// Invalidate drops the cached entry for address.
func (c *CachedGeocoder) Invalidate(ctx context.Context, address string) error {
	return c.client.Del(ctx, geocodeCacheKey(address)).Err()
}

func geocodeCacheKey(address string) string {
	return geocodeCachePrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}
