package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/obs"
	"farm-delivery-service/internal/ports"
)

// cacheTTL bounds staleness of resolved addresses. Street geometry does not
// move; a month keeps keys from accumulating forever.
const cacheTTL = 30 * 24 * time.Hour

type cachedCoords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CachedProvider wraps a live geocode provider with a Redis lookaside
// cache. Only provider hits are cached; centroid fallbacks are cheap and
// always available, caching them would just freeze degraded results.
// Any Redis failure is absorbed: the wrapped provider is consulted as if
// the cache missed.
type CachedProvider struct {
	inner ports.GeocodeProvider
	rdb   *redis.Client
}

func NewCachedProvider(inner ports.GeocodeProvider, rdb *redis.Client) *CachedProvider {
	return &CachedProvider{inner: inner, rdb: rdb}
}

func cacheKey(address, zipCode string) string {
	return fmt.Sprintf("geocode:%s:%s", zipCode, normalize(address))
}

func (c *CachedProvider) Geocode(ctx context.Context, address, zipCode string) (domain.Coordinates, bool) {
	key := cacheKey(address, zipCode)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cc cachedCoords
		if jsonErr := json.Unmarshal(raw, &cc); jsonErr == nil {
			return domain.Coordinates{Lat: cc.Lat, Lon: cc.Lon}, true
		}
	} else if err != redis.Nil {
		obs.Warn(ctx, "geocode.cache.get", err)
	}

	coords, ok := c.inner.Geocode(ctx, address, zipCode)
	if !ok {
		return domain.Coordinates{}, false
	}

	raw, err := json.Marshal(cachedCoords{Lat: coords.Lat, Lon: coords.Lon})
	if err == nil {
		if err := c.rdb.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			obs.Warn(ctx, "geocode.cache.set", err)
		}
	}

	return coords, true
}

var _ ports.GeocodeProvider = (*CachedProvider)(nil)
