package ports

import (
	"context"

	"farm-delivery-service/internal/domain"
)

// Where a resolved coordinate came from, in decreasing order of precision.
const (
	GeocodeSourceProvider        = "provider"
	GeocodeSourceZipCentroid     = "zip_centroid"
	GeocodeSourceRegionalDefault = "regional_default"
)

// ResolvedLocation is a usable coordinate plus the precision tier that
// produced it. Source makes fallback degradation observable downstream.
type ResolvedLocation struct {
	Coords domain.Coordinates
	Source string
}

// GeocodeProvider is one link in the geocoding fallback chain. The boolean
// signals expected unavailability (no match, provider down, unconfigured);
// providers absorb and log their own transport errors.
type GeocodeProvider interface {
	Geocode(ctx context.Context, address, zipCode string) (domain.Coordinates, bool)
}

// GeocodeResolver turns a street address into coordinates. It never fails:
// accuracy degrades through the chain but a coordinate always comes back,
// so batch generation cannot be blocked by a geocoding outage.
type GeocodeResolver interface {
	Resolve(ctx context.Context, address, zipCode string) ResolvedLocation
}
