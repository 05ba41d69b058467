package geocode

import (
	"context"

	"farm-delivery-service/internal/ports"
)

// ChainResolver implements the geocoding fallback chain. Order is strict:
// live provider, then ZIP centroid, then regional default. Resolve never
// fails since the last link is a constant.
type ChainResolver struct {
	provider  ports.GeocodeProvider
	centroids *ZipCentroidTable
}

// NewChainResolver builds the chain. provider may be nil (unconfigured),
// in which case resolution starts at the ZIP centroid table.
func NewChainResolver(provider ports.GeocodeProvider, centroids *ZipCentroidTable) *ChainResolver {
	if centroids == nil {
		centroids = DefaultTable()
	}
	return &ChainResolver{provider: provider, centroids: centroids}
}

func (r *ChainResolver) Resolve(ctx context.Context, address, zipCode string) ports.ResolvedLocation {
	if r.provider != nil {
		if coords, ok := r.provider.Geocode(ctx, address, zipCode); ok {
			return ports.ResolvedLocation{Coords: coords, Source: ports.GeocodeSourceProvider}
		}
	}

	if coords, ok := r.centroids.Lookup(zipCode); ok {
		return ports.ResolvedLocation{Coords: coords, Source: ports.GeocodeSourceZipCentroid}
	}

	return ports.ResolvedLocation{
		Coords: r.centroids.RegionalDefault(),
		Source: ports.GeocodeSourceRegionalDefault,
	}
}

var _ ports.GeocodeResolver = (*ChainResolver)(nil)
var _ ports.GeocodeProvider = (*ORSProvider)(nil)

