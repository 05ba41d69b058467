package ports

import (
	"context"

	"farm-delivery-service/internal/domain"
)

// RouteLeg is the travel metric for one hop of an ordered route.
type RouteLeg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// RoutePath is a single driving route through an ordered coordinate list.
type RoutePath struct {
	Legs            []RouteLeg
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        string
}

// RouteFetcher retrieves a drivable route (with per-leg durations and an
// encoded polyline) through stops in a fixed visiting order.
type RouteFetcher interface {
	Route(ctx context.Context, coords []domain.Coordinates) (*RoutePath, error)
}
