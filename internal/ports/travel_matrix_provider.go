package ports

import (
	"context"

	"farm-delivery-service/internal/domain"
)

// TravelMatrix holds pairwise travel metrics between N coordinates.
// Both slices are N x N with zero diagonals.
type TravelMatrix struct {
	DistancesMeters  [][]float64
	DurationsSeconds [][]float64
}

// TravelMatrixProvider returns pairwise travel distances and durations.
// A nil matrix with a non-nil error means the engine was unavailable;
// callers are expected to fall back to great-circle distances rather than
// treat that as a failure.
type TravelMatrixProvider interface {
	Table(ctx context.Context, coords []domain.Coordinates) (*TravelMatrix, error)
}
