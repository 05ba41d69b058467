package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"farm-delivery-service/internal/ports"
)

// Typed claim outcomes. Both are expected results of normal operation, not
// server faults: the HTTP layer maps them to 404 and 409.
var (
	ErrBatchNotFound    = errors.New("batch not found")
	ErrBatchUnavailable = errors.New("batch unavailable")
)

// ClaimService hands a pending batch to a driver. The whole concurrency
// story lives in the repository's conditional update: under N simultaneous
// claims exactly one matches the pending, driverless row; the rest see zero
// rows affected and come back as ErrBatchUnavailable.
type ClaimService struct {
	Batches ports.BatchRepository
}

func NewClaimService(batches ports.BatchRepository) *ClaimService {
	return &ClaimService{Batches: batches}
}

// Claim attempts the pending -> assigned transition for driverID.
func (s *ClaimService) Claim(ctx context.Context, batchID, driverID uuid.UUID) error {
	won, err := s.Batches.Claim(ctx, batchID, driverID)
	if err != nil {
		return fmt.Errorf("claim batch: %w", err)
	}
	if won {
		return nil
	}

	// Zero rows: distinguish a batch that never existed from one that is
	// simply no longer claimable.
	exists, err := s.Batches.Exists(ctx, batchID)
	if err != nil {
		return fmt.Errorf("claim batch: check existence: %w", err)
	}
	if !exists {
		return ErrBatchNotFound
	}

	return ErrBatchUnavailable
}
