package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-delivery-service/internal/domain"
)

func seedPendingBatch(t *testing.T, repo *fakeBatchRepo) uuid.UUID {
	t.Helper()
	batch := &domain.DeliveryBatch{
		BatchID:      uuid.New(),
		DeliveryDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		BatchNumber:  1,
		ZipCodes:     []string{"85003"},
		Status:       domain.BatchStatusPending,
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))
	return batch.BatchID
}

func TestClaimSuccess(t *testing.T) {
	repo := newFakeBatchRepo()
	batchID := seedPendingBatch(t, repo)
	driverID := uuid.New()

	err := NewClaimService(repo).Claim(context.Background(), batchID, driverID)
	require.NoError(t, err)

	b := repo.batches[batchID]
	assert.Equal(t, domain.BatchStatusAssigned, b.Status)
	require.NotNil(t, b.DriverID)
	assert.Equal(t, driverID, *b.DriverID)
}

func TestClaimUnknownBatch(t *testing.T) {
	repo := newFakeBatchRepo()
	seedPendingBatch(t, repo)

	err := NewClaimService(repo).Claim(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestClaimAlreadyAssigned(t *testing.T) {
	repo := newFakeBatchRepo()
	batchID := seedPendingBatch(t, repo)
	svc := NewClaimService(repo)

	require.NoError(t, svc.Claim(context.Background(), batchID, uuid.New()))

	err := svc.Claim(context.Background(), batchID, uuid.New())
	assert.ErrorIs(t, err, ErrBatchUnavailable)
}

func TestClaimConcurrentDriversExactlyOneWins(t *testing.T) {
	repo := newFakeBatchRepo()
	batchID := seedPendingBatch(t, repo)
	svc := NewClaimService(repo)

	const drivers = 32
	errs := make([]error, drivers)
	winners := make([]uuid.UUID, drivers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(drivers)
	for i := 0; i < drivers; i++ {
		go func(i int) {
			defer done.Done()
			winners[i] = uuid.New()
			start.Wait()
			errs[i] = svc.Claim(context.Background(), batchID, winners[i])
		}(i)
	}
	start.Done()
	done.Wait()

	var won int
	var winner uuid.UUID
	for i, err := range errs {
		if err == nil {
			won++
			winner = winners[i]
			continue
		}
		assert.True(t, errors.Is(err, ErrBatchUnavailable), "loser %d got %v", i, err)
	}
	require.Equal(t, 1, won, "exactly one driver must win the batch")

	b := repo.batches[batchID]
	require.NotNil(t, b.DriverID)
	assert.Equal(t, winner, *b.DriverID)
}
