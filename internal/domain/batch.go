package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle state of a delivery batch.
// A batch is claimable only while pending; the pending -> assigned
// transition is owned exclusively by the claim operation.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusAssigned   BatchStatus = "assigned"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
)

func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusAssigned, BatchStatusInProgress, BatchStatusCompleted:
		return true
	}
	return false
}

// DeliveryBatch is one delivery run for a date, covering a single ZIP
// cluster. BatchNumber is unique per date and monotonically increasing.
// DriverID is non-nil iff the batch has been claimed (status assigned or
// later).
type DeliveryBatch struct {
	BatchID                  uuid.UUID
	DeliveryDate             time.Time
	BatchNumber              int
	ZipCodes                 []string
	Status                   BatchStatus
	DriverID                 *uuid.UUID
	EstimatedDurationMinutes int
	CreatedAt                time.Time
}

// BatchStop is one order's delivery point within a batch. Seq values form
// a contiguous permutation of 1..N within the batch.
type BatchStop struct {
	StopID           uuid.UUID
	BatchID          uuid.UUID
	OrderID          uuid.UUID
	Seq              int
	StreetAddress    string
	ZipCode          string
	Coords           *Coordinates
	Status           string
	EstimatedArrival time.Time
	ActualArrival    *time.Time
}

// BoxCode builds the label printed on the physical parcel for a stop:
// B<batch_number>-<sequence_number>.
func BoxCode(batchNumber, seq int) string {
	return fmt.Sprintf("B%d-%d", batchNumber, seq)
}
