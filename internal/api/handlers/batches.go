package handlers

import (
	"log"
	"net/http"
	"time"

	"farm-delivery-service/internal/api/dto"
	"farm-delivery-service/internal/ports"
)

// BatchHandler exposes read-only batch discovery for drivers.
type BatchHandler struct {
	Repo ports.BatchRepository
	Now  func() time.Time
}

// List returns the batches for a date (default: tomorrow), so a driver can
// pick one to claim.
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	date := nextDeliveryDate(now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	batches, err := h.Repo.ListByDate(r.Context(), date)
	if err != nil {
		log.Printf("list batches failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListBatchesResponse{
		Batches: make([]dto.BatchResponse, 0, len(batches)),
	}
	for _, b := range batches {
		item := dto.BatchResponse{
			BatchID:                  b.BatchID.String(),
			DeliveryDate:             b.DeliveryDate.Format("2006-01-02"),
			BatchNumber:              b.BatchNumber,
			ZipCodes:                 b.ZipCodes,
			Status:                   string(b.Status),
			EstimatedDurationMinutes: b.EstimatedDurationMinutes,
		}
		if b.DriverID != nil {
			id := b.DriverID.String()
			item.DriverID = &id
		}
		res.Batches = append(res.Batches, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}
