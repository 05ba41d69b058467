package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"farm-delivery-service/internal/api/dto"
	"farm-delivery-service/internal/services"
)

// Deliveries start at 08:00 UTC on the delivery date.
const batchStartHour = 8

// GenerateHandler triggers batch generation for a delivery date.
type GenerateHandler struct {
	Generator *services.BatchGenerator
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Generate runs the pipeline and always answers 200 with a structured
// summary when the run executed, even if some clusters failed. Only a total
// failure (pending orders unreadable) is a 500.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateRequest

	// An empty body means "next delivery date".
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	deliveryDate := nextDeliveryDate(now())
	if req.DeliveryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "delivery_date must be YYYY-MM-DD")
			return
		}
		deliveryDate = parsed
	}

	result, err := h.Generator.Generate(r.Context(), services.GenerateBatchesRequest{
		DeliveryDate: deliveryDate,
		StartTime:    deliveryDate.Add(batchStartHour * time.Hour),
	})
	if err != nil {
		log.Printf("generate batches failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.GenerateResponse{
		Success:              true,
		DeliveryDate:         result.DeliveryDate.Format("2006-01-02"),
		BatchesCreated:       result.BatchesCreated,
		TotalOrdersProcessed: result.TotalOrdersProcessed,
		Batches:              make([]dto.BatchSummaryResponse, 0, len(result.Batches)),
		Errors:               result.Errors,
	}
	for _, b := range result.Batches {
		res.Batches = append(res.Batches, dto.BatchSummaryResponse{
			BatchID:                  b.BatchID.String(),
			BatchNumber:              b.BatchNumber,
			ZipCode:                  b.ZipCode,
			OrderCount:               b.OrderCount,
			TotalDistanceKm:          b.TotalDistanceKm,
			EstimatedDurationMinutes: b.EstimatedDurationMinutes,
			OptimizationMethod:       string(b.Method),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// nextDeliveryDate is the implicit target: midnight UTC of the next day.
func nextDeliveryDate(now time.Time) time.Time {
	next := now.UTC().AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
}
