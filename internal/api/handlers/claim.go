package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"farm-delivery-service/internal/api/auth"
	"farm-delivery-service/internal/api/dto"
	"farm-delivery-service/internal/services"
)

// ClaimHandler lets an authenticated driver take exclusive ownership of a
// pending batch.
type ClaimHandler struct {
	Claims *services.ClaimService
}

// Claim answers with a definitive terminal result: 200 on success, 404 for
// an unknown batch id, 409 when the batch is no longer claimable. Retrying
// is the client's decision.
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	sub, ok := auth.PrincipalID(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}
	driverID, err := uuid.Parse(sub)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid principal")
		return
	}

	// A malformed id cannot match any batch row.
	batchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "BATCH_NOT_FOUND")
		return
	}

	switch err := h.Claims.Claim(r.Context(), batchID, driverID); {
	case err == nil:
		writeJSON(w, r, http.StatusOK, dto.ClaimResponse{Success: true})
	case errors.Is(err, services.ErrBatchNotFound):
		writeError(w, r, http.StatusNotFound, "BATCH_NOT_FOUND")
	case errors.Is(err, services.ErrBatchUnavailable):
		writeError(w, r, http.StatusConflict, "BATCH_UNAVAILABLE")
	default:
		log.Printf("claim batch failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
