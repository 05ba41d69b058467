package api

import (
	"net/http"

	"farm-delivery-service/internal/api/auth"
	"farm-delivery-service/internal/api/handlers"
	"farm-delivery-service/internal/ports"
	"farm-delivery-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(
	generator *services.BatchGenerator,
	claims *services.ClaimService,
	batches ports.BatchRepository,
	jwtSecret string,
) http.Handler {
	mux := http.NewServeMux()

	guard := auth.New(jwtSecret)

	generateHandler := &handlers.GenerateHandler{Generator: generator}
	batchHandler := &handlers.BatchHandler{Repo: batches}
	claimHandler := &handlers.ClaimHandler{Claims: claims}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("POST /batches/generate",
		guard.RequireRole("admin")(http.HandlerFunc(generateHandler.Generate)))
	mux.Handle("GET /batches",
		guard.RequireRole("driver", "admin")(http.HandlerFunc(batchHandler.List)))
	mux.Handle("POST /batches/{id}/claim",
		guard.RequireRole("driver")(http.HandlerFunc(claimHandler.Claim)))

	return loggingMiddleware(mux)
}
