package dto

type GenerateRequest struct {
	// Optional YYYY-MM-DD; defaults to the next delivery date.
	DeliveryDate string `json:"delivery_date"`
}

type BatchSummaryResponse struct {
	BatchID                  string  `json:"batch_id"`
	BatchNumber              int     `json:"batch_number"`
	ZipCode                  string  `json:"zip_code"`
	OrderCount               int     `json:"order_count"`
	TotalDistanceKm          float64 `json:"total_distance_km"`
	EstimatedDurationMinutes int     `json:"estimated_duration_minutes"`
	OptimizationMethod       string  `json:"optimization_method"`
}

type GenerateResponse struct {
	Success              bool                   `json:"success"`
	DeliveryDate         string                 `json:"delivery_date"`
	BatchesCreated       int                    `json:"batches_created"`
	TotalOrdersProcessed int                    `json:"total_orders_processed"`
	Batches              []BatchSummaryResponse `json:"batches"`
	Errors               []string               `json:"errors,omitempty"`
}

type BatchResponse struct {
	BatchID                  string   `json:"batch_id"`
	DeliveryDate             string   `json:"delivery_date"`
	BatchNumber              int      `json:"batch_number"`
	ZipCodes                 []string `json:"zip_codes"`
	Status                   string   `json:"status"`
	DriverID                 *string  `json:"driver_id,omitempty"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes"`
}

type ListBatchesResponse struct {
	Batches []BatchResponse `json:"batches"`
}

type ClaimResponse struct {
	Success bool `json:"success"`
}
