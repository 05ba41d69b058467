package domain

import "github.com/google/uuid"

// OptimizationMethod records how a batch's visiting order was produced.
// The tag is persisted with the route and drives downstream distance/time
// reporting: haversine figures are distance proxies, not travel times.
type OptimizationMethod string

const (
	// Full pipeline: routing-engine matrix + nearest-neighbor + 2-opt.
	MethodOSRMWith2Opt OptimizationMethod = "osrm_with_2opt"
	// Routing engine unavailable; great-circle distances drove the tour.
	MethodHaversineFallback OptimizationMethod = "haversine_fallback"
	// Zero or one stop, nothing to order.
	MethodSingleStop OptimizationMethod = "single_stop"
	// No stop had usable coordinates; lexicographic ZIP/address order.
	MethodNoCoordinates OptimizationMethod = "no_coordinates"
)

func (m OptimizationMethod) IsValid() bool {
	switch m {
	case MethodOSRMWith2Opt, MethodHaversineFallback, MethodSingleStop, MethodNoCoordinates:
		return true
	}
	return false
}

// Route is the persisted result of optimizing one batch: aggregate metrics,
// the method that produced them, and an optional encoded polyline returned
// by the routing engine for re-display and turn-by-turn use.
type Route struct {
	RouteID              uuid.UUID
	BatchID              uuid.UUID
	TotalDistanceKm      float64
	TotalDurationMinutes int
	Method               OptimizationMethod
	Geometry             *string
}
