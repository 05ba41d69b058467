package services

import (
	"time"

	"farm-delivery-service/internal/domain"
)

// Fixed per-stop handover time (parking, walking the box up, signature).
const StopServiceTime = 5 * time.Minute

// Assumed average road speed when no real travel durations exist and leg
// time must be approximated from great-circle distance.
const fallbackSpeedKmh = 30.0

// EstimateArrivals converts an ordered tour into per-stop arrival times.
//
// legDurations carries real per-leg travel times (from the routing engine
// or the travel matrix) and may be nil, in which case leg time is
// approximated as haversine distance over the assumed road speed. The first
// stop's arrival is the batch start time; each later stop adds the previous
// stop's service time plus the leg travel time.
func EstimateArrivals(stops []Stop, startTime time.Time, legDurations []time.Duration) []time.Time {
	arrivals := make([]time.Time, len(stops))
	if len(stops) == 0 {
		return arrivals
	}

	arrivals[0] = startTime
	for i := 1; i < len(stops); i++ {
		leg := legDuration(stops[i-1], stops[i], legDurations, i-1)
		arrivals[i] = arrivals[i-1].Add(StopServiceTime + leg)
	}

	return arrivals
}

func legDuration(from, to Stop, legDurations []time.Duration, leg int) time.Duration {
	if leg < len(legDurations) && legDurations[leg] > 0 {
		return legDurations[leg]
	}

	if from.Coords == nil || to.Coords == nil {
		return 0
	}

	km := domain.HaversineKm(*from.Coords, *to.Coords)
	hours := km / fallbackSpeedKmh
	return time.Duration(hours * float64(time.Hour))
}
