package services

import (
	"sort"

	"github.com/google/uuid"

	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
)

// Stop is one delivery point flowing through the optimizer. Coords is nil
// when no usable coordinates exist for the address.
type Stop struct {
	OrderID       uuid.UUID
	ConsumerID    uuid.UUID
	StreetAddress string
	ZipCode       string
	Coords        *domain.Coordinates
	GeocodeSource string
}

// OptimizedTour is the ordered visiting plan for one batch.
//
// LegDistancesKm has len(Stops)-1 entries; legs touching a stop without
// coordinates are zero. LegDurationsSeconds is nil unless a travel matrix
// backed the optimization; haversine distance is a distance proxy and
// yields no travel times.
type OptimizedTour struct {
	Stops               []Stop
	Method              domain.OptimizationMethod
	ExcludedCount       int
	TotalDistanceKm     float64
	LegDistancesKm      []float64
	LegDurationsSeconds []float64
}

// eps guards 2-opt acceptance against float noise: only strictly improving
// reversals are applied, so the result can never be longer than the
// nearest-neighbor construction.
const eps = 1e-9

// OptimizeRoute orders stops for a single vehicle.
//
// With a travel matrix (aligned to the input stop indices): nearest-neighbor
// construction from the first stop, then 2-opt local search to a local
// optimum. Without a matrix but with coordinates: deterministic
// ZIP-then-address lexicographic ordering seeds the same nearest-neighbor +
// 2-opt over haversine distances. Without any coordinates: pure
// lexicographic order. Stops missing coordinates are excluded from
// optimization and appended in input order.
func OptimizeRoute(stops []Stop, matrix *ports.TravelMatrix) OptimizedTour {
	n := len(stops)
	if n <= 1 {
		return OptimizedTour{
			Stops:          append([]Stop(nil), stops...),
			Method:         domain.MethodSingleStop,
			LegDistancesKm: []float64{},
		}
	}

	routable := make([]int, 0, n)
	excluded := make([]int, 0)
	for i, s := range stops {
		if s.Coords != nil {
			routable = append(routable, i)
		} else {
			excluded = append(excluded, i)
		}
	}

	if len(routable) == 0 {
		ordered := lexicographicOrder(stops)
		return OptimizedTour{
			Stops:          ordered,
			Method:         domain.MethodNoCoordinates,
			ExcludedCount:  n,
			LegDistancesKm: make([]float64, n-1),
		}
	}

	useMatrix := matrixUsable(matrix, n)

	// Distance between original stop indices, in km.
	dist := func(i, j int) float64 {
		if useMatrix {
			return matrix.DistancesMeters[i][j] / 1000
		}
		return domain.HaversineKm(*stops[i].Coords, *stops[j].Coords)
	}

	tour := append([]int(nil), routable...)
	if !useMatrix {
		// Deterministic seed for the haversine path: sort by ZIP then
		// street address (total order, ties broken by order id).
		sort.SliceStable(tour, func(a, b int) bool {
			return stopLess(stops[tour[a]], stops[tour[b]])
		})
	}

	tour = nearestNeighborTour(tour, dist)
	twoOpt(tour, dist)

	orderedIdx := append(tour, excluded...)

	out := OptimizedTour{
		Stops:          make([]Stop, 0, n),
		ExcludedCount:  len(excluded),
		LegDistancesKm: make([]float64, n-1),
	}
	for _, idx := range orderedIdx {
		out.Stops = append(out.Stops, stops[idx])
	}

	if useMatrix {
		out.Method = domain.MethodOSRMWith2Opt
		out.LegDurationsSeconds = make([]float64, n-1)
	} else {
		out.Method = domain.MethodHaversineFallback
	}

	for l := 0; l < n-1; l++ {
		a, b := orderedIdx[l], orderedIdx[l+1]
		if stops[a].Coords == nil || stops[b].Coords == nil {
			continue
		}
		out.LegDistancesKm[l] = dist(a, b)
		out.TotalDistanceKm += out.LegDistancesKm[l]
		if useMatrix {
			out.LegDurationsSeconds[l] = matrix.DurationsSeconds[a][b]
		}
	}

	return out
}

func matrixUsable(matrix *ports.TravelMatrix, n int) bool {
	if matrix == nil {
		return false
	}
	if len(matrix.DistancesMeters) != n || len(matrix.DurationsSeconds) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if len(matrix.DistancesMeters[i]) != n || len(matrix.DurationsSeconds[i]) != n {
			return false
		}
	}
	return true
}

// stopLess is the deterministic comparator for the coordinate-free
// orderings: ZIP, then street address, then order id as a final total-order
// tie break.
func stopLess(a, b Stop) bool {
	if a.ZipCode != b.ZipCode {
		return a.ZipCode < b.ZipCode
	}
	if a.StreetAddress != b.StreetAddress {
		return a.StreetAddress < b.StreetAddress
	}
	return a.OrderID.String() < b.OrderID.String()
}

func lexicographicOrder(stops []Stop) []Stop {
	ordered := append([]Stop(nil), stops...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return stopLess(ordered[a], ordered[b])
	})
	return ordered
}

// nearestNeighborTour builds the construction tour: start from the first
// entry, always travel to the closest unvisited stop next. Ties keep the
// earliest candidate (first match wins) for determinism.
func nearestNeighborTour(seed []int, dist func(i, j int) float64) []int {
	if len(seed) <= 2 {
		return seed
	}

	tour := make([]int, 0, len(seed))
	visited := make([]bool, len(seed))

	current := 0
	visited[0] = true
	tour = append(tour, seed[0])

	for len(tour) < len(seed) {
		best := -1
		bestDist := 0.0
		for cand := range seed {
			if visited[cand] {
				continue
			}
			d := dist(seed[current], seed[cand])
			if best == -1 || d < bestDist {
				best = cand
				bestDist = d
			}
		}
		visited[best] = true
		tour = append(tour, seed[best])
		current = best
	}

	return tour
}

// twoOpt improves an open tour in place by segment reversal until no
// strictly improving move remains (local optimum). The delta evaluation
// re-costs the reversed segment itself, which keeps the acceptance rule
// correct for asymmetric matrices where w(a,b) != w(b,a).
func twoOpt(tour []int, dist func(i, j int) float64) {
	n := len(tour)
	if n < 3 {
		return
	}

	improved := true
	for improved {
		improved = false
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				if reversalDelta(tour, i, j, dist) < -eps {
					reverse(tour, i, j)
					improved = true
				}
			}
		}
	}
}

// reversalDelta is the cost change of reversing tour[i..j]: the boundary
// edges are replaced and the segment is traversed backwards.
func reversalDelta(tour []int, i, j int, dist func(i, j int) float64) float64 {
	var oldCost, newCost float64

	if i > 0 {
		oldCost += dist(tour[i-1], tour[i])
		newCost += dist(tour[i-1], tour[j])
	}
	if j < len(tour)-1 {
		oldCost += dist(tour[j], tour[j+1])
		newCost += dist(tour[i], tour[j+1])
	}
	for k := i; k < j; k++ {
		oldCost += dist(tour[k], tour[k+1])
		newCost += dist(tour[k+1], tour[k])
	}

	return newCost - oldCost
}

func reverse(tour []int, i, j int) {
	for i < j {
		tour[i], tour[j] = tour[j], tour[i]
		i++
		j--
	}
}
