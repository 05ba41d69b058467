package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/obs"
	"farm-delivery-service/internal/ports"
)

// clusterTimeout bounds one cluster's external calls and writes. A cluster
// that blows the budget becomes an error entry; the run continues.
const clusterTimeout = 90 * time.Second

// maxConcurrentClusters bounds parallel geocode/matrix traffic per run.
const maxConcurrentClusters = 4

type GenerateBatchesRequest struct {
	DeliveryDate time.Time
	// StartTime anchors arrival estimates for every batch of the run.
	StartTime time.Time
}

// BatchSummary is the per-batch slice of the generation report.
type BatchSummary struct {
	BatchID                  uuid.UUID
	BatchNumber              int
	ZipCode                  string
	OrderCount               int
	TotalDistanceKm          float64
	EstimatedDurationMinutes int
	Method                   domain.OptimizationMethod
}

// GenerateBatchesResult is the structured run report. Per-cluster failures
// land in Errors; the run itself still succeeds.
type GenerateBatchesResult struct {
	DeliveryDate         time.Time
	BatchesCreated       int
	TotalOrdersProcessed int
	Batches              []BatchSummary
	Errors               []string
}

// BatchGenerator wires the pipeline:
// aggregate -> geocode -> matrix -> optimize -> estimate -> persist.
type BatchGenerator struct {
	Orders   ports.OrderRepository
	Batches  ports.BatchRepository
	Resolver ports.GeocodeResolver
	Matrix   ports.TravelMatrixProvider
	Router   ports.RouteFetcher
	Notifier ports.Notifier
}

// Generate runs batch generation for one delivery date. It returns an error
// only when pending orders cannot be read at all; every narrower failure is
// absorbed into the result's Errors list so other clusters still complete.
func (g *BatchGenerator) Generate(ctx context.Context, req GenerateBatchesRequest) (_ *GenerateBatchesResult, err error) {
	defer obs.Time(ctx, "pipeline.Generate")(&err)

	agg, err := AggregateOrders(ctx, g.Orders, req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("generate batches: %w", err)
	}

	result := &GenerateBatchesResult{
		DeliveryDate:         req.DeliveryDate,
		TotalOrdersProcessed: agg.TotalOrders,
		Batches:              []BatchSummary{},
		Errors:               append([]string{}, agg.Issues...),
	}
	if len(agg.Clusters) == 0 {
		return result, nil
	}

	// Batch numbers are allocated up front, one contiguous block per run,
	// so clusters can proceed concurrently without racing max+1.
	base, err := g.Batches.NextBatchNumber(ctx, req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("generate batches: allocate batch numbers: %w", err)
	}

	var mu sync.Mutex
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(maxConcurrentClusters)

	for i, cluster := range agg.Clusters {
		batchNumber := base + i
		cluster := cluster

		grp.Go(func() error {
			clusterCtx, cancel := context.WithTimeout(grpCtx, clusterTimeout)
			defer cancel()

			summary, clusterErr := g.processCluster(clusterCtx, cluster, batchNumber, req)

			mu.Lock()
			defer mu.Unlock()
			if clusterErr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("zip %s: %v", cluster.ZipCode, clusterErr))
				return nil
			}
			result.Batches = append(result.Batches, *summary)
			result.BatchesCreated++
			return nil
		})
	}

	// Cluster errors are accumulated, never propagated, so Wait only fails
	// on caller cancellation.
	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("generate batches: %w", err)
	}

	sortSummaries(result.Batches)
	return result, nil
}

// processCluster runs the full pipeline for one ZIP cluster and persists
// the outcome. On a persistence failure it compensates: orders revert to
// pending and the partial batch row (with its stops and route) is deleted.
func (g *BatchGenerator) processCluster(
	ctx context.Context,
	cluster ZipCluster,
	batchNumber int,
	req GenerateBatchesRequest,
) (*BatchSummary, error) {
	stops := g.resolveStops(ctx, cluster)

	matrix := g.fetchMatrix(ctx, cluster.ZipCode, stops)
	tour := OptimizeRoute(stops, matrix)

	path := g.fetchPath(ctx, tour)
	legDurations := pickLegDurations(tour, path)
	arrivals := EstimateArrivals(tour.Stops, req.StartTime, legDurations)

	totalDistanceKm := tour.TotalDistanceKm
	totalDuration := totalDurationMinutes(tour.Stops, arrivals)
	if path != nil {
		totalDistanceKm = path.DistanceMeters / 1000
	}

	batch := &domain.DeliveryBatch{
		BatchID:                  uuid.New(),
		DeliveryDate:             req.DeliveryDate,
		BatchNumber:              batchNumber,
		ZipCodes:                 []string{cluster.ZipCode},
		Status:                   domain.BatchStatusPending,
		EstimatedDurationMinutes: totalDuration,
	}

	if err := g.Batches.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	if err := g.persistCluster(ctx, batch, tour, path, arrivals, totalDistanceKm); err != nil {
		g.compensate(ctx, batch.BatchID)
		return nil, err
	}

	g.notifyConfirmed(ctx, batch, tour, arrivals)

	return &BatchSummary{
		BatchID:                  batch.BatchID,
		BatchNumber:              batch.BatchNumber,
		ZipCode:                  cluster.ZipCode,
		OrderCount:               len(tour.Stops),
		TotalDistanceKm:          math.Round(totalDistanceKm*100) / 100,
		EstimatedDurationMinutes: totalDuration,
		Method:                   tour.Method,
	}, nil
}

// resolveStops geocodes every order in the cluster. The chain never fails;
// degraded resolutions are logged so the precision loss is observable.
func (g *BatchGenerator) resolveStops(ctx context.Context, cluster ZipCluster) []Stop {
	stops := make([]Stop, 0, len(cluster.Orders))
	degraded := 0

	for _, o := range cluster.Orders {
		stop := Stop{
			OrderID:       o.OrderID,
			ConsumerID:    o.ConsumerID,
			StreetAddress: o.StreetAddress,
			ZipCode:       o.ZipCode,
		}

		if g.Resolver != nil {
			loc := g.Resolver.Resolve(ctx, o.StreetAddress, o.ZipCode)
			coords := loc.Coords
			stop.Coords = &coords
			stop.GeocodeSource = loc.Source
			if loc.Source != ports.GeocodeSourceProvider {
				degraded++
			}
		}

		stops = append(stops, stop)
	}

	if degraded > 0 {
		obs.Warn(ctx, "pipeline.geocode",
			fmt.Errorf("zip %s: %d/%d stops resolved via centroid fallback", cluster.ZipCode, degraded, len(stops)))
	}

	return stops
}

// fetchMatrix asks the routing engine for the pairwise matrix. Any failure
// degrades to nil and the optimizer falls back to haversine.
func (g *BatchGenerator) fetchMatrix(ctx context.Context, zip string, stops []Stop) *ports.TravelMatrix {
	if g.Matrix == nil || len(stops) < 2 {
		return nil
	}

	coords := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		if s.Coords == nil {
			return nil
		}
		coords = append(coords, *s.Coords)
	}

	matrix, err := g.Matrix.Table(ctx, coords)
	if err != nil {
		obs.Warn(ctx, "pipeline.matrix", fmt.Errorf("zip %s: %v; using haversine fallback", zip, err))
		return nil
	}
	return matrix
}

// fetchPath asks the routing engine for the drivable route through the
// final visiting order, for per-leg durations and the polyline. Only worth
// asking when the matrix path already succeeded.
func (g *BatchGenerator) fetchPath(ctx context.Context, tour OptimizedTour) *ports.RoutePath {
	if g.Router == nil || tour.Method != domain.MethodOSRMWith2Opt || len(tour.Stops) < 2 {
		return nil
	}

	coords := make([]domain.Coordinates, 0, len(tour.Stops))
	for _, s := range tour.Stops {
		if s.Coords == nil {
			return nil
		}
		coords = append(coords, *s.Coords)
	}

	path, err := g.Router.Route(ctx, coords)
	if err != nil {
		obs.Warn(ctx, "pipeline.route", fmt.Errorf("route fetch failed, using matrix durations: %v", err))
		return nil
	}
	if len(path.Legs) != len(tour.Stops)-1 {
		return nil
	}
	return path
}

func pickLegDurations(tour OptimizedTour, path *ports.RoutePath) []time.Duration {
	if path != nil {
		out := make([]time.Duration, len(path.Legs))
		for i, leg := range path.Legs {
			out[i] = time.Duration(leg.DurationSeconds * float64(time.Second))
		}
		return out
	}
	if tour.LegDurationsSeconds != nil {
		out := make([]time.Duration, len(tour.LegDurationsSeconds))
		for i, secs := range tour.LegDurationsSeconds {
			out[i] = time.Duration(secs * float64(time.Second))
		}
		return out
	}
	return nil
}

// totalDurationMinutes spans first arrival to completion of the last stop.
func totalDurationMinutes(stops []Stop, arrivals []time.Time) int {
	if len(stops) == 0 || len(arrivals) == 0 {
		return 0
	}
	total := arrivals[len(arrivals)-1].Sub(arrivals[0]) + StopServiceTime
	return int(math.Round(total.Minutes()))
}

// persistCluster writes stops, route, and order updates for a created
// batch. The writes are not one transaction (see compensate); the first
// failure aborts the cluster.
func (g *BatchGenerator) persistCluster(
	ctx context.Context,
	batch *domain.DeliveryBatch,
	tour OptimizedTour,
	path *ports.RoutePath,
	arrivals []time.Time,
	totalDistanceKm float64,
) error {
	stops := make([]domain.BatchStop, 0, len(tour.Stops))
	for i, s := range tour.Stops {
		stops = append(stops, domain.BatchStop{
			StopID:           uuid.New(),
			BatchID:          batch.BatchID,
			OrderID:          s.OrderID,
			Seq:              i + 1,
			StreetAddress:    s.StreetAddress,
			ZipCode:          s.ZipCode,
			Coords:           s.Coords,
			Status:           "pending",
			EstimatedArrival: arrivals[i],
		})
	}
	if err := g.Batches.CreateStops(ctx, stops); err != nil {
		return fmt.Errorf("create stops: %w", err)
	}

	route := &domain.Route{
		RouteID:              uuid.New(),
		BatchID:              batch.BatchID,
		TotalDistanceKm:      totalDistanceKm,
		TotalDurationMinutes: batch.EstimatedDurationMinutes,
		Method:               tour.Method,
	}
	if path != nil && path.Geometry != "" {
		geometry := path.Geometry
		route.Geometry = &geometry
	}
	if err := g.Batches.CreateRoute(ctx, route); err != nil {
		return fmt.Errorf("create route: %w", err)
	}

	for i, s := range tour.Stops {
		boxCode := domain.BoxCode(batch.BatchNumber, i+1)
		if err := g.Orders.ConfirmAndAssign(ctx, s.OrderID, batch.BatchID, boxCode); err != nil {
			return fmt.Errorf("confirm orders: %w", err)
		}
	}

	return nil
}

// compensate undoes a half-written cluster: orders back to pending, then
// the batch row (stops and route cascade). Best effort: a failed
// compensation is logged for manual cleanup and the cluster error stands.
func (g *BatchGenerator) compensate(ctx context.Context, batchID uuid.UUID) {
	if err := g.Orders.ResetBatchAssignment(ctx, batchID); err != nil {
		obs.Warn(ctx, "pipeline.compensate", fmt.Errorf("reset orders for batch %s: %v", batchID, err))
	}
	if err := g.Batches.DeleteBatch(ctx, batchID); err != nil {
		obs.Warn(ctx, "pipeline.compensate", fmt.Errorf("delete batch %s: %v", batchID, err))
	}
}

// notifyConfirmed dispatches one event per batched order. Fire-and-forget:
// failures are logged and never affect the generation response.
func (g *BatchGenerator) notifyConfirmed(ctx context.Context, batch *domain.DeliveryBatch, tour OptimizedTour, arrivals []time.Time) {
	if g.Notifier == nil {
		return
	}

	for i, s := range tour.Stops {
		event := ports.OrderConfirmedEvent{
			OrderID:          s.OrderID,
			ConsumerID:       s.ConsumerID,
			BatchID:          batch.BatchID,
			BoxCode:          domain.BoxCode(batch.BatchNumber, i+1),
			DeliveryDate:     batch.DeliveryDate.Format("2006-01-02"),
			EstimatedArrival: arrivals[i].Format(time.RFC3339),
		}
		if err := g.Notifier.OrderConfirmed(ctx, event); err != nil {
			obs.Warn(ctx, "pipeline.notify", fmt.Errorf("order %s: %v", s.OrderID, err))
		}
	}
}

func sortSummaries(batches []BatchSummary) {
	sort.Slice(batches, func(a, b int) bool {
		return batches[a].BatchNumber < batches[b].BatchNumber
	})
}
