package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
)

// In-memory port implementations shared by the pipeline tests.

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  []*domain.Order
	listErr error

	confirmErrFor map[uuid.UUID]error
	confirmed     map[uuid.UUID]string // order id -> box code
	resets        []uuid.UUID          // batch ids passed to ResetBatchAssignment
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:        orders,
		confirmErrFor: map[uuid.UUID]error{},
		confirmed:     map[uuid.UUID]string{},
	}
}

func (r *fakeOrderRepo) ListPendingByDate(ctx context.Context, date time.Time) ([]*domain.Order, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.orders, nil
}

func (r *fakeOrderRepo) ConfirmAndAssign(ctx context.Context, orderID, batchID uuid.UUID, boxCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.confirmErrFor[orderID]; err != nil {
		return err
	}
	r.confirmed[orderID] = boxCode
	return nil
}

func (r *fakeOrderRepo) ResetBatchAssignment(ctx context.Context, batchID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, batchID)
	return nil
}

type fakeBatchRepo struct {
	mu      sync.Mutex
	nextNum int

	batches map[uuid.UUID]*domain.DeliveryBatch
	stops   map[uuid.UUID][]domain.BatchStop
	routes  map[uuid.UUID]*domain.Route
	deleted []uuid.UUID

	createStopsErr error
	createRouteErr error
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{
		nextNum: 1,
		batches: map[uuid.UUID]*domain.DeliveryBatch{},
		stops:   map[uuid.UUID][]domain.BatchStop{},
		routes:  map[uuid.UUID]*domain.Route{},
	}
}

func (r *fakeBatchRepo) NextBatchNumber(ctx context.Context, date time.Time) (int, error) {
	return r.nextNum, nil
}

func (r *fakeBatchRepo) CreateBatch(ctx context.Context, batch *domain.DeliveryBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *batch
	r.batches[batch.BatchID] = &cp
	return nil
}

func (r *fakeBatchRepo) CreateStops(ctx context.Context, stops []domain.BatchStop) error {
	if r.createStopsErr != nil {
		return r.createStopsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stops {
		r.stops[s.BatchID] = append(r.stops[s.BatchID], s)
	}
	return nil
}

func (r *fakeBatchRepo) CreateRoute(ctx context.Context, route *domain.Route) error {
	if r.createRouteErr != nil {
		return r.createRouteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *route
	r.routes[route.BatchID] = &cp
	return nil
}

func (r *fakeBatchRepo) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, batchID)
	delete(r.stops, batchID)
	delete(r.routes, batchID)
	r.deleted = append(r.deleted, batchID)
	return nil
}

func (r *fakeBatchRepo) ListByDate(ctx context.Context, date time.Time) ([]*domain.DeliveryBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.DeliveryBatch, 0, len(r.batches))
	for _, b := range r.batches {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBatchRepo) Exists(ctx context.Context, batchID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.batches[batchID]
	return ok, nil
}

// Claim mirrors the conditional update: it succeeds only while the batch is
// pending and unassigned, under the repo lock.
func (r *fakeBatchRepo) Claim(ctx context.Context, batchID, driverID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok || b.Status != domain.BatchStatusPending || b.DriverID != nil {
		return false, nil
	}
	d := driverID
	b.Status = domain.BatchStatusAssigned
	b.DriverID = &d
	return true, nil
}

type fakeResolver struct {
	coords map[string]domain.Coordinates // keyed by street address
}

func (f *fakeResolver) Resolve(ctx context.Context, address, zipCode string) ports.ResolvedLocation {
	if c, ok := f.coords[address]; ok {
		return ports.ResolvedLocation{Coords: c, Source: ports.GeocodeSourceProvider}
	}
	return ports.ResolvedLocation{
		Coords: domain.Coordinates{Lat: 33.4484, Lon: -112.0740},
		Source: ports.GeocodeSourceRegionalDefault,
	}
}

type fakeMatrixProvider struct {
	err error
}

func (f *fakeMatrixProvider) Table(ctx context.Context, coords []domain.Coordinates) (*ports.TravelMatrix, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := len(coords)
	m := &ports.TravelMatrix{
		DistancesMeters:  make([][]float64, n),
		DurationsSeconds: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		m.DistancesMeters[i] = make([]float64, n)
		m.DurationsSeconds[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			km := domain.HaversineKm(coords[i], coords[j])
			m.DistancesMeters[i][j] = km * 1000
			m.DurationsSeconds[i][j] = km / 30.0 * 3600
		}
	}
	return m, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []ports.OrderConfirmedEvent
}

func (f *fakeNotifier) OrderConfirmed(ctx context.Context, event ports.OrderConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}
