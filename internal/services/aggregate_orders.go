package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/ports"
)

// ZipCluster is the unit of batching: all pending orders sharing one
// delivery ZIP code.
type ZipCluster struct {
	ZipCode string
	Orders  []*domain.Order
}

// Aggregation is the read-only result of demand grouping. Issues carries
// per-order problems (a missing ZIP code) that excluded an order from
// batching without failing the run.
type Aggregation struct {
	Clusters    []ZipCluster
	Issues      []string
	TotalOrders int
}

// AggregateOrders loads pending orders for a date and groups them by
// delivery ZIP. An empty order set is success with zero clusters, not an
// error. Clusters come back sorted by ZIP so batch numbering is stable
// across runs with the same input.
func AggregateOrders(ctx context.Context, repo ports.OrderRepository, date time.Time) (*Aggregation, error) {
	orders, err := repo.ListPendingByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: list pending: %w", err)
	}

	byZip := make(map[string][]*domain.Order)
	var issues []string

	for _, o := range orders {
		zip := strings.TrimSpace(o.ZipCode)
		if zip == "" {
			// Never silently dropped: the order is reported and skipped.
			issues = append(issues, fmt.Sprintf("order %s: profile has no ZIP code, excluded from batching", o.OrderID))
			continue
		}
		byZip[zip] = append(byZip[zip], o)
	}

	zips := make([]string, 0, len(byZip))
	for zip := range byZip {
		zips = append(zips, zip)
	}
	sort.Strings(zips)

	agg := &Aggregation{
		Clusters:    make([]ZipCluster, 0, len(zips)),
		Issues:      issues,
		TotalOrders: len(orders),
	}
	for _, zip := range zips {
		agg.Clusters = append(agg.Clusters, ZipCluster{ZipCode: zip, Orders: byZip[zip]})
	}

	return agg, nil
}
