// Package routing talks to an OSRM instance for travel matrices and
// drivable routes. OSRM being down is an expected condition here, not a
// failure: callers hold a haversine fallback for every code path.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"farm-delivery-service/internal/adapters/httpretry"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/obs"
	"farm-delivery-service/internal/ports"
)

// maxTableLocations matches OSRM's default max-table-size. Clusters larger
// than this skip the table call and use great-circle distances.
const maxTableLocations = 100

// OSRMClient implements TravelMatrixProvider and RouteFetcher against the
// OSRM HTTP API. Safe for concurrent use.
type OSRMClient struct {
	session *http.Client
	baseURL string
	profile string
}

func NewOSRMClient(baseURL string) *OSRMClient {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMClient{
		session: &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
	}
}

// coordPath renders coordinates as OSRM's semicolon-joined lon,lat list,
// rounded to 6 decimals.
func coordPath(coords []domain.Coordinates) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		r := c.Round6()
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", r.Lon, r.Lat))
	}
	return strings.Join(parts, ";")
}

type tableResponse struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// Table fetches the pairwise duration/distance matrix for the given
// coordinates. Any transport error, non-Ok code, or malformed cell yields
// (nil, err); it never panics and never blocks past the client timeout.
func (o *OSRMClient) Table(ctx context.Context, coords []domain.Coordinates) (_ *ports.TravelMatrix, err error) {
	defer obs.Time(ctx, "osrm.Table")(&err)

	n := len(coords)
	if n < 2 {
		return nil, errors.New("osrm table: need at least 2 coordinates")
	}
	if n > maxTableLocations {
		return nil, fmt.Errorf("osrm table: %d locations exceeds cap of %d", n, maxTableLocations)
	}

	endpoint := fmt.Sprintf("%s/table/v1/%s/%s", o.baseURL, o.profile, coordPath(coords))

	resp, err := httpretry.DoWithRetry(ctx, o.session, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("annotations", "duration,distance")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("osrm table: %w", err)
	}
	defer resp.Body.Close()

	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("osrm table: decode response: %w", err)
	}
	if tr.Code != "Ok" {
		return nil, fmt.Errorf("osrm table: engine returned code %q", tr.Code)
	}
	if len(tr.Durations) != n || len(tr.Distances) != n {
		return nil, fmt.Errorf(
			"osrm table: row counts durations=%d distances=%d, want %d",
			len(tr.Durations), len(tr.Distances), n,
		)
	}

	matrix := &ports.TravelMatrix{
		DistancesMeters:  make([][]float64, n),
		DurationsSeconds: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		if len(tr.Durations[i]) != n || len(tr.Distances[i]) != n {
			return nil, fmt.Errorf("osrm table: row %d has wrong width", i)
		}
		matrix.DistancesMeters[i] = make([]float64, n)
		matrix.DurationsSeconds[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			// Unroutable pairs come back as null cells.
			if tr.Distances[i][j] == nil || tr.Durations[i][j] == nil {
				return nil, fmt.Errorf("osrm table: null cell at (%d,%d)", i, j)
			}
			matrix.DistancesMeters[i][j] = *tr.Distances[i][j]
			matrix.DurationsSeconds[i][j] = *tr.Durations[i][j]
		}
	}

	return matrix, nil
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route fetches a single drivable route through the coordinates in the
// given order, with per-leg metrics and the encoded polyline.
func (o *OSRMClient) Route(ctx context.Context, coords []domain.Coordinates) (_ *ports.RoutePath, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	if len(coords) < 2 {
		return nil, errors.New("osrm route: need at least 2 coordinates")
	}

	endpoint := fmt.Sprintf("%s/route/v1/%s/%s", o.baseURL, o.profile, coordPath(coords))

	resp, err := httpretry.DoWithRetry(ctx, o.session, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("overview", "full")
		q.Set("steps", "false")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("osrm route: %w", err)
	}
	defer resp.Body.Close()

	var rr routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("osrm route: decode response: %w", err)
	}
	if rr.Code != "Ok" || len(rr.Routes) == 0 {
		return nil, fmt.Errorf("osrm route: engine returned code %q with %d routes", rr.Code, len(rr.Routes))
	}

	best := rr.Routes[0]
	if len(best.Legs) != len(coords)-1 {
		return nil, fmt.Errorf("osrm route: got %d legs for %d stops", len(best.Legs), len(coords))
	}

	path := &ports.RoutePath{
		Legs:            make([]ports.RouteLeg, 0, len(best.Legs)),
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
		Geometry:        best.Geometry,
	}
	for _, leg := range best.Legs {
		path.Legs = append(path.Legs, ports.RouteLeg{
			DistanceMeters:  leg.Distance,
			DurationSeconds: leg.Duration,
		})
	}

	return path, nil
}

var _ ports.TravelMatrixProvider = (*OSRMClient)(nil)
var _ ports.RouteFetcher = (*OSRMClient)(nil)
