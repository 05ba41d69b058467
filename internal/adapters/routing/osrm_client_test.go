package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-delivery-service/internal/domain"
)

func osrmServer(t *testing.T, handler http.HandlerFunc) *OSRMClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOSRMClient(srv.URL)
}

func testCoords(n int) []domain.Coordinates {
	coords := make([]domain.Coordinates, 0, n)
	for i := 0; i < n; i++ {
		coords = append(coords, domain.Coordinates{Lat: 33.40 + float64(i)*0.01, Lon: -112.07})
	}
	return coords
}

func TestCoordPathFormat(t *testing.T) {
	path := coordPath([]domain.Coordinates{
		{Lat: 33.4512345678, Lon: -112.0784},
		{Lat: 33.46, Lon: -112.05},
	})
	// lon,lat order, 6 decimals, semicolon-joined.
	assert.Equal(t, "-112.078400,33.451235;-112.050000,33.460000", path)
}

func TestTableDecodesMatrix(t *testing.T) {
	client := osrmServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/table/v1/driving/"), "path %s", r.URL.Path)
		assert.Equal(t, "duration,distance", r.URL.Query().Get("annotations"))
		fmt.Fprint(w, `{
			"code": "Ok",
			"durations": [[0, 120, 300], [110, 0, 180], [290, 170, 0]],
			"distances": [[0, 1500, 4000], [1400, 0, 2500], [3900, 2400, 0]]
		}`)
	})

	matrix, err := client.Table(context.Background(), testCoords(3))
	require.NoError(t, err)

	require.Len(t, matrix.DistancesMeters, 3)
	require.Len(t, matrix.DurationsSeconds, 3)
	assert.Equal(t, 1500.0, matrix.DistancesMeters[0][1])
	assert.Equal(t, 1400.0, matrix.DistancesMeters[1][0], "asymmetric cells preserved")
	assert.Equal(t, 180.0, matrix.DurationsSeconds[1][2])
}

func TestTableEngineError(t *testing.T) {
	client := osrmServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": "NoTable"}`)
	})

	_, err := client.Table(context.Background(), testCoords(2))
	assert.ErrorContains(t, err, `code "NoTable"`)
}

func TestTableNullCell(t *testing.T) {
	client := osrmServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"code": "Ok",
			"durations": [[0, null], [110, 0]],
			"distances": [[0, 1500], [1400, 0]]
		}`)
	})

	_, err := client.Table(context.Background(), testCoords(2))
	assert.ErrorContains(t, err, "null cell")
}

func TestTableServerErrorAfterRetries(t *testing.T) {
	var hits int
	client := osrmServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Table(context.Background(), testCoords(2))
	require.Error(t, err)
	assert.Equal(t, 3, hits, "5xx responses are retried before giving up")
}

func TestTableTooFewAndTooManyCoordinates(t *testing.T) {
	client := NewOSRMClient("http://127.0.0.1:1")

	_, err := client.Table(context.Background(), testCoords(1))
	assert.ErrorContains(t, err, "at least 2")

	_, err = client.Table(context.Background(), testCoords(maxTableLocations+1))
	assert.ErrorContains(t, err, "exceeds cap")
}

func TestRouteDecodesLegsAndGeometry(t *testing.T) {
	client := osrmServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/route/v1/driving/"), "path %s", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		fmt.Fprint(w, `{
			"code": "Ok",
			"routes": [{
				"distance": 4200.5,
				"duration": 610,
				"geometry": "_p~iF~ps|U_ulLnnqC",
				"legs": [{"distance": 1500, "duration": 220}, {"distance": 2700.5, "duration": 390}]
			}]
		}`)
	})

	path, err := client.Route(context.Background(), testCoords(3))
	require.NoError(t, err)

	assert.Equal(t, 4200.5, path.DistanceMeters)
	assert.Equal(t, 610.0, path.DurationSeconds)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC", path.Geometry)
	require.Len(t, path.Legs, 2)
	assert.Equal(t, 220.0, path.Legs[0].DurationSeconds)
}

func TestRouteLegCountMismatch(t *testing.T) {
	client := osrmServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"code": "Ok",
			"routes": [{"distance": 1500, "duration": 220, "geometry": "abc", "legs": [{"distance": 1500, "duration": 220}]}]
		}`)
	})

	_, err := client.Route(context.Background(), testCoords(3))
	assert.ErrorContains(t, err, "legs")
}
