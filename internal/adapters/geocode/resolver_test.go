package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-delivery-service/internal/ports"
)

func geocodeServer(t *testing.T, handler http.HandlerFunc) *ORSProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewORSProvider("test-key", srv.URL)
}

func featurePayload(lon, lat float64) string {
	return fmt.Sprintf(`{"features":[{"geometry":{"coordinates":[%f,%f]}}]}`, lon, lat)
}

func TestResolveUsesProviderWhenAvailable(t *testing.T) {
	provider := geocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("size"))
		assert.Contains(t, r.URL.Query().Get("text"), "85003")
		fmt.Fprint(w, featurePayload(-112.0710, 33.4490))
	})

	loc := NewChainResolver(provider, nil).Resolve(context.Background(), "100 W Adams St", "85003")

	assert.Equal(t, ports.GeocodeSourceProvider, loc.Source)
	assert.InDelta(t, 33.4490, loc.Coords.Lat, 1e-6)
	assert.InDelta(t, -112.0710, loc.Coords.Lon, 1e-6)
}

func TestResolveProviderDownFallsToCentroid(t *testing.T) {
	provider := geocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	loc := NewChainResolver(provider, nil).Resolve(context.Background(), "100 W Adams St", "85003")

	want, ok := DefaultTable().Lookup("85003")
	require.True(t, ok)
	assert.Equal(t, ports.GeocodeSourceZipCentroid, loc.Source)
	assert.Equal(t, want, loc.Coords)
}

func TestResolveNoMatchFallsToCentroid(t *testing.T) {
	provider := geocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	})

	loc := NewChainResolver(provider, nil).Resolve(context.Background(), "1 Nowhere Ln", "85004")

	assert.Equal(t, ports.GeocodeSourceZipCentroid, loc.Source)
}

func TestResolveUnknownZipFallsToRegionalDefault(t *testing.T) {
	loc := NewChainResolver(nil, nil).Resolve(context.Background(), "1 Main St", "99999")

	assert.Equal(t, ports.GeocodeSourceRegionalDefault, loc.Source)
	assert.Equal(t, DefaultTable().RegionalDefault(), loc.Coords)
	assert.NotZero(t, loc.Coords.Lat, "the chain must never return empty coordinates")
}

func TestResolveNilProviderSkipsToCentroid(t *testing.T) {
	loc := NewChainResolver(nil, nil).Resolve(context.Background(), "100 W Adams St", "85006")
	assert.Equal(t, ports.GeocodeSourceZipCentroid, loc.Source)
}

func TestProviderWithoutKeyIsUnavailable(t *testing.T) {
	provider := NewORSProvider("", "http://127.0.0.1:1")
	_, ok := provider.Geocode(context.Background(), "100 W Adams St", "85003")
	assert.False(t, ok)
}
