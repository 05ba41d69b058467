// Package geocode implements the address resolution fallback chain:
// live provider -> ZIP centroid table -> regional default.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"farm-delivery-service/internal/adapters/httpretry"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSProvider resolves free-text addresses through the OpenRouteService
// geocode search endpoint with a 1-result limit. Every failure mode
// (transport errors included) collapses into "unavailable" so the chain
// can degrade to ZIP centroids.
type ORSProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	country string
}

func NewORSProvider(apiKey, baseURL string) *ORSProvider {
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}
	return &ORSProvider{
		session: &http.Client{Timeout: 8 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
		country: "US",
	}
}

// normalize collapses whitespace for stable query and cache keys.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (o *ORSProvider) Geocode(ctx context.Context, address, zipCode string) (domain.Coordinates, bool) {
	if o.apiKey == "" {
		return domain.Coordinates{}, false
	}

	text := normalize(address)
	if zipCode != "" && !strings.Contains(text, zipCode) {
		text = text + " " + zipCode
	}
	if text == "" {
		return domain.Coordinates{}, false
	}

	endpoint := o.baseURL + "/geocode/search"

	resp, err := httpretry.DoWithRetry(ctx, o.session, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", o.apiKey)
		req.Header.Set("Accept", "application/json")

		q := req.URL.Query()
		q.Set("text", text)
		q.Set("boundary.country", o.country)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		obs.Warn(ctx, "geocode.provider", fmt.Errorf("lookup %q: %w", text, err))
		return domain.Coordinates{}, false
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		obs.Warn(ctx, "geocode.provider", fmt.Errorf("decode response for %q: %w", text, err))
		return domain.Coordinates{}, false
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, false
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		obs.Warn(ctx, "geocode.provider", fmt.Errorf("invalid coordinate pair for %q", text))
		return domain.Coordinates{}, false
	}

	// GeoJSON order is [lon, lat].
	return domain.Coordinates{Lat: coords[1], Lon: coords[0]}, true
}
