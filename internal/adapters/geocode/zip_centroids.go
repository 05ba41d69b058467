package geocode

import (
	"encoding/json"
	"fmt"
	"os"

	"farm-delivery-service/internal/domain"
)

// ZipCentroidTable maps ZIP codes to approximate centroids (~1 km accuracy).
// It is immutable after construction; lookups are read-only and safe for
// concurrent use.
type ZipCentroidTable struct {
	centroids map[string]domain.Coordinates
	fallback  domain.Coordinates
}

// Downtown Phoenix: the coarse regional default when even the ZIP is
// unknown. Low precision beats no coordinates; batches must still form.
var phoenixDefault = domain.Coordinates{Lat: 33.4484, Lon: -112.0740}

// Phoenix-metro centroids covering the current delivery footprint.
var phoenixCentroids = map[string]domain.Coordinates{
	"85003": {Lat: 33.4512, Lon: -112.0784},
	"85004": {Lat: 33.4555, Lon: -112.0697},
	"85006": {Lat: 33.4649, Lon: -112.0484},
	"85007": {Lat: 33.4469, Lon: -112.0892},
	"85008": {Lat: 33.4627, Lon: -111.9844},
	"85009": {Lat: 33.4418, Lon: -112.1225},
	"85013": {Lat: 33.5098, Lon: -112.0830},
	"85014": {Lat: 33.5094, Lon: -112.0570},
	"85015": {Lat: 33.5081, Lon: -112.1005},
	"85016": {Lat: 33.5083, Lon: -112.0302},
	"85018": {Lat: 33.4957, Lon: -111.9843},
	"85020": {Lat: 33.5633, Lon: -112.0559},
	"85031": {Lat: 33.4947, Lon: -112.1700},
	"85033": {Lat: 33.4935, Lon: -112.2125},
	"85041": {Lat: 33.3875, Lon: -112.1093},
	"85044": {Lat: 33.3382, Lon: -112.0051},
	"85051": {Lat: 33.5594, Lon: -112.1332},
	"85201": {Lat: 33.4328, Lon: -111.8449},
	"85251": {Lat: 33.4932, Lon: -111.9179},
	"85281": {Lat: 33.4269, Lon: -111.9290},
	"85282": {Lat: 33.3937, Lon: -111.9295},
	"85301": {Lat: 33.5319, Lon: -112.1780},
	"85302": {Lat: 33.5675, Lon: -112.1780},
	"85345": {Lat: 33.5722, Lon: -112.2450},
	"85353": {Lat: 33.4219, Lon: -112.2768},
}

// NewZipCentroidTable builds an immutable table from the given mapping.
func NewZipCentroidTable(centroids map[string]domain.Coordinates, regionalDefault domain.Coordinates) *ZipCentroidTable {
	copied := make(map[string]domain.Coordinates, len(centroids))
	for zip, c := range centroids {
		copied[zip] = c
	}
	return &ZipCentroidTable{centroids: copied, fallback: regionalDefault}
}

// DefaultTable returns the built-in Phoenix-metro centroid table.
func DefaultTable() *ZipCentroidTable {
	return NewZipCentroidTable(phoenixCentroids, phoenixDefault)
}

// TableFromJSON loads a centroid table from a JSON file of the form
// {"85003": {"lat": 33.45, "lon": -112.07}, ...}, merged over the built-in
// defaults so a partial override file is enough.
func TableFromJSON(path string) (*ZipCentroidTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("zip centroids: read %q: %w", path, err)
	}

	var entries map[string]struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("zip centroids: parse %q: %w", path, err)
	}

	merged := make(map[string]domain.Coordinates, len(phoenixCentroids)+len(entries))
	for zip, c := range phoenixCentroids {
		merged[zip] = c
	}
	for zip, c := range entries {
		merged[zip] = domain.Coordinates{Lat: c.Lat, Lon: c.Lon}
	}

	return NewZipCentroidTable(merged, phoenixDefault), nil
}

// Lookup returns the centroid for a ZIP code.
func (t *ZipCentroidTable) Lookup(zipCode string) (domain.Coordinates, bool) {
	c, ok := t.centroids[zipCode]
	return c, ok
}

// RegionalDefault returns the coarse fallback centroid.
func (t *ZipCentroidTable) RegionalDefault() domain.Coordinates {
	return t.fallback
}
