// Package airport loads runway boundaries and field elevations from a GeoJSON asset.
package airport

import (
	"errors"
	"fmt"
	"os"
	"sort"

	geojson "github.com/paulmach/go.geojson"

	"github.com/yegors/co-takeoff/internal/geofence"
)

// Feature property keys
const (
	PropAirportID   = "airportId"
	PropElevationFt = "elevationFtMSL"
	PropName        = "name"
)

// ErrGeometryParse is returned when the runway asset is malformed
var ErrGeometryParse = errors.New("runway geometry parse error")

// Database holds the runways of every airport in the asset, in file order
type Database struct {
	runways map[string][]geofence.Runway
	count   int
}

// Load reads the runway asset at path
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runway asset: %w", err)
	}

	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Parse decodes a GeoJSON FeatureCollection. Every feature needs a Polygon or
// MultiPolygon geometry and the airportId and elevationFtMSL properties. Each
// polygon of a MultiPolygon becomes a runway of its own.
func Parse(data []byte) (*Database, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryParse, err)
	}

	db := &Database{runways: make(map[string][]geofence.Runway)}
	for i, f := range fc.Features {
		runways, err := parseFeature(f)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrGeometryParse, i, err)
		}
		for _, r := range runways {
			db.runways[r.AirportID] = append(db.runways[r.AirportID], r)
			db.count++
		}
	}

	return db, nil
}

func parseFeature(f *geojson.Feature) ([]geofence.Runway, error) {
	if f == nil || f.Geometry == nil {
		return nil, fmt.Errorf("missing geometry")
	}

	id, err := f.PropertyString(PropAirportID)
	if err != nil || id == "" {
		return nil, fmt.Errorf("missing %s property", PropAirportID)
	}
	elevation, err := f.PropertyFloat64(PropElevationFt)
	if err != nil {
		return nil, fmt.Errorf("airport %s: missing %s property", id, PropElevationFt)
	}
	name := f.PropertyMustString(PropName, "")

	var polygons [][][][]float64
	switch {
	case f.Geometry.IsPolygon():
		polygons = [][][][]float64{f.Geometry.Polygon}
	case f.Geometry.IsMultiPolygon():
		polygons = f.Geometry.MultiPolygon
	default:
		return nil, fmt.Errorf("airport %s: unsupported geometry type %s", id, f.Geometry.Type)
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("airport %s: empty geometry", id)
	}

	runways := make([]geofence.Runway, 0, len(polygons))
	for _, polygon := range polygons {
		if len(polygon) == 0 {
			return nil, fmt.Errorf("airport %s: polygon without rings", id)
		}
		rings := make([][]geofence.Point, len(polygon))
		for j, ring := range polygon {
			rings[j], err = parseRing(ring)
			if err != nil {
				return nil, fmt.Errorf("airport %s: ring %d: %v", id, j, err)
			}
		}
		runways = append(runways, geofence.NewRunway(id, name, rings[0], rings[1:], elevation))
	}
	return runways, nil
}

func parseRing(ring [][]float64) ([]geofence.Point, error) {
	points := make([]geofence.Point, 0, len(ring))
	for _, pos := range ring {
		if len(pos) < 2 {
			return nil, fmt.Errorf("position with %d coordinates", len(pos))
		}
		lon, lat := pos[0], pos[1]
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("position (%v, %v) out of range", lon, lat)
		}
		points = append(points, geofence.Point{lon, lat})
	}

	// The closing vertex repeats the first one
	if n := len(points); n > 1 && points[0] == points[n-1] {
		points = points[:n-1]
	}
	if len(points) < 3 {
		return nil, fmt.Errorf("ring with %d distinct vertices", len(points))
	}
	return points, nil
}

// Runways returns the runways of an airport in asset order. Unknown airports
// have none.
func (db *Database) Runways(airportID string) []geofence.Runway {
	runways := db.runways[airportID]
	if len(runways) == 0 {
		return nil
	}
	out := make([]geofence.Runway, len(runways))
	copy(out, runways)
	return out
}

// Airports returns the sorted identifiers of all airports in the asset
func (db *Database) Airports() []string {
	ids := make([]string, 0, len(db.runways))
	for id := range db.runways {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the total number of runways
func (db *Database) Count() int {
	return db.count
}
