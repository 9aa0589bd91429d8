// Package geofence tests aircraft positions against runway polygons.
package geofence

import "math"

// Point is a longitude/latitude pair in degrees. Index 0 is longitude.
type Point [2]float64

// Runway is a closed polygon boundary together with the elevation of its field
type Runway struct {
	AirportID   string
	Name        string
	Boundary    []Point   // outer ring, closing vertex optional
	Holes       [][]Point // inner rings excluded from the runway area
	ElevationFt float64   // field elevation, feet MSL

	bounds    [2]Point // min, max
	hasBounds bool
}

// NewRunway creates a runway and precomputes its bounding box
func NewRunway(airportID, name string, boundary []Point, holes [][]Point, elevationFt float64) Runway {
	r := Runway{
		AirportID:   airportID,
		Name:        name,
		Boundary:    boundary,
		Holes:       holes,
		ElevationFt: elevationFt,
	}
	r.bounds, r.hasBounds = extent(boundary)
	return r
}

func extent(ring []Point) ([2]Point, bool) {
	if len(ring) == 0 {
		return [2]Point{}, false
	}
	lo := Point{math.Inf(1), math.Inf(1)}
	hi := Point{math.Inf(-1), math.Inf(-1)}
	for _, p := range ring {
		lo[0], lo[1] = math.Min(lo[0], p[0]), math.Min(lo[1], p[1])
		hi[0], hi[1] = math.Max(hi[0], p[0]), math.Max(hi[1], p[1])
	}
	return [2]Point{lo, hi}, true
}

// Contains reports whether the position lies inside the runway boundary and
// outside all of its holes
func (r *Runway) Contains(lat, lon float64) bool {
	p := Point{lon, lat}
	if r.hasBounds {
		if p[0] < r.bounds[0][0] || p[0] > r.bounds[1][0] || p[1] < r.bounds[0][1] || p[1] > r.bounds[1][1] {
			return false
		}
	}
	if !PointInPolygon(p, r.Boundary) {
		return false
	}
	for _, hole := range r.Holes {
		if PointInPolygon(p, hole) {
			return false
		}
	}
	return true
}

// PointInPolygon uses the even-odd rule. A horizontal edge interval is
// half-open, so a point on a shared edge belongs to exactly one of two
// adjacent polygons.
func PointInPolygon(p Point, pts []Point) bool {
	inside := false
	for i := 0; i < len(pts); i++ {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		if (p0[1] <= p[1] && p[1] < p1[1]) || (p1[1] <= p[1] && p[1] < p0[1]) {
			x := p0[0] + (p[1]-p0[1])*(p1[0]-p0[0])/(p1[1]-p0[1])
			if x > p[0] {
				inside = !inside
			}
		}
	}
	return inside
}

// LocateRunway returns the index of the first runway containing the
// position, or -1. Overlapping runways resolve to the lowest index.
func LocateRunway(lat, lon float64, runways []Runway) int {
	for i := range runways {
		if runways[i].Contains(lat, lon) {
			return i
		}
	}
	return -1
}

// OnGround reports whether altitude is within tolerance of the field elevation
func OnGround(altitude, fieldElevation, tolerance float64) bool {
	return math.Abs(altitude-fieldElevation) < tolerance
}
