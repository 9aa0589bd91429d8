package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Roughly runway 13/31 at Palo Alto
func kpao() Runway {
	return NewRunway("KPAO", "13/31", []Point{
		{-122.1170, 37.4630},
		{-122.1100, 37.4560},
		{-122.1090, 37.4570},
		{-122.1160, 37.4640},
		{-122.1170, 37.4630},
	}, nil, 7)
}

func square(x0, y0, x1, y1 float64) []Point {
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestContains(t *testing.T) {
	r := kpao()
	assert.True(t, r.Contains(37.4600, -122.1130))
	assert.False(t, r.Contains(37.4700, -122.1130))
	assert.False(t, r.Contains(37.4600, -122.1000))
}

func TestContainsWithoutBounds(t *testing.T) {
	r := Runway{Boundary: square(0, 0, 10, 10)}
	assert.True(t, r.Contains(5, 5))
	assert.False(t, r.Contains(15, 5))
}

func TestContainsHole(t *testing.T) {
	r := NewRunway("X", "", square(0, 0, 10, 10), [][]Point{square(4, 4, 6, 6)}, 0)
	assert.True(t, r.Contains(2, 2))
	assert.False(t, r.Contains(5, 5))
}

func TestPointInPolygonSharedEdge(t *testing.T) {
	left := square(0, 0, 1, 1)
	right := square(1, 0, 2, 1)
	p := Point{1, 0.5}

	// Exactly one of two polygons sharing an edge claims a point on it
	assert.NotEqual(t, PointInPolygon(p, left), PointInPolygon(p, right))
}

func TestPointInPolygonDegenerate(t *testing.T) {
	assert.False(t, PointInPolygon(Point{0, 0}, nil))
	assert.False(t, PointInPolygon(Point{0, 0}, []Point{{0, 0}}))
}

func TestLocateRunway(t *testing.T) {
	runways := []Runway{
		NewRunway("X", "a", square(0, 0, 10, 10), nil, 0),
		NewRunway("X", "b", square(5, 5, 20, 20), nil, 0),
		NewRunway("X", "c", square(30, 30, 40, 40), nil, 0),
	}

	tests := []struct {
		name     string
		lat, lon float64
		want     int
	}{
		{"first only", 2, 2, 0},
		{"overlap resolves to lowest index", 7, 7, 0},
		{"second only", 15, 15, 1},
		{"third", 35, 35, 2},
		{"outside all", 25, 25, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocateRunway(tt.lat, tt.lon, runways)
			assert.Equal(t, tt.want, got)
			// Pure: same inputs, same answer
			assert.Equal(t, got, LocateRunway(tt.lat, tt.lon, runways))
		})
	}

	assert.Equal(t, -1, LocateRunway(5, 5, nil))
}

func TestOnGround(t *testing.T) {
	assert.True(t, OnGround(40, 7, 50))
	assert.True(t, OnGround(-20, 7, 50))
	assert.False(t, OnGround(57, 7, 50))
	assert.False(t, OnGround(-43, 7, 50))
	assert.False(t, OnGround(100, 7, 50))
}
