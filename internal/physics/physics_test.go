package physics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeading(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeHeading(360))
	assert.Equal(t, 350.0, NormalizeHeading(-10))
	assert.Equal(t, 10.0, NormalizeHeading(370))
	assert.Equal(t, 123.5, NormalizeHeading(123.5))
}

func TestMagneticToTrue(t *testing.T) {
	assert.InDelta(t, 323.5, MagneticToTrue(310.5, 13), 1e-9)
	assert.InDelta(t, 3.0, MagneticToTrue(350, 13), 1e-9)
	assert.InDelta(t, 355.0, MagneticToTrue(5, -10), 1e-9)
}

func TestCalculateMagneticVariation(t *testing.T) {
	date := time.Date(2020, 3, 5, 15, 0, 0, 0, time.UTC)
	decl, err := CalculateMagneticVariation(37.4611, -122.1150, 7, date)
	if err != nil {
		t.Skipf("magnetic model does not cover %s: %v", date, err)
	}
	// Palo Alto sits around 13 degrees east
	assert.InDelta(t, 13.3, decl, 2.5)
}
