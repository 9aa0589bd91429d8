package physics

import (
	"fmt"
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// FeetToMeters converts recorded altitudes for the magnetic model
const FeetToMeters = 0.3048

// NormalizeHeading wraps a heading into [0, 360)
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// CalculateMagneticVariation calculates the magnetic declination for a given position and time
// Returns declination in degrees (+East, -West)
func CalculateMagneticVariation(lat, lon, altFt float64, date time.Time) (float64, error) {
	// Create location from Geodetic coordinates
	loc := egm96.NewLocationGeodetic(lat, lon, altFt*FeetToMeters)

	// Calculate magnetic field
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0, fmt.Errorf("magnetic field at %.4f,%.4f on %s: %w", lat, lon, date.Format("2006-01-02"), err)
	}

	return mag.D(), nil
}

// MagneticToTrue converts a magnetic heading into a true heading given the declination (+East)
func MagneticToTrue(magneticDeg, declinationDeg float64) float64 {
	return NormalizeHeading(magneticDeg + declinationDeg)
}
