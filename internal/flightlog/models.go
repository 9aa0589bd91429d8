package flightlog

import (
	"errors"
	"fmt"
	"time"

	"github.com/yegors/co-takeoff/internal/timestamp"
)

// Column names as written in the header row of the recorded logs
const (
	ColLocalDate   = "Lcl Date"
	ColLocalTime   = "Lcl Time"
	ColUTCOffset   = "UTCOfst"
	ColLatitude    = "Latitude"
	ColLongitude   = "Longitude"
	ColAltB        = "AltB"
	ColAltMSL      = "AltMSL"
	ColAltGPS      = "AltGPS"
	ColIAS         = "IAS"
	ColGroundSpeed = "GndSpd"
	ColPitch       = "Pitch"
	ColRoll        = "Roll"
	ColHeading     = "HDG"
	ColEngineRPM   = "E1 RPM"
)

var (
	// ErrMissingColumn is returned when a required column is absent from the header
	ErrMissingColumn = errors.New("missing column")
	// ErrBadRow is returned when a data row cannot be parsed
	ErrBadRow = errors.New("malformed row")
	// ErrOutOfOrder is returned when sample timestamps go backwards
	ErrOutOfOrder = errors.New("samples out of time order")
)

// Sample is one recorded row of a flight log
type Sample struct {
	Row       int // 1-based line number in the source file
	DataIndex int // 0-based position among all data rows, skipped rows included

	LocalDate string
	LocalTime string
	UTCOffset string

	Latitude    float64
	Longitude   float64
	Altitude    float64 // feet, from the configured altitude column
	GroundSpeed float64 // knots
	EngineRPM   float64

	// Carried through unmodified
	Heading    float64 // magnetic, degrees
	HasHeading bool    // false when the log has no heading or the cell is blank
	Pitch      float64
	Roll       float64
	IAS        float64
	AltGPS     float64
	AltB       float64
	AltMSL     float64
}

// Track is the ordered sequence of samples of one flight log
type Track struct {
	Name      string // file name
	AirportID string
	Samples   []Sample
}

// Channel selects one of the conditioned sensor columns of a track
type Channel int

const (
	ChannelGroundSpeed Channel = iota
	ChannelEngineRPM
	ChannelAltitude
)

func (c Channel) String() string {
	switch c {
	case ChannelGroundSpeed:
		return "ground_speed"
	case ChannelEngineRPM:
		return "engine_rpm"
	case ChannelAltitude:
		return "altitude"
	default:
		return "unknown"
	}
}

// Len returns the number of samples
func (t *Track) Len() int {
	return len(t.Samples)
}

// Values copies one channel out of the track
func (t *Track) Values(c Channel) []float64 {
	out := make([]float64, len(t.Samples))
	for i := range t.Samples {
		out[i] = *t.field(i, c)
	}
	return out
}

// SetValues writes a channel back into the track. The caller guarantees
// len(values) == t.Len().
func (t *Track) SetValues(c Channel, values []float64) {
	for i := range t.Samples {
		*t.field(i, c) = values[i]
	}
}

func (t *Track) field(i int, c Channel) *float64 {
	s := &t.Samples[i]
	switch c {
	case ChannelGroundSpeed:
		return &s.GroundSpeed
	case ChannelEngineRPM:
		return &s.EngineRPM
	case ChannelAltitude:
		return &s.Altitude
	}
	panic(fmt.Sprintf("unhandled channel %d", c))
}

// CheckOrder verifies that local timestamps never decrease. Samples whose
// date/time fields cannot be parsed are skipped.
func (t *Track) CheckOrder() error {
	var prev *Sample
	var prevTime time.Time

	for i := range t.Samples {
		s := &t.Samples[i]
		ts, err := timestamp.ParseLocal(s.LocalDate, s.LocalTime)
		if err != nil {
			continue
		}
		if prev != nil && ts.Before(prevTime) {
			return fmt.Errorf("%w: row %d (%s %s) is before row %d (%s %s)", ErrOutOfOrder,
				s.Row, s.LocalDate, s.LocalTime, prev.Row, prev.LocalDate, prev.LocalTime)
		}
		prev, prevTime = s, ts
	}
	return nil
}
