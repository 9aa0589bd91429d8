// Package detect finds the sample at which an aircraft began its takeoff roll.
package detect

import (
	"errors"
	"fmt"
	"time"

	"github.com/yegors/co-takeoff/internal/flightlog"
	"github.com/yegors/co-takeoff/internal/geofence"
	"github.com/yegors/co-takeoff/internal/spike"
	"github.com/yegors/co-takeoff/internal/timestamp"
	"github.com/yegors/co-takeoff/pkg/logger"
)

// ErrNoRunwayData is returned with a none result when the airport has no runways
var ErrNoRunwayData = errors.New("no runway data for airport")

// OnGroundStrategy selects the reference altitude of the on-ground test
type OnGroundStrategy string

const (
	OnGroundAuto           OnGroundStrategy = "auto"
	OnGroundFieldElevation OnGroundStrategy = "field_elevation" // elevation of the first runway
	OnGroundLastStationary OnGroundStrategy = "last_stationary" // altitude of the last zero ground speed sample
)

// OnRunwayStrategy selects how the aircraft is judged to be on the runway
type OnRunwayStrategy string

const (
	OnRunwayAuto     OnRunwayStrategy = "auto"
	OnRunwayGeofence OnRunwayStrategy = "geofence" // position inside a runway polygon
	OnRunwayRunup    OnRunwayStrategy = "runup"    // preflight run-up completed earlier
	OnRunwayAny      OnRunwayStrategy = "any"      // either of the above
)

// Config holds the detection thresholds and strategies
type Config struct {
	GroundSpeedTakeoffKts float64
	EngineRPMRunup        float64
	EngineRPMTakeoff      float64
	AltitudeToleranceFt   float64

	OnGround OnGroundStrategy
	OnRunway OnRunwayStrategy
}

// DefaultConfig returns the thresholds tuned for a Cessna 182T
func DefaultConfig() Config {
	return Config{
		GroundSpeedTakeoffKts: 25,
		EngineRPMRunup:        1500,
		EngineRPMTakeoff:      1200,
		AltitudeToleranceFt:   50,
		OnGround:              OnGroundAuto,
		OnRunway:              OnRunwayAuto,
	}
}

// resolve replaces the auto strategies with field elevation and geofence
func (c Config) resolve() Config {
	if c.OnGround == OnGroundAuto || c.OnGround == "" {
		c.OnGround = OnGroundFieldElevation
	}
	if c.OnRunway == OnRunwayAuto || c.OnRunway == "" {
		c.OnRunway = OnRunwayGeofence
	}
	return c
}

// Result is the outcome of a detection run
type Result struct {
	Timestamp *time.Time // absent if no takeoff was found
	Index     int        // sample index, -1 if none
	RunwayID  int        // index into the airport's runways, -1 if none or not applicable
}

// None is the result of a track without a detectable takeoff
func None() Result {
	return Result{Index: -1, RunwayID: -1}
}

// Detected reports whether a takeoff was found
func (r Result) Detected() bool {
	return r.Timestamp != nil
}

// Detect scans the conditioned track forward and returns the first sample
// that is on the ground, on a runway and past a takeoff threshold.
//
// A track whose airport has no runways yields None with ErrNoRunwayData. A
// matched sample whose timestamp cannot be normalized yields None with the
// normalization error.
func Detect(track *flightlog.Track, runways []geofence.Runway, cfg Config) (Result, error) {
	if len(runways) == 0 {
		return None(), ErrNoRunwayData
	}
	cfg = cfg.resolve()
	th := spike.Thresholds{Rise: cfg.EngineRPMRunup, Fall: cfg.EngineRPMTakeoff}

	var (
		latch          spike.Latch
		stationaryAlt  float64
		seenStationary bool
	)

	for i := range track.Samples {
		s := &track.Samples[i]

		if s.GroundSpeed == 0 {
			stationaryAlt, seenStationary = s.Altitude, true
			latch = latch.Advance(i, s.EngineRPM, th)
		}

		// a. on the ground
		var onGround bool
		switch cfg.OnGround {
		case OnGroundLastStationary:
			onGround = seenStationary && geofence.OnGround(s.Altitude, stationaryAlt, cfg.AltitudeToleranceFt)
		default:
			onGround = geofence.OnGround(s.Altitude, runways[0].ElevationFt, cfg.AltitudeToleranceFt)
		}
		if !onGround {
			continue
		}

		// b. on a runway
		runwayID := -1
		var onRunway bool
		switch cfg.OnRunway {
		case OnRunwayRunup:
			onRunway = latch.CompletedBefore(i)
		case OnRunwayAny:
			runwayID = geofence.LocateRunway(s.Latitude, s.Longitude, runways)
			onRunway = runwayID >= 0 || latch.CompletedBefore(i)
		default:
			runwayID = geofence.LocateRunway(s.Latitude, s.Longitude, runways)
			onRunway = runwayID >= 0
		}
		if !onRunway {
			continue
		}

		// c. takeoff power or speed
		if !(s.GroundSpeed > cfg.GroundSpeedTakeoffKts || s.EngineRPM > cfg.EngineRPMTakeoff) {
			continue
		}

		ts, err := timestamp.Normalize(s.LocalDate, s.LocalTime, s.UTCOffset)
		if err != nil {
			return None(), fmt.Errorf("sample %d: %w", i, err)
		}
		return Result{Timestamp: &ts, Index: i, RunwayID: runwayID}, nil
	}

	return None(), nil
}

// Detector runs detections with a fixed configuration and logs the outcome
type Detector struct {
	config Config
	logger *logger.Logger
}

// NewDetector creates a new detector
func NewDetector(cfg Config, log *logger.Logger) *Detector {
	return &Detector{
		config: cfg,
		logger: log.Named("detect"),
	}
}

// Config returns the detector configuration
func (d *Detector) Config() Config {
	return d.config
}

// Detect runs Detect with the detector's configuration
func (d *Detector) Detect(track *flightlog.Track, runways []geofence.Runway) (Result, error) {
	result, err := Detect(track, runways, d.config)

	switch {
	case errors.Is(err, ErrNoRunwayData):
		d.logger.Debug("No runways for airport",
			logger.String("file", track.Name),
			logger.String("airport", track.AirportID))
	case err != nil:
		d.logger.Warn("Takeoff sample has no usable timestamp",
			logger.String("file", track.Name),
			logger.Error(err))
	case result.Detected():
		d.logger.Debug("Takeoff detected",
			logger.String("file", track.Name),
			logger.Int("index", result.Index),
			logger.Int("runway", result.RunwayID),
			logger.Time("timestamp", *result.Timestamp))
	default:
		d.logger.Debug("No takeoff detected",
			logger.String("file", track.Name),
			logger.Int("samples", track.Len()))
	}

	return result, err
}
