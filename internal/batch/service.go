package batch

/*
TAKEOFF DETECTION PIPELINE
==========================

Every flight log goes through the same steps, independently of the others:

 1. READ       parse the CSV (optionally zstd compressed) into a Track
 2. CHECK      samples must not go back in time
 3. CONDITION  smooth ground speed, engine RPM and altitude in place
 4. RUNWAYS    look up the airport's runways from the file name suffix
 5. DETECT     forward scan for the first on-ground, on-runway sample past
               the takeoff thresholds
 6. RECORD     build the flat result record, converting the magnetic heading
               at the takeoff sample into a true heading when one was logged.
               The reported index counts every data row of the file,
               including rows skipped for lack of a GPS fix.

Tracks are processed by a bounded pool of workers. A failure in any step only
affects its own file: the record is a "None" line carrying the error text, and
the remaining files are processed as usual. Records keep the input order.
*/

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yegors/co-takeoff/internal/detect"
	"github.com/yegors/co-takeoff/internal/filter"
	"github.com/yegors/co-takeoff/internal/flightlog"
	"github.com/yegors/co-takeoff/internal/geofence"
	"github.com/yegors/co-takeoff/internal/physics"
	"github.com/yegors/co-takeoff/internal/report"
	"github.com/yegors/co-takeoff/pkg/logger"
)

// RunwaySource provides the runways of an airport
type RunwaySource interface {
	Runways(airportID string) []geofence.Runway
}

// Sink receives every record once it is built
type Sink interface {
	SaveResult(ctx context.Context, record *report.Record) error
}

// Config contains pipeline settings
type Config struct {
	Workers     int
	Read        flightlog.Options
	Conditioner filter.Conditioner
	Detect      detect.Config
}

// Service runs the detection pipeline over a set of flight logs
type Service struct {
	config   Config
	runways  RunwaySource
	detector *detect.Detector
	sink     Sink
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a new pipeline. sink may be nil.
func NewService(cfg Config, runways RunwaySource, sink Sink, log *logger.Logger) *Service {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Service{
		config:   cfg,
		runways:  runways,
		detector: detect.NewDetector(cfg.Detect, log),
		sink:     sink,
		logger:   log.Named("batch"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run processes the files and returns one record per path, in the order of
// paths. When ctx is cancelled the files not yet started get a None record
// and ctx.Err() is returned with the records.
func (s *Service) Run(ctx context.Context, paths []string) ([]report.Record, error) {
	start := time.Now()
	records := make([]report.Record, len(paths))

	var eg errgroup.Group
	eg.SetLimit(s.config.Workers)

	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				records[i] = s.failed(filepath.Base(path), "", err)
				return nil
			}
			records[i] = s.ProcessFile(path)
			s.save(ctx, &records[i])
			return nil
		})
	}
	_ = eg.Wait()

	detected := 0
	for i := range records {
		if records[i].Detected() {
			detected++
		}
	}
	s.logger.Info("Batch complete",
		logger.Int("files", len(paths)),
		logger.Int("detected", detected),
		logger.Int("workers", s.config.Workers),
		logger.Duration("elapsed", time.Since(start)))

	return records, ctx.Err()
}

// ProcessFile reads one flight log and runs the detection on it
func (s *Service) ProcessFile(path string) report.Record {
	name := filepath.Base(path)
	s.logger.Info("Reading " + name)

	track, err := flightlog.ReadFile(path, s.config.Read)
	if err != nil {
		return s.failed(name, flightlog.AirportID(name), err)
	}
	return s.Process(track)
}

// Process conditions the track in place and runs the detection on it
func (s *Service) Process(track *flightlog.Track) report.Record {
	if err := track.CheckOrder(); err != nil {
		return s.failed(track.Name, track.AirportID, err)
	}

	if err := s.config.Conditioner.Condition(track); err != nil {
		return s.failed(track.Name, track.AirportID, err)
	}

	runways := s.runways.Runways(track.AirportID)
	result, err := s.detector.Detect(track, runways)

	record := report.None(track.Name)
	record.AirportID = track.AirportID
	record.Samples = track.Len()
	record.ProcessedAt = s.now()

	switch {
	case errors.Is(err, detect.ErrNoRunwayData):
		// Not a failure, the airport is simply unknown
		return record
	case err != nil:
		record.Error = err.Error()
		return record
	case !result.Detected():
		return record
	}

	sample := track.Samples[result.Index]
	record.Timestamp = result.Timestamp
	record.Index = sample.DataIndex
	record.RunwayID = result.RunwayID
	if result.RunwayID >= 0 {
		record.RunwayName = runways[result.RunwayID].Name
	}
	record.Latitude = sample.Latitude
	record.Longitude = sample.Longitude
	record.GroundSpeed = sample.GroundSpeed
	record.EngineRPM = sample.EngineRPM

	if sample.HasHeading {
		record.MagneticHeading = sample.Heading
		declination, err := physics.CalculateMagneticVariation(sample.Latitude, sample.Longitude, sample.Altitude, *result.Timestamp)
		if err != nil {
			s.logger.Debug("Magnetic variation unavailable",
				logger.String("file", track.Name),
				logger.Error(err))
		} else {
			record.TrueHeading = physics.MagneticToTrue(sample.Heading, declination)
		}
	}

	s.logger.Info("Takeoff detected",
		logger.String("file", track.Name),
		logger.String("airport", track.AirportID),
		logger.Int("index", record.Index),
		logger.Int("runway", record.RunwayID),
		logger.Time("timestamp", *record.Timestamp))

	return record
}

func (s *Service) failed(name, airportID string, err error) report.Record {
	s.logger.Warn("Failed to process flight log",
		logger.String("file", name),
		logger.Error(err))

	record := report.None(name)
	record.AirportID = airportID
	record.Error = err.Error()
	record.ProcessedAt = s.now()
	return record
}

func (s *Service) save(ctx context.Context, record *report.Record) {
	if s.sink == nil {
		return
	}
	if err := s.sink.SaveResult(ctx, record); err != nil {
		s.logger.Warn("Failed to store result",
			logger.String("file", record.File),
			logger.Error(err))
	}
}
