package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yegors/co-takeoff/internal/airport"
	"github.com/yegors/co-takeoff/internal/api"
	"github.com/yegors/co-takeoff/internal/batch"
	"github.com/yegors/co-takeoff/internal/config"
	"github.com/yegors/co-takeoff/internal/detect"
	"github.com/yegors/co-takeoff/internal/filter"
	"github.com/yegors/co-takeoff/internal/flightlog"
	"github.com/yegors/co-takeoff/internal/report"
	"github.com/yegors/co-takeoff/internal/storage/sqlite"
	"github.com/yegors/co-takeoff/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	dataDir := flag.String("data", "", "Directory of flight logs (overrides [data] dir)")
	runwaysPath := flag.String("runways", "", "Runway GeoJSON asset (overrides [runways] geojson_path)")
	outputPath := flag.String("output", "", "Report file (overrides [output] report_path)")
	serve := flag.Bool("serve", false, "Serve the results API after processing until interrupted (enables storage)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *runwaysPath != "" {
		cfg.Runways.GeoJSONPath = *runwaysPath
	}
	if *outputPath != "" {
		cfg.Output.ReportPath = *outputPath
	}
	if *serve {
		cfg.Storage.Enabled = true
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, *serve, log))
}

func run(cfg *config.Config, serve bool, log *logger.Logger) int {
	defer log.Sync()

	log.Info("Starting co-takeoff",
		logger.String("version", Version),
		logger.String("data_dir", cfg.Data.Dir),
		logger.String("runways", cfg.Runways.GeoJSONPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Every track needs runway data, a broken asset aborts the run
	runways, err := airport.Load(cfg.Runways.GeoJSONPath)
	if err != nil {
		log.Error("Failed to load runway geometry", logger.Error(err))
		return 1
	}
	log.Info("Runway geometry loaded",
		logger.Int("airports", len(runways.Airports())),
		logger.Int("runways", runways.Count()))

	paths, err := flightlog.Discover(cfg.Data.Dir, cfg.Data.Patterns)
	if err != nil {
		log.Error("Failed to list flight logs", logger.Error(err))
		return 1
	}
	log.Info("Flight logs found", logger.Int("count", len(paths)))

	var store *sqlite.ResultStorage
	var sink batch.Sink
	if cfg.Storage.Enabled {
		store, err = sqlite.NewResultStorage(cfg.Storage.SQLitePath, log)
		if err != nil {
			log.Error("Failed to open result storage", logger.Error(err))
			return 1
		}
		defer store.Close()
		sink = store
	}

	service := batch.NewService(batch.Config{
		Workers: cfg.Batch.Workers,
		Read:    flightlog.Options{AltitudeColumn: cfg.Data.AltitudeColumn},
		Conditioner: filter.Conditioner{
			WindowSize:      cfg.Smoothing.WindowSize,
			EdgeMode:        filter.EdgeMode(cfg.Smoothing.EdgeMode),
			RPMLowPassAlpha: cfg.Smoothing.RPMLowPassAlpha,
		},
		Detect: detect.Config{
			GroundSpeedTakeoffKts: cfg.Detection.GroundSpeedTakeoffKts,
			EngineRPMRunup:        cfg.Detection.EngineRPMRunup,
			EngineRPMTakeoff:      cfg.Detection.EngineRPMTakeoff,
			AltitudeToleranceFt:   cfg.Detection.AltitudeToleranceFt,
			OnGround:              detect.OnGroundStrategy(cfg.Detection.OnGround),
			OnRunway:              detect.OnRunwayStrategy(cfg.Detection.OnRunway),
		},
	}, runways, sink, log)

	records, err := service.Run(ctx, paths)
	if err != nil {
		log.Warn("Batch interrupted, unprocessed files are reported as None", logger.Error(err))
	}

	if err := report.WriteFile(cfg.Output.ReportPath, records); err != nil {
		log.Error("Failed to write report", logger.Error(err))
		return 1
	}
	log.Info("Report written", logger.String("path", cfg.Output.ReportPath))

	if !serve || ctx.Err() != nil {
		return 0
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(store, log).Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("HTTP server error", logger.String("addr", addr), logger.Error(err))
		return 1
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
		return 1
	}
	log.Info("Server fully stopped")
	return 0
}
