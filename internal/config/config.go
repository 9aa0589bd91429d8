package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings
	Data      DataConfig      `toml:"data"`      // Flight log discovery and parsing settings
	Runways   RunwaysConfig   `toml:"runways"`   // Runway geometry asset settings
	Smoothing SmoothingConfig `toml:"smoothing"` // Sensor signal conditioning settings
	Detection DetectionConfig `toml:"detection"` // Takeoff detection thresholds and strategies
	Batch     BatchConfig     `toml:"batch"`     // Parallel processing settings
	Output    OutputConfig    `toml:"output"`    // Text report settings
	Storage   StorageConfig   `toml:"storage"`   // Result persistence settings
	Server    ServerConfig    `toml:"server"`    // Results API settings
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`        // Log level: "debug", "info", "warn", or "error"
	Format     string `toml:"format"`       // Log format: "json" (structured) or "console" (human-readable)
	FilePath   string `toml:"file_path"`    // Optional log file, rotated automatically (empty = stderr only)
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotate the log file after this many megabytes
	MaxBackups int    `toml:"max_backups"`  // Number of rotated files to keep (0 = keep all)
	MaxAgeDays int    `toml:"max_age_days"` // Delete rotated files older than this (0 = never)
}

// DataConfig contains settings for locating and reading flight logs
type DataConfig struct {
	Dir            string   `toml:"dir"`             // Directory holding the recorded flight logs
	Patterns       []string `toml:"patterns"`        // Glob patterns of files to process (e.g. "*.csv", "*.csv.zst")
	AltitudeColumn string   `toml:"altitude_column"` // Altitude column used for the on-ground test: "AltMSL" or "AltB"
}

// RunwaysConfig contains runway geometry settings
type RunwaysConfig struct {
	GeoJSONPath string `toml:"geojson_path"` // Path to the runway polygons GeoJSON FeatureCollection
}

// SmoothingConfig contains sensor noise suppression settings
type SmoothingConfig struct {
	WindowSize      int     `toml:"window_size"`        // Moving average window width in samples
	EdgeMode        string  `toml:"edge_mode"`          // Window handling at track edges: "zero" or "truncate"
	RPMLowPassAlpha float64 `toml:"rpm_low_pass_alpha"` // Extra low-pass stage on engine RPM, 0 disables (e.g. 0.9)
}

// DetectionConfig contains takeoff detection thresholds
type DetectionConfig struct {
	GroundSpeedTakeoffKts float64 `toml:"ground_speed_takeoff_kts"` // Ground speed above which the roll has started
	EngineRPMRunup        float64 `toml:"engine_rpm_runup"`         // RPM that marks the rising edge of the preflight run-up
	EngineRPMTakeoff      float64 `toml:"engine_rpm_takeoff"`       // RPM above which takeoff power is applied (also run-up falling edge)
	AltitudeToleranceFt   float64 `toml:"altitude_tolerance_ft"`    // Altitude error band for the on-ground test

	// Predicate strategies
	// on_ground: "auto", "field_elevation" or "last_stationary"
	// on_runway: "auto", "geofence", "runup" or "any"
	OnGround string `toml:"on_ground"`
	OnRunway string `toml:"on_runway"`
}

// BatchConfig contains parallel processing settings
type BatchConfig struct {
	Workers int `toml:"workers"` // Number of tracks processed concurrently (0 = number of CPUs)
}

// OutputConfig contains text report settings
type OutputConfig struct {
	ReportPath string `toml:"report_path"` // Path of the per-file summary report
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Enabled    bool   `toml:"enabled"`     // Store a result record per flight in SQLite
	SQLitePath string `toml:"sqlite_path"` // SQLite database file
}

// ServerConfig contains results API server configuration
type ServerConfig struct {
	Host             string `toml:"host"`                  // Host address to bind to
	Port             int    `toml:"port"`                  // HTTP port
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum keep-alive idle duration
}

// Default returns the configuration used when no file is present. The values
// match the Cessna 182T data set the thresholds were tuned on.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  32,
			MaxBackups: 3,
		},
		Data: DataConfig{
			Dir:            "data/cessna_182t",
			Patterns:       []string{"*.csv", "*.csv.zst"},
			AltitudeColumn: "AltMSL",
		},
		Runways: RunwaysConfig{
			GeoJSONPath: "data/geometry/runways.geojson",
		},
		Smoothing: SmoothingConfig{
			WindowSize: 5,
			EdgeMode:   "zero",
		},
		Detection: DetectionConfig{
			GroundSpeedTakeoffKts: 25,
			EngineRPMRunup:        1500,
			EngineRPMTakeoff:      1200,
			AltitudeToleranceFt:   50,
			OnGround:              "auto",
			OnRunway:              "auto",
		},
		Output: OutputConfig{
			ReportPath: "output.txt",
		},
		Storage: StorageConfig{
			SQLitePath: "data/takeoffs.db",
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 15,
			IdleTimeoutSecs:  60,
		},
	}
}

// Load loads the configuration from the specified file path. Keys missing
// from the file keep their default values.
func Load(path string) (*Config, error) {
	config := Default()

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference.
// An explicitly requested path must exist; otherwise the defaults are used when no file is found.
func LoadWithFallback(preferredPath string) (*Config, error) {
	if preferredPath != "" {
		return Load(preferredPath)
	}

	// List of paths to check in order of preference
	searchPaths := []string{
		"configs/config.toml",
		"config.toml",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
	}

	return Default(), nil
}

// Validate validates the configuration and fills in defaults for zero values
func (c *Config) Validate() error {
	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("data dir is required")
	}
	if len(c.Data.Patterns) == 0 {
		c.Data.Patterns = []string{"*.csv", "*.csv.zst"}
	}
	switch c.Data.AltitudeColumn {
	case "":
		c.Data.AltitudeColumn = "AltMSL"
	case "AltMSL", "AltB", "AltGPS":
	default:
		return fmt.Errorf("invalid altitude_column: %s (must be 'AltMSL', 'AltB' or 'AltGPS')", c.Data.AltitudeColumn)
	}

	if c.Runways.GeoJSONPath == "" {
		return fmt.Errorf("runways geojson_path is required")
	}

	if err := c.ValidateSmoothing(); err != nil {
		return err
	}

	if err := c.ValidateDetection(); err != nil {
		return err
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid batch workers: %d", c.Batch.Workers)
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = runtime.NumCPU()
	}

	if c.Output.ReportPath == "" {
		c.Output.ReportPath = "output.txt"
	}

	if c.Storage.Enabled && c.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required when storage is enabled")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// ValidateSmoothing validates the signal conditioning configuration
func (c *Config) ValidateSmoothing() error {
	if c.Smoothing.WindowSize < 1 {
		return fmt.Errorf("invalid smoothing window_size: %d (must be >= 1)", c.Smoothing.WindowSize)
	}

	switch c.Smoothing.EdgeMode {
	case "":
		c.Smoothing.EdgeMode = "zero"
	case "zero", "truncate":
	default:
		return fmt.Errorf("invalid smoothing edge_mode: %s (must be 'zero' or 'truncate')", c.Smoothing.EdgeMode)
	}

	// 0 disables the low-pass stage
	if a := c.Smoothing.RPMLowPassAlpha; a != 0 && (a <= 0 || a >= 1) {
		return fmt.Errorf("invalid rpm_low_pass_alpha: %v (must be in (0,1) or 0 to disable)", a)
	}

	return nil
}

// ValidateDetection validates the takeoff detection configuration
func (c *Config) ValidateDetection() error {
	d := &c.Detection

	if d.GroundSpeedTakeoffKts <= 0 {
		return fmt.Errorf("invalid ground_speed_takeoff_kts: %v", d.GroundSpeedTakeoffKts)
	}
	if d.EngineRPMTakeoff <= 0 {
		return fmt.Errorf("invalid engine_rpm_takeoff: %v", d.EngineRPMTakeoff)
	}
	if d.EngineRPMRunup <= d.EngineRPMTakeoff {
		return fmt.Errorf("engine_rpm_runup (%v) must be greater than engine_rpm_takeoff (%v)", d.EngineRPMRunup, d.EngineRPMTakeoff)
	}
	if d.AltitudeToleranceFt <= 0 {
		return fmt.Errorf("invalid altitude_tolerance_ft: %v", d.AltitudeToleranceFt)
	}

	switch d.OnGround {
	case "":
		d.OnGround = "auto"
	case "auto", "field_elevation", "last_stationary":
	default:
		return fmt.Errorf("invalid on_ground strategy: %s (must be 'auto', 'field_elevation' or 'last_stationary')", d.OnGround)
	}

	switch d.OnRunway {
	case "":
		d.OnRunway = "auto"
	case "auto", "geofence", "runup", "any":
	default:
		return fmt.Errorf("invalid on_runway strategy: %s (must be 'auto', 'geofence', 'runup' or 'any')", d.OnRunway)
	}

	return nil
}
