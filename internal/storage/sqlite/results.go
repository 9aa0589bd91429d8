package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yegors/co-takeoff/internal/report"
	"github.com/yegors/co-takeoff/pkg/logger"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no result is stored for a file
var ErrNotFound = errors.New("result not found")

// ResultFilter narrows a result listing
type ResultFilter struct {
	AirportID    string
	DetectedOnly bool
	Limit        int // 0 = no limit
	Offset       int
}

// ResultStorage is a SQLite-based store of per-flight takeoff results
type ResultStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewResultStorage opens (or creates) the result database at dbPath
func NewResultStorage(dbPath string, log *logger.Logger) (*ResultStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	// Open the database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", p, err)
		}
	}

	// Create tables if they don't exist
	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &ResultStorage{
		db:     db,
		logger: storageLogger,
	}, nil
}

// Close closes the database connection
func (s *ResultStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Debug("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS takeoff_results (
			file TEXT PRIMARY KEY,
			airport_id TEXT NOT NULL,
			samples INTEGER NOT NULL,
			takeoff_unix INTEGER,       -- NULL when no takeoff was detected
			takeoff_nanos INTEGER,
			sample_index INTEGER NOT NULL,
			runway_id INTEGER NOT NULL,
			runway_name TEXT,
			latitude REAL,
			longitude REAL,
			ground_speed REAL,
			engine_rpm REAL,
			magnetic_heading REAL,
			true_heading REAL,
			error TEXT,
			processed_at_unix INTEGER NOT NULL,
			processed_at_nanos INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create takeoff_results table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_takeoff_results_airport ON takeoff_results(airport_id)`)
	if err != nil {
		return fmt.Errorf("failed to create airport_id index: %w", err)
	}

	return nil
}

// SaveResult inserts the record, replacing an earlier result for the same file
func (s *ResultStorage) SaveResult(ctx context.Context, r *report.Record) error {
	// Seconds and nanoseconds are stored apart; UnixNano overflows outside 1678-2262
	var takeoff, takeoffNanos sql.NullInt64
	if r.Timestamp != nil {
		takeoff = sql.NullInt64{Int64: r.Timestamp.Unix(), Valid: true}
		takeoffNanos = sql.NullInt64{Int64: int64(r.Timestamp.Nanosecond()), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO takeoff_results (
			file, airport_id, samples, takeoff_unix, takeoff_nanos, sample_index, runway_id, runway_name,
			latitude, longitude, ground_speed, engine_rpm, magnetic_heading, true_heading,
			error, processed_at_unix, processed_at_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET
			airport_id = excluded.airport_id,
			samples = excluded.samples,
			takeoff_unix = excluded.takeoff_unix,
			takeoff_nanos = excluded.takeoff_nanos,
			sample_index = excluded.sample_index,
			runway_id = excluded.runway_id,
			runway_name = excluded.runway_name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			ground_speed = excluded.ground_speed,
			engine_rpm = excluded.engine_rpm,
			magnetic_heading = excluded.magnetic_heading,
			true_heading = excluded.true_heading,
			error = excluded.error,
			processed_at_unix = excluded.processed_at_unix,
			processed_at_nanos = excluded.processed_at_nanos
	`,
		r.File, r.AirportID, r.Samples, takeoff, takeoffNanos, r.Index, r.RunwayID, r.RunwayName,
		r.Latitude, r.Longitude, r.GroundSpeed, r.EngineRPM, r.MagneticHeading, r.TrueHeading,
		r.Error, r.ProcessedAt.Unix(), r.ProcessedAt.Nanosecond(),
	)
	if err != nil {
		return fmt.Errorf("failed to store result for %s: %w", r.File, err)
	}
	return nil
}

const selectColumns = `
	SELECT file, airport_id, samples, takeoff_unix, takeoff_nanos, sample_index, runway_id, runway_name,
		latitude, longitude, ground_speed, engine_rpm, magnetic_heading, true_heading,
		error, processed_at_unix, processed_at_nanos
	FROM takeoff_results`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*report.Record, error) {
	var (
		r              report.Record
		takeoff        sql.NullInt64
		takeoffNanos   sql.NullInt64
		runwayName     sql.NullString
		errText        sql.NullString
		processedAt    int64
		processedNanos int64
	)
	err := row.Scan(&r.File, &r.AirportID, &r.Samples, &takeoff, &takeoffNanos, &r.Index, &r.RunwayID, &runwayName,
		&r.Latitude, &r.Longitude, &r.GroundSpeed, &r.EngineRPM, &r.MagneticHeading, &r.TrueHeading,
		&errText, &processedAt, &processedNanos)
	if err != nil {
		return nil, err
	}

	if takeoff.Valid {
		ts := time.Unix(takeoff.Int64, takeoffNanos.Int64).UTC()
		r.Timestamp = &ts
	}
	r.RunwayName = runwayName.String
	r.Error = errText.String
	r.ProcessedAt = time.Unix(processedAt, processedNanos).UTC()
	return &r, nil
}

// GetResult returns the stored result for a file
func (s *ResultStorage) GetResult(ctx context.Context, file string) (*report.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE file = ?`, file)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result for %s: %w", file, err)
	}
	return r, nil
}

// GetResults lists stored results ordered by file name
func (s *ResultStorage) GetResults(ctx context.Context, filter ResultFilter) ([]*report.Record, error) {
	query := selectColumns + ` WHERE 1 = 1`
	var args []any

	if filter.AirportID != "" {
		query += ` AND airport_id = ?`
		args = append(args, filter.AirportID)
	}
	if filter.DetectedOnly {
		query += ` AND takeoff_unix IS NOT NULL`
	}
	query += ` ORDER BY file`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	records := []*report.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return records, nil
}
