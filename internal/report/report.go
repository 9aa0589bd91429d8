// Package report holds the per-flight result record and writes the text report.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yegors/co-takeoff/internal/timestamp"
)

// NoneToken stands in for the timestamp of a flight without a detected takeoff
const NoneToken = "None"

// Record is the flat result of processing one flight log
type Record struct {
	File      string     `json:"file"`
	AirportID string     `json:"airport_id"`
	Samples   int        `json:"samples"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Index     int        `json:"index"`
	RunwayID  int        `json:"runway_id"`

	// Takeoff sample details, zero when nothing was detected
	RunwayName      string  `json:"runway_name,omitempty"`
	Latitude        float64 `json:"latitude,omitempty"`
	Longitude       float64 `json:"longitude,omitempty"`
	GroundSpeed     float64 `json:"ground_speed_kts,omitempty"`
	EngineRPM       float64 `json:"engine_rpm,omitempty"`
	MagneticHeading float64 `json:"magnetic_heading,omitempty"`
	TrueHeading     float64 `json:"true_heading,omitempty"`

	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// None returns the record of a flight without a detected takeoff
func None(file string) Record {
	return Record{File: file, Index: -1, RunwayID: -1}
}

// Detected reports whether the record carries a takeoff
func (r *Record) Detected() bool {
	return r.Timestamp != nil
}

// Line renders the report line "<file>, <runwayId>, <timestamp|None>, <index>"
func (r *Record) Line() string {
	ts := NoneToken
	if r.Timestamp != nil {
		ts = timestamp.FormatPOSIX(*r.Timestamp)
	}
	return fmt.Sprintf("%s, %d, %s, %d", r.File, r.RunwayID, ts, r.Index)
}

// Write writes one line per record, in order
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for i := range records {
		if _, err := bw.WriteString(records[i].Line() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the report to path, replacing any previous report
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := Write(f, records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
