package flightlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Options controls how a log is parsed
type Options struct {
	AltitudeColumn string // column copied into Sample.Altitude, defaults to AltMSL
}

// zstdFile closes both the decoder and the underlying file
type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// Open opens a flight log. Files ending in .zst are decompressed transparently.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(bufio.NewReader(f), zstd.WithDecoderConcurrency(0))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		return zstdFile{Decoder: zr, f: f}, nil
	}

	return f, nil
}

// ReadFile reads and parses the flight log at path
func ReadFile(path string, opts Options) (*Track, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Read(r, filepath.Base(path), opts)
}

// Read parses a flight log. The first line is the recorder's metadata line,
// further lines starting with '#' (units) are skipped, then comes the header
// row naming the columns. Every other non-blank line is a sample.
func Read(r io.Reader, name string, opts Options) (*Track, error) {
	altColumn := opts.AltitudeColumn
	if altColumn == "" {
		altColumn = ColAltMSL
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	track := &Track{
		Name:      name,
		AirportID: AirportID(name),
	}

	var cols map[string]int
	first := true
	dataRow := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadRow, name, err)
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			continue
		}
		if len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), "#") {
			continue
		}

		if cols == nil {
			cols, err = headerIndex(record, altColumn)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			continue
		}

		index := dataRow
		dataRow++

		sample, ok, err := parseRow(record, cols, altColumn)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrBadRow, name, line, err)
		}
		if !ok {
			continue
		}
		sample.Row = line
		sample.DataIndex = index
		track.Samples = append(track.Samples, sample)
	}

	if cols == nil {
		return nil, fmt.Errorf("%w: %s: no header row", ErrMissingColumn, name)
	}

	return track, nil
}

func requiredColumns(altColumn string) []string {
	return []string{
		ColLocalDate, ColLocalTime, ColUTCOffset,
		ColLatitude, ColLongitude,
		ColGroundSpeed, ColEngineRPM, altColumn,
	}
}

func headerIndex(record []string, altColumn string) (map[string]int, error) {
	cols := make(map[string]int, len(record))
	for i, name := range record {
		cols[strings.TrimSpace(name)] = i
	}

	for _, name := range requiredColumns(altColumn) {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

// parseRow returns ok == false for rows with blank required cells; the
// recorder writes those before it has a GPS fix. Required cells must hold
// finite numbers.
func parseRow(record []string, cols map[string]int, altColumn string) (Sample, bool, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	for _, name := range requiredColumns(altColumn) {
		if cell(name) == "" {
			return Sample{}, false, nil
		}
	}

	var err error
	number := func(name string, required bool) float64 {
		s := cell(name)
		if s == "" || err != nil {
			return 0
		}
		v, perr := strconv.ParseFloat(s, 64)
		if perr == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			perr = fmt.Errorf("non-finite value %q", s)
		}
		if perr != nil {
			if required {
				err = fmt.Errorf("column %q: %v", name, perr)
			}
			return 0
		}
		return v
	}

	s := Sample{
		LocalDate:   cell(ColLocalDate),
		LocalTime:   cell(ColLocalTime),
		UTCOffset:   cell(ColUTCOffset),
		Latitude:    number(ColLatitude, true),
		Longitude:   number(ColLongitude, true),
		Altitude:    number(altColumn, true),
		GroundSpeed: number(ColGroundSpeed, true),
		EngineRPM:   number(ColEngineRPM, true),
		Heading:     number(ColHeading, false),
		Pitch:       number(ColPitch, false),
		Roll:        number(ColRoll, false),
		IAS:         number(ColIAS, false),
		AltGPS:      number(ColAltGPS, false),
		AltB:        number(ColAltB, false),
		AltMSL:      number(ColAltMSL, false),
	}
	if err != nil {
		return Sample{}, false, err
	}
	if v, perr := strconv.ParseFloat(cell(ColHeading), 64); perr == nil {
		s.HasHeading = !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	return s, true, nil
}

// AirportID extracts the airport identifier from a log file name: the last
// '_' separated token of the name without its extensions.
// "log_200305_KPAO.csv" -> "KPAO"
func AirportID(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, ".zst")
	base = strings.TrimSuffix(base, ".csv")
	parts := strings.Split(base, "_")
	return parts[len(parts)-1]
}

// Discover lists the files in dir matching any of patterns, sorted by name
// and without duplicates
func Discover(dir string, patterns []string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}
