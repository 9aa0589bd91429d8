// Package timestamp converts the local date/time/offset triple recorded by
// the avionics into absolute UTC instants.
package timestamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts of the recorded date and time fields
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = DateLayout + " " + TimeLayout
)

// ErrMalformedTimestamp is returned when a date, time or offset field cannot be parsed
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// ParseLocal parses the wall-clock date and time fields as a naive time (UTC location)
func ParseLocal(localDate, localTime string) (time.Time, error) {
	s := strings.TrimSpace(localDate) + " " + strings.TrimSpace(localTime)
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date/time %q: %v", ErrMalformedTimestamp, s, err)
	}
	return t, nil
}

// ParseOffset parses a UTC offset written as ±HHMM (or ±HH:MM) and returns
// it as a signed duration
func ParseOffset(utcOffset string) (time.Duration, error) {
	s := strings.TrimSpace(utcOffset)
	bad := func() (time.Duration, error) {
		return 0, fmt.Errorf("%w: utc offset %q", ErrMalformedTimestamp, utcOffset)
	}

	var digits string
	switch {
	case len(s) == 5:
		digits = s[1:]
	case len(s) == 6 && s[3] == ':':
		digits = s[1:3] + s[4:]
	default:
		return bad()
	}

	sign := time.Duration(1)
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return bad()
	}

	for _, c := range digits {
		if c < '0' || c > '9' {
			return bad()
		}
	}

	hours, _ := strconv.Atoi(digits[:2])
	minutes, _ := strconv.Atoi(digits[2:])
	if hours > 23 || minutes > 59 {
		return bad()
	}

	return sign * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}

// Normalize returns the absolute instant for a recorded sample. The wall-clock
// fields are read as UTC and the signed offset is added to them, so "-0500"
// lands five hours earlier than "+0000" for the same fields.
func Normalize(localDate, localTime, utcOffset string) (time.Time, error) {
	naive, err := ParseLocal(localDate, localTime)
	if err != nil {
		return time.Time{}, err
	}

	offset, err := ParseOffset(utcOffset)
	if err != nil {
		return time.Time{}, err
	}

	return naive.Add(offset).UTC(), nil
}

// FormatPOSIX renders t as seconds since the epoch with one decimal place,
// e.g. "1583409600.0", rounded half up to the tenth of a second. Valid for
// any year time.Time can represent.
func FormatPOSIX(t time.Time) string {
	tenths := t.Unix()*10 + int64((t.Nanosecond()+50_000_000)/100_000_000)
	sign := ""
	if tenths < 0 {
		sign = "-"
		tenths = -tenths
	}
	return fmt.Sprintf("%s%d.%d", sign, tenths/10, tenths%10)
}
