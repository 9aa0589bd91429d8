package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeZeroOffsetMatchesUTCParse(t *testing.T) {
	got, err := Normalize("2020-03-05", "10:15:03", "+0000")
	require.NoError(t, err)

	want, err := time.Parse(DateTimeLayout, "2020-03-05 10:15:03")
	require.NoError(t, err)

	assert.True(t, want.Equal(got))
	assert.Equal(t, time.UTC, got.Location())
}

func TestNormalizeAddsOffset(t *testing.T) {
	base, err := Normalize("2020-03-05", "10:15:03", "+0000")
	require.NoError(t, err)

	west, err := Normalize("2020-03-05", "10:15:03", "-0500")
	require.NoError(t, err)
	assert.Equal(t, -5*time.Hour, west.Sub(base))

	east, err := Normalize("2020-03-05", "10:15:03", "+0530")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Hour+30*time.Minute, east.Sub(base))

	colon, err := Normalize("2020-03-05", "10:15:03", "-05:00")
	require.NoError(t, err)
	assert.True(t, colon.Equal(west))
}

func TestNormalizeCrossesMidnight(t *testing.T) {
	got, err := Normalize("2020-03-05", "02:00:00", "-0500")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 3, 4, 21, 0, 0, 0, time.UTC), got)
}

func TestNormalizeTrimsWhitespace(t *testing.T) {
	got, err := Normalize(" 2020-03-05", "10:15:03 ", " +0000 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 3, 5, 10, 15, 3, 0, time.UTC), got)
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name               string
		date, clock, offst string
	}{
		{"bad date", "05/03/2020", "10:15:03", "+0000"},
		{"bad time", "2020-03-05", "10h15", "+0000"},
		{"empty offset", "2020-03-05", "10:15:03", ""},
		{"no sign", "2020-03-05", "10:15:03", "0500"},
		{"letters", "2020-03-05", "10:15:03", "+05ab"},
		{"too long", "2020-03-05", "10:15:03", "+05000"},
		{"minutes", "2020-03-05", "10:15:03", "+0575"},
		{"colon after one digit", "2020-03-05", "10:15:03", "+0:500"},
		{"colon after three digits", "2020-03-05", "10:15:03", "+050:0"},
		{"two colons", "2020-03-05", "10:15:03", "+05::0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.date, tt.clock, tt.offst)
			assert.ErrorIs(t, err, ErrMalformedTimestamp)
		})
	}
}

func TestFormatPOSIX(t *testing.T) {
	assert.Equal(t, "1583403303.0", FormatPOSIX(time.Date(2020, 3, 5, 10, 15, 3, 0, time.UTC)))
	assert.Equal(t, "0.0", FormatPOSIX(time.Unix(0, 0)))
	assert.Equal(t, "1583403303.5", FormatPOSIX(time.Date(2020, 3, 5, 10, 15, 3, 450_000_000, time.UTC)))
	assert.Equal(t, "1583403304.0", FormatPOSIX(time.Date(2020, 3, 5, 10, 15, 3, 990_000_000, time.UTC)))
	assert.Equal(t, "-0.5", FormatPOSIX(time.Unix(0, -500_000_000)))
	assert.Equal(t, "-86400.0", FormatPOSIX(time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestFormatPOSIXOutsideNanosecondRange(t *testing.T) {
	got, err := Normalize("2300-01-01", "00:00:00", "+0000")
	require.NoError(t, err)
	assert.Equal(t, "10413792000.0", FormatPOSIX(got))

	got, err = Normalize("1600-01-01", "00:00:00", "+0000")
	require.NoError(t, err)
	assert.Equal(t, "-11676096000.0", FormatPOSIX(got))
}
