package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-takeoff/internal/flightlog"
)

func TestMovingAverageZeroPadding(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3, EdgeZero)
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4, 3}, got, 1e-9)
}

func TestMovingAverageTruncate(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3, EdgeTruncate)
	assert.InDeltaSlice(t, []float64{1.5, 2, 3, 4, 4.5}, got, 1e-9)
}

func TestMovingAverageEvenWindow(t *testing.T) {
	// Window of sample i is [i-2, i+1]
	got := MovingAverage([]float64{4, 4, 4, 4}, 4, EdgeZero)
	assert.InDeltaSlice(t, []float64{2, 3, 4, 3}, got, 1e-9)
}

func TestMovingAverageWindowOfOneIsIdentity(t *testing.T) {
	in := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	assert.Equal(t, in, MovingAverage(in, 1, EdgeZero))
	assert.Equal(t, in, MovingAverage(in, 0, EdgeTruncate))
}

func TestMovingAverageNonFiniteStaysInItsWindow(t *testing.T) {
	in := []float64{math.Inf(1), 0, 0, 0, 0, 0, 0, 0, 0, 30, 30, 30}
	got := MovingAverage(in, 3, EdgeZero)
	require.Len(t, got, len(in))

	assert.True(t, math.IsInf(got[0], 1))
	assert.True(t, math.IsInf(got[1], 1))
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0, 0, 0, 10, 20, 30, 20}, got[2:], 1e-9)

	got = MovingAverage([]float64{1, math.NaN(), 1, 1, 1, 1}, 3, EdgeTruncate)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[2]))
	assert.InDeltaSlice(t, []float64{1, 1, 1}, got[3:], 1e-9)
}

func TestMovingAverageKeepsLength(t *testing.T) {
	for n := 0; n < 12; n++ {
		in := make([]float64, n)
		for i := range in {
			in[i] = float64(i * i)
		}
		for w := 1; w <= 15; w++ {
			assert.Len(t, MovingAverage(in, w, EdgeZero), n, "n=%d w=%d", n, w)
			assert.Len(t, MovingAverage(in, w, EdgeTruncate), n, "n=%d w=%d", n, w)
		}
	}
}

func TestLowPass(t *testing.T) {
	got := LowPass([]float64{10, 10, 10}, 0.5)
	assert.InDeltaSlice(t, []float64{5, 7.5, 8.75}, got, 1e-9)

	assert.Empty(t, LowPass(nil, 0.5))
}

func newTrack() *flightlog.Track {
	return &flightlog.Track{
		Name: "log_KPAO.csv",
		Samples: []flightlog.Sample{
			{GroundSpeed: 0, EngineRPM: 900, Altitude: 10, Heading: 310},
			{GroundSpeed: 3, EngineRPM: 900, Altitude: 10, Heading: 311},
			{GroundSpeed: 6, EngineRPM: 900, Altitude: 10, Heading: 312},
		},
	}
}

func TestConditionerSmoothsChannels(t *testing.T) {
	track := newTrack()
	c := &Conditioner{WindowSize: 3, EdgeMode: EdgeTruncate}
	require.NoError(t, c.Condition(track))

	assert.InDeltaSlice(t, []float64{1.5, 3, 4.5}, track.Values(flightlog.ChannelGroundSpeed), 1e-9)
	assert.InDeltaSlice(t, []float64{900, 900, 900}, track.Values(flightlog.ChannelEngineRPM), 1e-9)
	assert.InDeltaSlice(t, []float64{10, 10, 10}, track.Values(flightlog.ChannelAltitude), 1e-9)

	// Other columns are carried through unmodified
	assert.Equal(t, 311.0, track.Samples[1].Heading)
}

func TestConditionerLowPassOnRPM(t *testing.T) {
	track := newTrack()
	c := &Conditioner{WindowSize: 1, RPMLowPassAlpha: 0.5}
	require.NoError(t, c.Condition(track))

	assert.InDeltaSlice(t, []float64{450, 675, 787.5}, track.Values(flightlog.ChannelEngineRPM), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 3, 6}, track.Values(flightlog.ChannelGroundSpeed), 1e-9)
}

func TestConditionerShapeMismatch(t *testing.T) {
	track := newTrack()
	c := &Conditioner{smooth: func(xs []float64) []float64 { return xs[1:] }}

	err := c.Condition(track)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	// Track untouched on failure
	assert.Equal(t, newTrack().Samples, track.Samples)
}
