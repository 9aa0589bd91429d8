// Package filter conditions noisy sensor channels before thresholding.
package filter

import (
	"errors"
	"fmt"

	"github.com/yegors/co-takeoff/internal/flightlog"
)

// ErrShapeMismatch is returned when smoothing changes the length of a channel
var ErrShapeMismatch = errors.New("smoothed output length differs from input")

// EdgeMode selects how the moving average window is handled at the ends of a track
type EdgeMode string

const (
	// EdgeZero pads with zeros outside the track and always divides by the window width
	EdgeZero EdgeMode = "zero"
	// EdgeTruncate averages only the samples that fall inside the track
	EdgeTruncate EdgeMode = "truncate"
)

// MovingAverage returns the centered moving average of xs over a window of
// width w. The window of sample i covers [i-w/2, i-w/2+w-1]. w < 1 is
// treated as 1. Each window is summed on its own so a non-finite input
// only affects the outputs whose windows contain it.
func MovingAverage(xs []float64, w int, mode EdgeMode) []float64 {
	if w < 1 {
		w = 1
	}
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}

	for i := range xs {
		lo := i - w/2
		hi := lo + w - 1
		if lo < 0 {
			lo = 0
		}
		if hi > len(xs)-1 {
			hi = len(xs) - 1
		}
		var sum float64
		for _, x := range xs[lo : hi+1] {
			sum += x
		}

		switch mode {
		case EdgeTruncate:
			out[i] = sum / float64(hi-lo+1)
		default:
			out[i] = sum / float64(w)
		}
	}
	return out
}

// LowPass applies a first order exponential filter:
// out[0] = (1-alpha)*xs[0], out[i] = alpha*out[i-1] + (1-alpha)*xs[i].
// Higher alpha smooths more and lags more.
func LowPass(xs []float64, alpha float64) []float64 {
	out := make([]float64, len(xs))
	var prev float64
	for i, x := range xs {
		prev = alpha*prev + (1-alpha)*x
		out[i] = prev
	}
	return out
}

// Smoother transforms one channel
type Smoother func(xs []float64) []float64

// Conditioner smooths the ground speed, engine RPM and altitude channels of a track in place
type Conditioner struct {
	WindowSize      int
	EdgeMode        EdgeMode
	RPMLowPassAlpha float64 // 0 disables the low-pass stage

	// smooth overrides the moving average, used by tests
	smooth Smoother
}

// Channels conditioned by Condition, in order
var Channels = []flightlog.Channel{
	flightlog.ChannelGroundSpeed,
	flightlog.ChannelEngineRPM,
	flightlog.ChannelAltitude,
}

// Condition smooths each channel independently. Samples are never reordered
// or dropped; the track is left untouched when any channel fails.
func (c *Conditioner) Condition(track *flightlog.Track) error {
	smooth := c.smooth
	if smooth == nil {
		smooth = func(xs []float64) []float64 {
			return MovingAverage(xs, c.WindowSize, c.EdgeMode)
		}
	}

	results := make(map[flightlog.Channel][]float64, len(Channels))
	for _, ch := range Channels {
		in := track.Values(ch)
		out := smooth(in)
		if ch == flightlog.ChannelEngineRPM && c.RPMLowPassAlpha > 0 && len(out) == len(in) {
			out = LowPass(out, c.RPMLowPassAlpha)
		}
		if len(out) != len(in) {
			return fmt.Errorf("%w: %s channel %s: got %d samples, want %d",
				ErrShapeMismatch, track.Name, ch, len(out), len(in))
		}
		results[ch] = out
	}

	for ch, values := range results {
		track.SetValues(ch, values)
	}
	return nil
}
