// Package spike latches the preflight engine run-up: RPM rising above the
// run-up threshold while parked and later falling back to idle.
package spike

import "fmt"

// State of the latch
type State int

const (
	Armed State = iota
	Risen
	Latched
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Risen:
		return "risen"
	case Latched:
		return "latched"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Thresholds of the run-up pulse
type Thresholds struct {
	Rise float64 // RPM must exceed this
	Fall float64 // then drop to or below this
}

// Latch is a one-shot rise/fall detector. It is a value; Advance returns the
// next latch and never modifies the receiver.
type Latch struct {
	state     State
	riseIndex int
	fallIndex int
}

// State returns the current state
func (l Latch) State() State { return l.state }

// RiseIndex returns the sample index of the rising edge
func (l Latch) RiseIndex() (int, bool) { return l.riseIndex, l.state >= Risen }

// FallIndex returns the sample index of the falling edge
func (l Latch) FallIndex() (int, bool) { return l.fallIndex, l.state == Latched }

// Advance feeds one stationary sample into the latch. Callers only pass
// samples whose ground speed is zero. Once latched, further samples are ignored.
func (l Latch) Advance(index int, rpm float64, th Thresholds) Latch {
	switch l.state {
	case Armed:
		if rpm > th.Rise {
			l.state, l.riseIndex = Risen, index
		}
	case Risen:
		if index > l.riseIndex && rpm <= th.Fall {
			l.state, l.fallIndex = Latched, index
		}
	}
	return l
}

// CompletedBefore reports whether the full rise/fall pair was recorded
// strictly before index
func (l Latch) CompletedBefore(index int) bool {
	return l.state == Latched && l.riseIndex < index && l.fallIndex < index
}

func (l Latch) String() string {
	switch l.state {
	case Risen:
		return fmt.Sprintf("risen(%d)", l.riseIndex)
	case Latched:
		return fmt.Sprintf("latched(%d,%d)", l.riseIndex, l.fallIndex)
	default:
		return "armed"
	}
}
