package synth

import (
	"fmt"

	"github.com/cwbudde/algo-analog/dsp/envelope"
)

// State is the lifecycle stage of a voice at a given time.
type State int

const (
	// Free voices are silent and may be reused.
	Free State = iota
	// Idle voices are triggered for a time that has not arrived yet.
	Idle
	Attacking
	// Sustaining covers decay and sustain.
	Sustaining
	Releasing
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Idle:
		return "idle"
	case Attacking:
		return "attacking"
	case Sustaining:
		return "sustaining"
	case Releasing:
		return "releasing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Voice is one sound generator. Times are on the audio clock in seconds.
type Voice interface {
	// Trigger starts a note at t. Retriggering a sounding voice continues
	// from its current level.
	Trigger(key int, velocity, t float64)
	// Release starts the release stage at t.
	Release(t float64)
	// Stage reports the lifecycle stage at t.
	Stage(t float64) State
	// RenderAdd adds len(dst) samples starting at t0 to dst.
	RenderAdd(dst []float64, t0 float64)
	// Reset silences the voice.
	Reset()
}

// lifecycle tracks the stage of a voice driven by its amplitude curve.
type lifecycle struct {
	amp       *envelope.Curve
	triggered bool
	start     float64
	attackEnd float64
	released  bool
	releaseAt float64
}

func newLifecycle() lifecycle {
	return lifecycle{amp: envelope.NewCurve(0)}
}

func (l *lifecycle) begin(t, attack float64) {
	l.triggered = true
	l.start = t
	l.attackEnd = t + max(attack, 0)
	l.released = false
}

func (l *lifecycle) end(t float64) {
	l.released = true
	l.releaseAt = t
}

func (l *lifecycle) clear() {
	l.amp.Reset(0)
	l.triggered = false
	l.released = false
}

// Stage implements [Voice].
func (l *lifecycle) Stage(t float64) State {
	switch {
	case !l.triggered:
		return Free
	case t < l.start:
		return Idle
	case l.amp.Done(t):
		return Free
	case l.released && t >= l.releaseAt:
		return Releasing
	case t < l.attackEnd:
		return Attacking
	default:
		return Sustaining
	}
}
