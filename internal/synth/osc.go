package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-analog/dsp/core"
)

// Waveform selects an oscillator shape.
type Waveform int

const (
	WaveSaw Waveform = iota
	WavePulse
	WaveTriangle
	WaveSine
)

func (w Waveform) String() string {
	switch w {
	case WaveSaw:
		return "saw"
	case WavePulse:
		return "pulse"
	case WaveTriangle:
		return "triangle"
	case WaveSine:
		return "sine"
	default:
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
}

// Oscillator is a band-limited (polyBLEP) audio oscillator. Phase is in [0, 1).
type Oscillator struct {
	Wave  Waveform
	Width float64 // pulse duty cycle, clamped to [0.05, 0.95]

	phase float64
	inc   float64
}

// SetFrequency sets the frequency in Hz. It is clamped to [0, Nyquist].
func (o *Oscillator) SetFrequency(hz, sampleRate float64) {
	o.inc = core.ClampFinite(hz/sampleRate, 0, 0.5, 0)
}

// Reset rewinds the phase.
func (o *Oscillator) Reset() { o.phase = 0 }

// Next returns the current sample and advances the phase.
func (o *Oscillator) Next() float64 {
	p, dt := o.phase, o.inc

	var out float64

	switch o.Wave {
	case WaveSaw:
		out = 2*p - 1 - polyBLEP(p, dt)
	case WavePulse:
		width := core.Clamp(o.Width, 0.05, 0.95)
		if o.Width == 0 {
			width = 0.5
		}

		out = -1
		if p < width {
			out = 1
		}

		out += polyBLEP(p, dt)
		out -= polyBLEP(math.Mod(p-width+1, 1), dt)
	case WaveTriangle:
		out = 1 - 4*math.Abs(p-0.5)
	default:
		out = math.Sin(2 * math.Pi * p)
	}

	o.phase += dt
	if o.phase >= 1 {
		o.phase -= 1
	}

	return out
}

// polyBLEP is the two-sample polynomial correction for a unit step at phase 0.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}

	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}

	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}

	return 0
}

// Noise is a seeded white noise source in [-1, 1).
type Noise struct {
	rng *rand.Rand
}

// NewNoise returns a noise source. Equal seeds give equal sequences.
func NewNoise(seed uint64) *Noise {
	return &Noise{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns the next noise sample.
func (n *Noise) Next() float64 {
	return 2*n.rng.Float64() - 1
}

// svf is a trapezoidal state-variable filter used to shape drum noise.
type svf struct {
	g, k     float64
	ic1, ic2 float64
}

func (s *svf) set(hz, q, sampleRate float64) {
	hz = core.Clamp(hz, 10, 0.45*sampleRate)
	s.g = math.Tan(math.Pi * hz / sampleRate)
	s.k = 1 / math.Max(q, 0.1)
}

func (s *svf) reset() { s.ic1, s.ic2 = 0, 0 }

func (s *svf) process(x float64) (lp, bp, hp float64) {
	a1 := 1 / (1 + s.g*(s.g+s.k))
	a2 := s.g * a1
	a3 := s.g * a2

	v3 := x - s.ic2
	v1 := a1*s.ic1 + a2*v3
	v2 := s.ic2 + a2*s.ic1 + a3*v3

	s.ic1 = 2*v1 - s.ic1
	s.ic2 = 2*v2 - s.ic2

	return v2, v1, x - s.k*v1 - v2
}
