package synth

import (
	"math"

	"github.com/cwbudde/algo-analog/dsp/envelope"
)

// filterCore is the per-sample contract shared by the ladder and the
// Korg-style filter.
type filterCore interface {
	ProcessSampleWith(input, cutoffHz, amount float64) float64
	Reset()
}

// Patch is the sound of a subtractive synthesizer. Voices read it on every
// block, so edits apply to sounding notes.
type Patch struct {
	Wave1, Wave2 Waveform
	Width        float64 // pulse width of both oscillators
	Detune       float64 // oscillator 2 offset in semitones
	Mix2         float64 // oscillator 2 level
	Noise        float64
	Cutoff       float64 // Hz
	Amount       float64 // resonance or peak
	EnvDepth     float64 // filter envelope depth in octaves
	Amp          envelope.ADSR
	Filter       envelope.ADSR
	Gain         float64
}

// SynthVoice is two oscillators and noise into a resonant filter swept by
// its own envelope, then an amplitude envelope.
type SynthVoice struct {
	lifecycle

	patch    *Patch
	sr       float64
	osc1     Oscillator
	osc2     Oscillator
	noise    *Noise
	filter   filterCore
	filt     *envelope.Curve
	key      int
	freq     float64
	nextFreq float64
	switchAt float64
	pending  bool
}

func newSynthVoice(sampleRate float64, patch *Patch, filter filterCore, seed uint64) *SynthVoice {
	return &SynthVoice{
		lifecycle: newLifecycle(),
		patch:     patch,
		sr:        sampleRate,
		noise:     NewNoise(seed),
		filter:    filter,
		filt:      envelope.NewCurve(0),
		key:       -1,
	}
}

// Key returns the key of the last trigger, or -1.
func (v *SynthVoice) Key() int { return v.key }

// Trigger implements [Voice]. The pitch changes at t, so a note scheduled
// ahead does not bend the tail of the previous one.
func (v *SynthVoice) Trigger(key int, velocity, t float64) {
	t = max(t, 0)

	if v.Stage(t) == Free {
		v.filter.Reset()
		v.osc1.Reset()
		v.osc2.Reset()
		v.freq = KeyFrequency(key)
		v.applyFrequency()
	} else {
		v.nextFreq = KeyFrequency(key)
		v.switchAt = t
		v.pending = true
	}

	v.key = key
	v.begin(t, v.patch.Amp.Attack)
	v.amp.Attack(v.patch.Amp, t, clampVelocity(velocity))
	v.filt.Attack(v.patch.Filter, t, 1)
}

func (v *SynthVoice) applyFrequency() {
	v.osc1.SetFrequency(v.freq, v.sr)
	v.osc2.SetFrequency(v.freq*math.Exp2(v.patch.Detune/12), v.sr)
}

// Release implements [Voice].
func (v *SynthVoice) Release(t float64) {
	t = max(t, 0)

	v.end(t)
	_ = v.amp.Release(t, v.patch.Amp.Release)
	_ = v.filt.Release(t, v.patch.Filter.Release)
}

// RenderAdd implements [Voice].
func (v *SynthVoice) RenderAdd(dst []float64, t0 float64) {
	p := v.patch
	dt := 1 / v.sr

	v.osc1.Wave, v.osc2.Wave = p.Wave1, p.Wave2
	v.osc1.Width, v.osc2.Width = p.Width, p.Width
	v.applyFrequency()

	for i := range dst {
		t := t0 + float64(i)*dt

		if v.pending && t >= v.switchAt {
			v.freq = v.nextFreq
			v.pending = false
			v.applyFrequency()
		}

		x := v.osc1.Next()
		if p.Mix2 > 0 {
			x += p.Mix2 * v.osc2.Next()
		}

		if p.Noise > 0 {
			x += p.Noise * v.noise.Next()
		}

		cutoff := p.Cutoff * math.Exp2(p.EnvDepth*v.filt.ValueAt(t))
		y := v.filter.ProcessSampleWith(0.5*x, cutoff, p.Amount)

		dst[i] += p.Gain * v.amp.ValueAt(t) * y
	}

	end := t0 + float64(len(dst))*dt
	v.amp.Compact(end)
	v.filt.Compact(end)
}

// Reset implements [Voice].
func (v *SynthVoice) Reset() {
	v.clear()
	v.filt.Reset(0)
	v.filter.Reset()
	v.osc1.Reset()
	v.osc2.Reset()
	v.key = -1
	v.pending = false
}
