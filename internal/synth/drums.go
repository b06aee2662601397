package synth

import (
	"math"

	"github.com/cwbudde/algo-analog/dsp/envelope"
)

// General MIDI percussion keys of the drum machine lanes.
const (
	KeyKick      = 36
	KeySnare     = 38
	KeyClap      = 39
	KeyClosedHat = 42
	KeyOpenHat   = 46
)

const drumAttack = 0.001

// drumKit holds the machine-wide controls shared by all drum voices.
type drumKit struct {
	decay float64 // decay time multiplier
	tune  float64 // frequency ratio
}

func newDrumKit() *drumKit { return &drumKit{decay: 1, tune: 1} }

// KickTone describes a pitch-swept sine kick.
type KickTone struct {
	Base       float64 // settled pitch in Hz
	Sweep      float64 // extra pitch at the strike in Hz
	PitchDecay float64
	Decay      float64
	Click      float64 // noise click level
}

// Kick is a bass drum voice.
type Kick struct {
	lifecycle

	tone  KickTone
	kit   *drumKit
	sr    float64
	phase float64
	pitch *envelope.Curve
	click *envelope.Curve
	noise *Noise
}

func newKick(sampleRate float64, tone KickTone, kit *drumKit, seed uint64) *Kick {
	return &Kick{
		lifecycle: newLifecycle(),
		tone:      tone,
		kit:       kit,
		sr:        sampleRate,
		pitch:     envelope.NewCurve(0),
		click:     envelope.NewCurve(0),
		noise:     NewNoise(seed),
	}
}

// Trigger implements [Voice].
func (k *Kick) Trigger(_ int, velocity, t float64) {
	t = max(t, 0)
	velocity = clampVelocity(velocity)

	k.begin(t, drumAttack)
	k.amp.Strike(drumAttack, k.tone.Decay*k.kit.decay, t, velocity)
	k.pitch.Strike(0, k.tone.PitchDecay, t, k.tone.Sweep)
	k.click.Strike(0, 0.004, t, k.tone.Click*velocity)
}

// Release implements [Voice]. Drums are one-shots.
func (k *Kick) Release(float64) {}

// RenderAdd implements [Voice].
func (k *Kick) RenderAdd(dst []float64, t0 float64) {
	dt := 1 / k.sr

	for i := range dst {
		t := t0 + float64(i)*dt
		f := (k.tone.Base + k.pitch.ValueAt(t)) * k.kit.tune

		y := k.amp.ValueAt(t) * math.Sin(2*math.Pi*k.phase)
		if k.tone.Click > 0 {
			y += k.click.ValueAt(t) * k.noise.Next()
		}

		dst[i] += y

		k.phase += f * dt
		k.phase -= math.Floor(k.phase)
	}

	end := t0 + float64(len(dst))*dt
	k.amp.Compact(end)
	k.pitch.Compact(end)
	k.click.Compact(end)
}

// Reset implements [Voice].
func (k *Kick) Reset() {
	k.clear()
	k.pitch.Reset(0)
	k.click.Reset(0)
	k.phase = 0
}

// SnareTone describes a two-oscillator snare with a highpassed noise burst.
type SnareTone struct {
	Low, High  float64 // tone pair in Hz
	ToneDecay  float64
	NoiseHz    float64 // noise highpass corner
	NoiseDecay float64
	Snappy     float64 // noise level
}

// Snare is a snare drum voice. Its amplitude curve follows the noise, which
// always outlasts the tone.
type Snare struct {
	lifecycle

	tone   SnareTone
	kit    *drumKit
	sr     float64
	osc    [2]Oscillator
	body   *envelope.Curve
	noise  *Noise
	filter svf
}

func newSnare(sampleRate float64, tone SnareTone, kit *drumKit, seed uint64) *Snare {
	s := &Snare{
		lifecycle: newLifecycle(),
		tone:      tone,
		kit:       kit,
		sr:        sampleRate,
		body:      envelope.NewCurve(0),
		noise:     NewNoise(seed),
	}
	s.osc[0].Wave = WaveSine
	s.osc[1].Wave = WaveSine

	return s
}

// Trigger implements [Voice].
func (s *Snare) Trigger(_ int, velocity, t float64) {
	t = max(t, 0)
	velocity = clampVelocity(velocity)

	s.osc[0].SetFrequency(s.tone.Low*s.kit.tune, s.sr)
	s.osc[1].SetFrequency(s.tone.High*s.kit.tune, s.sr)
	s.filter.set(s.tone.NoiseHz*s.kit.tune, 0.7, s.sr)

	s.begin(t, drumAttack)
	s.amp.Strike(drumAttack, s.tone.NoiseDecay*s.kit.decay, t, velocity*s.tone.Snappy)
	s.body.Strike(drumAttack, s.tone.ToneDecay*s.kit.decay, t, velocity)
}

// Release implements [Voice].
func (s *Snare) Release(float64) {}

// RenderAdd implements [Voice].
func (s *Snare) RenderAdd(dst []float64, t0 float64) {
	dt := 1 / s.sr

	for i := range dst {
		t := t0 + float64(i)*dt
		body := 0.6*s.osc[0].Next() + 0.4*s.osc[1].Next()
		_, _, hp := s.filter.process(s.noise.Next())
		dst[i] += s.body.ValueAt(t)*body + s.amp.ValueAt(t)*hp
	}

	end := t0 + float64(len(dst))*dt
	s.amp.Compact(end)
	s.body.Compact(end)
}

// Reset implements [Voice].
func (s *Snare) Reset() {
	s.clear()
	s.body.Reset(0)
	s.filter.reset()
	s.osc[0].Reset()
	s.osc[1].Reset()
}

// ClapTone describes a hand clap: a few fast noise bursts then a tail.
type ClapTone struct {
	Hz      float64 // bandpass centre
	Q       float64
	Bursts  int
	Spacing float64 // seconds between bursts
	Tail    float64
}

// Clap is a hand clap voice.
type Clap struct {
	lifecycle

	tone   ClapTone
	kit    *drumKit
	sr     float64
	noise  *Noise
	filter svf
}

func newClap(sampleRate float64, tone ClapTone, kit *drumKit, seed uint64) *Clap {
	return &Clap{
		lifecycle: newLifecycle(),
		tone:      tone,
		kit:       kit,
		sr:        sampleRate,
		noise:     NewNoise(seed),
	}
}

// Trigger implements [Voice].
func (c *Clap) Trigger(_ int, velocity, t float64) {
	t = max(t, 0)
	peak := clampVelocity(velocity)

	c.filter.set(c.tone.Hz*c.kit.tune, c.tone.Q, c.sr)
	c.begin(t, drumAttack)

	if err := c.amp.CancelAndHold(t); err != nil {
		return
	}

	at := t
	for range c.tone.Bursts {
		_ = c.amp.LinearRampTo(peak, at+drumAttack)
		_ = c.amp.ExponentialRampTo(0.15*peak, at+c.tone.Spacing)
		at += c.tone.Spacing
	}

	_ = c.amp.LinearRampTo(peak, at+drumAttack)
	_ = c.amp.ExponentialRampTo(envelope.Floor, at+drumAttack+c.tone.Tail*c.kit.decay)
}

// Release implements [Voice].
func (c *Clap) Release(float64) {}

// RenderAdd implements [Voice].
func (c *Clap) RenderAdd(dst []float64, t0 float64) {
	dt := 1 / c.sr

	for i := range dst {
		_, bp, _ := c.filter.process(c.noise.Next())
		dst[i] += 2 * c.amp.ValueAt(t0+float64(i)*dt) * bp
	}

	c.amp.Compact(t0 + float64(len(dst))*dt)
}

// Reset implements [Voice].
func (c *Clap) Reset() {
	c.clear()
	c.filter.reset()
}

// hatPartials are the six square oscillator frequencies of the metallic bank.
var hatPartials = [6]float64{205.3, 304.4, 369.6, 522.7, 540, 800}

// HatTone describes a hi-hat: a square-wave metal bank and noise through a
// bandpass and a highpass.
type HatTone struct {
	Metal  float64
	Noise  float64
	BandHz float64
	HighHz float64
	Closed float64 // closed decay in seconds
	Open   float64 // open decay in seconds
}

// HiHat plays both the closed and the open hat. They share one amplitude
// curve, so a closed hit chokes a ringing open one.
type HiHat struct {
	lifecycle

	tone  HatTone
	kit   *drumKit
	sr    float64
	bank  [6]Oscillator
	noise *Noise
	band  svf
	high  svf
	open  bool
}

func newHiHat(sampleRate float64, tone HatTone, kit *drumKit, seed uint64) *HiHat {
	h := &HiHat{
		lifecycle: newLifecycle(),
		tone:      tone,
		kit:       kit,
		sr:        sampleRate,
		noise:     NewNoise(seed),
	}

	for i := range h.bank {
		h.bank[i].Wave = WavePulse
		h.bank[i].Width = 0.5
	}

	return h
}

// Trigger implements [Voice]. KeyOpenHat plays the open hat, any other key
// the closed one.
func (h *HiHat) Trigger(key int, velocity, t float64) {
	if key == KeyOpenHat {
		h.TriggerOpen(velocity, t)
		return
	}

	h.TriggerClosed(velocity, t)
}

// TriggerClosed plays a closed hat at t, choking an open one.
func (h *HiHat) TriggerClosed(velocity, t float64) {
	h.strike(velocity, t, h.tone.Closed)
	h.open = false
}

// TriggerOpen plays an open hat at t.
func (h *HiHat) TriggerOpen(velocity, t float64) {
	h.strike(velocity, t, h.tone.Open)
	h.open = true
}

// Open reports whether the last hit was an open hat.
func (h *HiHat) Open() bool { return h.open }

func (h *HiHat) strike(velocity, t, decay float64) {
	t = max(t, 0)

	for i := range h.bank {
		h.bank[i].SetFrequency(hatPartials[i]*h.kit.tune, h.sr)
	}

	h.band.set(h.tone.BandHz, 1, h.sr)
	h.high.set(h.tone.HighHz, 0.7, h.sr)

	h.begin(t, drumAttack)
	h.amp.Strike(drumAttack, decay*h.kit.decay, t, clampVelocity(velocity))
}

// Release implements [Voice].
func (h *HiHat) Release(float64) {}

// RenderAdd implements [Voice].
func (h *HiHat) RenderAdd(dst []float64, t0 float64) {
	dt := 1 / h.sr

	for i := range dst {
		metal := 0.0
		for j := range h.bank {
			metal += h.bank[j].Next()
		}

		x := h.tone.Metal*metal/6 + h.tone.Noise*h.noise.Next()
		_, bp, _ := h.band.process(x)
		_, _, hp := h.high.process(bp)

		dst[i] += h.amp.ValueAt(t0+float64(i)*dt) * hp
	}

	h.amp.Compact(t0 + float64(len(dst))*dt)
}

// Reset implements [Voice].
func (h *HiHat) Reset() {
	h.clear()
	h.band.reset()
	h.high.reset()
	h.open = false

	for i := range h.bank {
		h.bank[i].Reset()
	}
}

func clampVelocity(v float64) float64 {
	if !(v > 0) {
		return 0
	}

	return min(v, 1)
}
