package synth

import (
	"fmt"
	"log/slog"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/dsp/param"
	"github.com/cwbudde/algo-analog/sequencer"
)

// Drum machine parameters.
var (
	LevelParam = param.Descriptor{Name: "level", Default: 0.8, Min: 0, Max: 1, Rate: param.KRate}
	DecayParam = param.Descriptor{Name: "decay", Default: 1, Min: 0.25, Max: 4, Rate: param.KRate}
	TuneParam  = param.Descriptor{Name: "tune", Default: 0, Min: -12, Max: 12, Rate: param.KRate}
)

// drumLane is one pattern row: a key, the voice it plays and a velocity per
// step (0 = rest).
type drumLane struct {
	key     int
	voice   Voice
	pattern []float64
}

type drumSpec struct {
	name  string
	kick  KickTone
	snare SnareTone
	clap  ClapTone
	hat   HatTone
	gains [4]float64 // kick, snare, clap, hat
	rows  map[int][]float64
}

// DrumMachine is a four-voice step drum machine.
type DrumMachine struct {
	name    string
	sr      float64
	kit     *drumKit
	voices  [4]Voice
	gains   [4]float64
	lanes   []drumLane
	hat     *HiHat
	params  paramStore
	scratch []float64
	logger  *slog.Logger
}

var tr808 = drumSpec{
	name:  "tr808",
	kick:  KickTone{Base: 49, Sweep: 110, PitchDecay: 0.05, Decay: 0.7},
	snare: SnareTone{Low: 180, High: 330, ToneDecay: 0.12, NoiseHz: 1800, NoiseDecay: 0.2, Snappy: 0.6},
	clap:  ClapTone{Hz: 1100, Q: 1.6, Bursts: 3, Spacing: 0.011, Tail: 0.18},
	hat:   HatTone{Metal: 1, Noise: 0.1, BandHz: 10000, HighHz: 7000, Closed: 0.05, Open: 0.45},
	gains: [4]float64{1, 0.7, 0.6, 0.5},
	rows: map[int][]float64{
		KeyKick:      steps16(map[int]float64{0: 1, 7: 0.7, 8: 1, 10: 0.8}),
		KeySnare:     steps16(map[int]float64{4: 1, 12: 1}),
		KeyClap:      steps16(map[int]float64{12: 0.8}),
		KeyClosedHat: steps16(map[int]float64{0: 0.7, 2: 0.5, 4: 0.7, 6: 0.5, 8: 0.7, 10: 0.5, 12: 0.7}),
		KeyOpenHat:   steps16(map[int]float64{14: 0.7}),
	},
}

var tr909 = drumSpec{
	name:  "tr909",
	kick:  KickTone{Base: 55, Sweep: 200, PitchDecay: 0.03, Decay: 0.35, Click: 0.4},
	snare: SnareTone{Low: 190, High: 340, ToneDecay: 0.08, NoiseHz: 2500, NoiseDecay: 0.25, Snappy: 0.8},
	clap:  ClapTone{Hz: 1300, Q: 1.3, Bursts: 4, Spacing: 0.009, Tail: 0.22},
	hat:   HatTone{Metal: 0.5, Noise: 0.6, BandHz: 11000, HighHz: 8000, Closed: 0.04, Open: 0.35},
	gains: [4]float64{1, 0.6, 0.6, 0.45},
	rows: map[int][]float64{
		KeyKick:      steps16(map[int]float64{0: 1, 4: 1, 8: 1, 12: 1}),
		KeySnare:     steps16(map[int]float64{12: 0.6, 15: 0.4}),
		KeyClap:      steps16(map[int]float64{4: 0.9, 12: 0.9}),
		KeyClosedHat: steps16(map[int]float64{0: 0.5, 1: 0.4, 3: 0.4, 4: 0.5, 5: 0.4, 7: 0.4, 8: 0.5, 9: 0.4, 11: 0.4, 12: 0.5, 13: 0.4, 15: 0.4}),
		KeyOpenHat:   steps16(map[int]float64{2: 0.8, 6: 0.8, 10: 0.8, 14: 0.8}),
	},
}

func steps16(hits map[int]float64) []float64 {
	row := make([]float64, 16)
	for step, vel := range hits {
		row[step] = vel
	}

	return row
}

// NewTR808 builds the "tr808" drum machine.
func NewTR808(sampleRate float64, logger *slog.Logger) (Instrument, error) {
	return newDrumMachine(tr808, sampleRate, logger)
}

// NewTR909 builds the "tr909" drum machine.
func NewTR909(sampleRate float64, logger *slog.Logger) (Instrument, error) {
	return newDrumMachine(tr909, sampleRate, logger)
}

func newDrumMachine(spec drumSpec, sampleRate float64, logger *slog.Logger) (*DrumMachine, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("synth: sample rate must be > 0: %f", sampleRate)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	kit := newDrumKit()
	kick := newKick(sampleRate, spec.kick, kit, 1)
	snare := newSnare(sampleRate, spec.snare, kit, 2)
	clap := newClap(sampleRate, spec.clap, kit, 3)
	hat := newHiHat(sampleRate, spec.hat, kit, 4)

	d := &DrumMachine{
		name:   spec.name,
		sr:     sampleRate,
		kit:    kit,
		voices: [4]Voice{kick, snare, clap, hat},
		gains:  spec.gains,
		hat:    hat,
		params: newParamStore(param.Set{LevelParam, DecayParam, TuneParam}),
		logger: logger,
	}

	// Open after closed: a step holding both plays the open hat.
	order := []struct {
		key   int
		voice Voice
	}{
		{KeyKick, kick}, {KeySnare, snare}, {KeyClap, clap},
		{KeyClosedHat, hat}, {KeyOpenHat, hat},
	}

	for _, lane := range order {
		d.lanes = append(d.lanes, drumLane{
			key:     lane.key,
			voice:   lane.voice,
			pattern: append([]float64(nil), spec.rows[lane.key]...),
		})
	}

	return d, nil
}

// Name implements [Instrument].
func (d *DrumMachine) Name() string { return d.name }

// Descriptors implements [Instrument].
func (d *DrumMachine) Descriptors() param.Set { return d.params.set }

// Param implements [Instrument].
func (d *DrumMachine) Param(name string) (float64, error) { return d.params.get(name) }

// SetParam implements [Instrument]. Decay and tune apply from the next hit.
func (d *DrumMachine) SetParam(name string, value float64) error {
	v, err := d.params.put(name, value)
	if err != nil {
		return err
	}

	switch name {
	case DecayParam.Name:
		d.kit.decay = v
	case TuneParam.Name:
		d.kit.tune = math.Exp2(v / 12)
	}

	return nil
}

// HiHat returns the shared closed/open hat voice.
func (d *DrumMachine) HiHat() *HiHat { return d.hat }

// Pattern returns a copy of the velocities of the lane playing key, or nil.
func (d *DrumMachine) Pattern(key int) []float64 {
	for _, lane := range d.lanes {
		if lane.key == key {
			return append([]float64(nil), lane.pattern...)
		}
	}

	return nil
}

// SetStep sets the velocity of one step of the lane playing key. The lane
// grows to 32 steps when step is beyond 16; shorter lanes repeat.
func (d *DrumMachine) SetStep(key, step int, velocity float64) error {
	if step < 0 || step >= 32 {
		return fmt.Errorf("synth: step out of range: %d", step)
	}

	for i := range d.lanes {
		lane := &d.lanes[i]
		if lane.key != key {
			continue
		}

		if len(lane.pattern) == 0 {
			lane.pattern = make([]float64, 16)
		}

		for len(lane.pattern) <= step {
			lane.pattern = append(lane.pattern, lane.pattern...)
		}

		lane.pattern[step] = clampVelocity(velocity)

		return nil
	}

	return fmt.Errorf("synth: %s has no lane for key %d", d.name, key)
}

// OnStep implements [sequencer.Listener].
func (d *DrumMachine) OnStep(e sequencer.Event) {
	if e.IsReset() {
		return
	}

	for _, lane := range d.lanes {
		if len(lane.pattern) == 0 {
			continue
		}

		if vel := lane.pattern[e.Step%len(lane.pattern)]; vel > 0 {
			lane.voice.Trigger(lane.key, vel, e.Time)
		}
	}
}

// NoteOn implements [Instrument]. Keys without a lane are ignored.
func (d *DrumMachine) NoteOn(key int, velocity, t float64) {
	for _, lane := range d.lanes {
		if lane.key == key {
			lane.voice.Trigger(key, velocity, t)
			return
		}
	}

	d.logger.Debug("no drum lane for key", "key", key)
}

// NoteOff implements [Instrument]. Drum hits always run to completion.
func (d *DrumMachine) NoteOff(int, float64) {}

// Render implements [Instrument].
func (d *DrumMachine) Render(left, right []float64, t0 float64) {
	n := min(len(left), len(right))
	left, right = left[:n], right[:n]
	clear(left)

	d.scratch = core.EnsureLen(d.scratch, n)
	level, _ := d.params.get(LevelParam.Name)

	for i, v := range d.voices {
		if v.Stage(t0) == Free {
			continue
		}

		clear(d.scratch)
		v.RenderAdd(d.scratch, t0)
		vecmath.ScaleBlock(d.scratch, d.scratch, d.gains[i]*level)
		vecmath.AddBlockInPlace(left, d.scratch)
	}

	copy(right, left)
}

// Reset implements [Instrument].
func (d *DrumMachine) Reset() {
	for _, v := range d.voices {
		v.Reset()
	}
}
