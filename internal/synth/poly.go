package synth

import (
	"fmt"
	"log/slog"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/dsp/effects/modulation"
	"github.com/cwbudde/algo-analog/dsp/envelope"
	"github.com/cwbudde/algo-analog/dsp/filter/korg"
	"github.com/cwbudde/algo-analog/dsp/filter/moog"
	"github.com/cwbudde/algo-analog/dsp/param"
	"github.com/cwbudde/algo-analog/sequencer"
)

type filterKind int

const (
	ladderFilter filterKind = iota
	korgFilter
)

// chorusPrefix namespaces the chorus parameters of a synthesizer.
const chorusPrefix = "chorus-"

type synthSpec struct {
	name    string
	voices  int
	filter  filterKind
	chorus  bool
	patch   Patch
	pattern [][]int
}

var minimoogSpec = synthSpec{
	name:   "minimoog",
	voices: 1,
	filter: ladderFilter,
	patch: Patch{
		Wave1: WaveSaw, Wave2: WaveSaw, Detune: 0.07, Mix2: 0.8,
		Cutoff: 600, Amount: 2.2, EnvDepth: 3.5,
		Amp:    envelope.ADSR{Attack: 0.005, Decay: 0.3, Sustain: 0.7, Release: 0.25},
		Filter: envelope.ADSR{Attack: 0.005, Decay: 0.25, Sustain: 0.3, Release: 0.3},
		Gain:   0.6,
	},
	pattern: [][]int{
		{36}, nil, {36}, {48}, nil, {36}, {43}, nil,
		{36}, nil, {46}, {48}, nil, {41}, {43}, nil,
	},
}

var juno106Spec = synthSpec{
	name:   "juno106",
	voices: 6,
	filter: ladderFilter,
	chorus: true,
	patch: Patch{
		Wave1: WavePulse, Wave2: WaveSaw, Width: 0.5, Detune: -12, Mix2: 0.5, Noise: 0.02,
		Cutoff: 1800, Amount: 1, EnvDepth: 2,
		Amp:    envelope.ADSR{Attack: 0.01, Decay: 0.4, Sustain: 0.8, Release: 0.5},
		Filter: envelope.ADSR{Attack: 0.01, Decay: 0.5, Sustain: 0.4, Release: 0.6},
		Gain:   0.4,
	},
	pattern: [][]int{
		{60, 64, 67}, nil, nil, nil, nil, nil, {57, 60, 64}, nil,
		nil, nil, nil, nil, {53, 57, 60}, nil, {55, 59, 62}, nil,
	},
}

var ms20Spec = synthSpec{
	name:   "ms20",
	voices: 1,
	filter: korgFilter,
	patch: Patch{
		Wave1: WaveSaw, Wave2: WavePulse, Width: 0.3, Detune: 7, Mix2: 0.5,
		Cutoff: 900, Amount: 2.5, EnvDepth: 3,
		Amp:    envelope.ADSR{Attack: 0.002, Decay: 0.2, Sustain: 0.6, Release: 0.2},
		Filter: envelope.ADSR{Attack: 0.002, Decay: 0.3, Sustain: 0.2, Release: 0.2},
		Gain:   1.2,
	},
	pattern: [][]int{
		{33}, {45}, nil, {33}, {36}, nil, {33}, {48},
		nil, {33}, {43}, nil, {33}, nil, {45}, {40},
	},
}

var ms10Spec = synthSpec{
	name:   "ms10",
	voices: 1,
	filter: korgFilter,
	patch: Patch{
		Wave1: WaveSaw, Wave2: WaveSaw,
		Cutoff: 1200, Amount: 1.5, EnvDepth: 2.5,
		Amp:    envelope.ADSR{Attack: 0.005, Decay: 0.25, Sustain: 0.5, Release: 0.15},
		Filter: envelope.ADSR{Attack: 0.005, Decay: 0.2, Sustain: 0.3, Release: 0.15},
		Gain:   1.2,
	},
	pattern: [][]int{
		{45}, nil, nil, {45}, nil, nil, {52}, nil,
		{45}, nil, nil, {57}, nil, {55}, {52}, nil,
	},
}

// Shared synthesizer parameters. Cutoff and resonance (or peak) come from
// the filter packages with the patch value as default.
var (
	EnvDepthParam = param.Descriptor{Name: "env", Default: 0, Min: 0, Max: 8, Rate: param.KRate}
	AttackParam   = param.Descriptor{Name: "attack", Default: 0.01, Min: 0.001, Max: 5, Rate: param.KRate}
	AmpDecayParam = param.Descriptor{Name: "decay", Default: 0.3, Min: 0.001, Max: 5, Rate: param.KRate}
	ReleaseParam  = param.Descriptor{Name: "release", Default: 0.2, Min: 0.001, Max: 5, Rate: param.KRate}
	SustainParam  = param.Descriptor{Name: "sustain", Default: 0.7, Min: 0, Max: 1, Rate: param.KRate}
	DetuneParam   = param.Descriptor{Name: "detune", Default: 0, Min: -24, Max: 24, Rate: param.KRate}
)

// NewMinimoog builds the "minimoog" monophonic ladder synthesizer.
func NewMinimoog(sampleRate float64, logger *slog.Logger) (Instrument, error) {
	return newPolySynth(minimoogSpec, sampleRate, logger)
}

// NewJuno106 builds the "juno106" six-voice synthesizer with BBD chorus.
func NewJuno106(sampleRate float64, logger *slog.Logger) (Instrument, error) {
	return newPolySynth(juno106Spec, sampleRate, logger)
}

// NewMS20 builds the "ms20" monophonic two-oscillator Korg-filter synthesizer.
func NewMS20(sampleRate float64, logger *slog.Logger) (Instrument, error) {
	return newPolySynth(ms20Spec, sampleRate, logger)
}

// NewMS10 builds the "ms10" monophonic single-oscillator Korg-filter synthesizer.
func NewMS10(sampleRate float64, logger *slog.Logger) (Instrument, error) {
	return newPolySynth(ms10Spec, sampleRate, logger)
}

// PolySynth is a subtractive synthesizer with a voice pool, a step pattern of
// chords and an optional stereo BBD chorus.
type PolySynth struct {
	name    string
	sr      float64
	patch   *Patch
	pool    *Pool[*SynthVoice]
	chorus  *modulation.BBDChorus
	pattern [][]int
	held    []int
	params  paramStore
	mono    []float64
	logger  *slog.Logger
}

func newPolySynth(spec synthSpec, sampleRate float64, logger *slog.Logger) (*PolySynth, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("synth: sample rate must be > 0: %f", sampleRate)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	patch := spec.patch

	s := &PolySynth{
		name:    spec.name,
		sr:      sampleRate,
		patch:   &patch,
		pattern: make([][]int, len(spec.pattern)),
		params:  newParamStore(synthDescriptors(spec)),
		logger:  logger,
	}

	for i, notes := range spec.pattern {
		s.pattern[i] = append([]int(nil), notes...)
	}

	pool, err := NewPool(spec.voices, func(i int) (*SynthVoice, error) {
		f, err := newFilterCore(spec.filter, sampleRate)
		if err != nil {
			return nil, err
		}

		return newSynthVoice(sampleRate, s.patch, f, uint64(i)+1), nil
	}, logger)
	if err != nil {
		return nil, err
	}

	s.pool = pool

	if spec.chorus {
		s.chorus, err = modulation.NewBBDChorus(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("synth: %w", err)
		}
	}

	return s, nil
}

func newFilterCore(kind filterKind, sampleRate float64) (filterCore, error) {
	if kind == korgFilter {
		f, err := korg.New(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("synth: %w", err)
		}

		return f, nil
	}

	f, err := moog.New(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}

	return f, nil
}

func synthDescriptors(spec synthSpec) param.Set {
	p := spec.patch

	cutoff := moog.CutoffParam
	amount := moog.ResonanceParam

	if spec.filter == korgFilter {
		cutoff = korg.CutoffParam
		amount = korg.PeakParam
	}

	cutoff.Default, cutoff.Rate = p.Cutoff, param.KRate
	amount.Default, amount.Rate = p.Amount, param.KRate

	env := EnvDepthParam
	env.Default = p.EnvDepth

	attack := AttackParam
	attack.Default = p.Amp.Attack

	decay := AmpDecayParam
	decay.Default = p.Amp.Decay

	sustain := SustainParam
	sustain.Default = p.Amp.Sustain

	release := ReleaseParam
	release.Default = p.Amp.Release

	detune := DetuneParam
	detune.Default = p.Detune

	set := param.Set{cutoff, amount, env, attack, decay, sustain, release, detune, LevelParam}

	if spec.chorus {
		for _, d := range modulation.BBDChorusDescriptors() {
			d.Name = chorusPrefix + d.Name
			set = append(set, d)
		}
	}

	return set
}

// Name implements [Instrument].
func (s *PolySynth) Name() string { return s.name }

// Descriptors implements [Instrument].
func (s *PolySynth) Descriptors() param.Set { return s.params.set }

// Param implements [Instrument].
func (s *PolySynth) Param(name string) (float64, error) { return s.params.get(name) }

// SetParam implements [Instrument].
func (s *PolySynth) SetParam(name string, value float64) error {
	v, err := s.params.put(name, value)
	if err != nil {
		return err
	}

	p := s.patch

	switch name {
	case moog.CutoffParam.Name:
		p.Cutoff = v
	case moog.ResonanceParam.Name, korg.PeakParam.Name:
		p.Amount = v
	case EnvDepthParam.Name:
		p.EnvDepth = v
	case AttackParam.Name:
		p.Amp.Attack = v
	case AmpDecayParam.Name:
		p.Amp.Decay = v
	case SustainParam.Name:
		p.Amp.Sustain = v
	case ReleaseParam.Name:
		p.Amp.Release = v
	case DetuneParam.Name:
		p.Detune = v
	case chorusPrefix + modulation.ChorusModeParam.Name:
		s.chorus.SetMode(modulation.ModeFromValue(v))
	case chorusPrefix + modulation.ChorusRateParam.Name:
		s.chorus.SetRate(v)
	case chorusPrefix + modulation.ChorusDepthParam.Name:
		s.chorus.SetDepth(v)
	}

	return nil
}

// Patch returns the live patch. Edits apply from the next block.
func (s *PolySynth) Patch() *Patch { return s.patch }

// Pool returns the voice pool.
func (s *PolySynth) Pool() *Pool[*SynthVoice] { return s.pool }

// SetStep replaces the keys played on one step. No keys makes it a rest.
func (s *PolySynth) SetStep(step int, keys ...int) error {
	if step < 0 || step >= 32 {
		return fmt.Errorf("synth: step out of range: %d", step)
	}

	for len(s.pattern) <= step {
		s.pattern = append(s.pattern, s.pattern...)
		if len(s.pattern) == 0 {
			s.pattern = make([][]int, 16)
		}
	}

	s.pattern[step] = append([]int(nil), keys...)

	return nil
}

// OnStep implements [sequencer.Listener]. Each step releases the keys of the
// previous one, so notes last until the next step.
func (s *PolySynth) OnStep(e sequencer.Event) {
	if e.IsReset() {
		s.pool.ReleaseAll(e.Time)
		s.held = s.held[:0]

		return
	}

	for _, key := range s.held {
		s.pool.NoteOff(key, e.Time)
	}

	s.held = s.held[:0]

	if len(s.pattern) == 0 {
		return
	}

	velocity := 0.8
	if e.Step%4 == 0 {
		velocity = 1
	}

	for _, key := range s.pattern[e.Step%len(s.pattern)] {
		s.pool.NoteOn(key, velocity, e.Time)
		s.held = append(s.held, key)
	}
}

// NoteOn implements [Instrument].
func (s *PolySynth) NoteOn(key int, velocity, t float64) {
	s.pool.NoteOn(key, velocity, t)
}

// NoteOff implements [Instrument].
func (s *PolySynth) NoteOff(key int, t float64) {
	s.pool.NoteOff(key, t)
}

// Render implements [Instrument].
func (s *PolySynth) Render(left, right []float64, t0 float64) {
	n := min(len(left), len(right))
	left, right = left[:n], right[:n]

	s.mono = core.EnsureLen(s.mono, n)
	clear(s.mono)

	s.pool.RenderAdd(s.mono, t0)

	level, _ := s.params.get(LevelParam.Name)
	vecmath.ScaleBlock(s.mono, s.mono, level)

	if s.chorus != nil {
		if err := s.chorus.ProcessStereo(left, right, s.mono); err == nil {
			return
		}
	}

	copy(left, s.mono)
	copy(right, s.mono)
}

// Reset implements [Instrument].
func (s *PolySynth) Reset() {
	s.pool.Reset()
	s.held = s.held[:0]

	if s.chorus != nil {
		s.chorus.Reset()
	}
}
