package moog

import (
	"fmt"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/dsp/param"
)

// ID is the stable processor identifier of the saturating ladder.
const ID = "moog-ladder"

const (
	defaultCutoffHz  = 1000.0
	defaultResonance = 0.0

	minCutoffHz  = 20.0
	maxCutoffHz  = 20000.0
	maxResonance = 4.0

	maxNormalizedCutoff = 0.999
	feedbackRolloff     = 0.15
)

var (
	// CutoffParam describes the audio-rate cutoff frequency in Hz.
	CutoffParam = param.Descriptor{
		Name: "cutoff", Default: defaultCutoffHz, Min: minCutoffHz, Max: maxCutoffHz, Rate: param.ARate,
	}
	// ResonanceParam describes the audio-rate feedback amount.
	ResonanceParam = param.Descriptor{
		Name: "resonance", Default: defaultResonance, Min: 0, Max: maxResonance, Rate: param.ARate,
	}
)

// Descriptors returns the parameter table of the ladder.
func Descriptors() param.Set {
	return param.Set{CutoffParam, ResonanceParam}
}

// Saturate is the rational tanh-like nonlinearity of the ladder stages.
func Saturate(x float64) float64 {
	if x > 3 {
		return 1
	}

	if x < -3 {
		return -1
	}

	x2 := x * x

	return x * (27 + x2) / (27 + 9*x2)
}

// Coefficients returns the clamped normalized frequency and the feedback
// coefficient for the given parameters.
func Coefficients(sampleRate, cutoffHz, resonance float64) (fc, fb float64) {
	cutoffHz = CutoffParam.Clamp(cutoffHz)
	resonance = ResonanceParam.Clamp(resonance)

	fc = 2 * cutoffHz / sampleRate
	if fc > maxNormalizedCutoff {
		fc = maxNormalizedCutoff
	}

	fb = resonance * (1 - feedbackRolloff*fc*fc)

	return fc, fb
}

// State holds the four stage outputs of one ladder.
type State struct {
	Stage [4]float64
}

// IsFinite reports whether every stage value is finite.
func (s State) IsFinite() bool {
	for _, v := range s.Stage {
		if !core.IsFinite(v) {
			return false
		}
	}

	return true
}

// Step advances s by one sample and returns the fourth-stage output.
func Step(s *State, sampleRate, input, cutoffHz, resonance float64) float64 {
	fc, fb := Coefficients(sampleRate, cutoffHz, resonance)
	return s.tick(input, fc, fb)
}

func (s *State) tick(input, fc, fb float64) float64 {
	if !core.IsFinite(input) {
		input = 0
	}

	x := input - fb*s.Stage[3]

	s.Stage[0] += fc * (Saturate(x*0.5) - Saturate(s.Stage[0]*0.5))
	s.Stage[1] += fc * (Saturate(s.Stage[0]*0.5) - Saturate(s.Stage[1]*0.5))
	s.Stage[2] += fc * (Saturate(s.Stage[1]*0.5) - Saturate(s.Stage[2]*0.5))
	s.Stage[3] += fc * (Saturate(s.Stage[2]*0.5) - Saturate(s.Stage[3]*0.5))

	for i := range s.Stage {
		s.Stage[i] = core.FlushDenormals(s.Stage[i])
	}

	return s.Stage[3]
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	cutoffHz  float64
	resonance float64
}

// WithCutoffHz sets the initial cutoff in Hz. Must be finite; the value is
// clamped to [20, 20000].
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if !core.IsFinite(cutoffHz) {
			return fmt.Errorf("moog: cutoff must be finite: %v", cutoffHz)
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithResonance sets the initial resonance. Must be finite; the value is
// clamped to [0, 4].
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if !core.IsFinite(resonance) {
			return fmt.Errorf("moog: resonance must be finite: %v", resonance)
		}

		cfg.resonance = resonance

		return nil
	}
}

// Filter is a per-voice saturating ladder with persistent stage state.
type Filter struct {
	sampleRate float64
	cutoffHz   float64
	resonance  float64

	fc float64
	fb float64

	state State
}

// New constructs a ladder filter.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !core.IsFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("moog: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := config{cutoffHz: defaultCutoffHz, resonance: defaultResonance}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &Filter{sampleRate: sampleRate}
	f.SetCutoffHz(cfg.cutoffHz)
	f.SetResonance(cfg.resonance)

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// CutoffHz returns the clamped cutoff in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Resonance returns the clamped resonance.
func (f *Filter) Resonance() float64 { return f.resonance }

// SetCutoffHz updates the cutoff, clamping it silently.
func (f *Filter) SetCutoffHz(cutoffHz float64) {
	f.cutoffHz = CutoffParam.Clamp(cutoffHz)
	f.fc, f.fb = Coefficients(f.sampleRate, f.cutoffHz, f.resonance)
}

// SetResonance updates the resonance, clamping it silently.
func (f *Filter) SetResonance(resonance float64) {
	f.resonance = ResonanceParam.Clamp(resonance)
	f.fc, f.fb = Coefficients(f.sampleRate, f.cutoffHz, f.resonance)
}

// Reset clears the ladder state.
func (f *Filter) Reset() {
	f.state = State{}
}

// State returns a copy of the current stage state.
func (f *Filter) State() State {
	return f.state
}

// SetState restores an externally saved state.
func (f *Filter) SetState(state State) error {
	if !state.IsFinite() {
		return fmt.Errorf("moog: state contains NaN or Inf")
	}

	f.state = state

	return nil
}

// ProcessSample processes one sample with the stored parameters.
func (f *Filter) ProcessSample(input float64) float64 {
	return f.state.tick(input, f.fc, f.fb)
}

// ProcessSampleWith processes one sample with per-sample parameters. The
// stored parameters are left untouched.
func (f *Filter) ProcessSampleWith(input, cutoffHz, resonance float64) float64 {
	return Step(&f.state, f.sampleRate, input, cutoffHz, resonance)
}

// ProcessInPlace processes a mono buffer in place with the stored parameters.
func (f *Filter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.state.tick(buf[i], f.fc, f.fb)
	}
}

// ProcessTo processes src into dst. Both slices must have the same length.
func (f *Filter) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]
	for i, x := range src {
		dst[i] = f.state.tick(x, f.fc, f.fb)
	}
}

// ProcessBlock filters src into dst with block-level parameter values.
// cutoff and resonance each carry one value for the whole block or one value
// per sample. The stored parameters follow the last value of the block.
func (f *Filter) ProcessBlock(dst, src []float64, cutoff, resonance param.Values) error {
	n := len(src)
	if len(dst) != n {
		return fmt.Errorf("moog: dst length %d != src length %d", len(dst), n)
	}

	if err := cutoff.Check(CutoffParam, n); err != nil {
		return err
	}

	if err := resonance.Check(ResonanceParam, n); err != nil {
		return err
	}

	if n == 0 {
		return nil
	}

	if cutoff.IsConstant() && resonance.IsConstant() {
		f.SetCutoffHz(cutoff.At(0))
		f.SetResonance(resonance.At(0))
		f.ProcessTo(dst, src)

		return nil
	}

	for i, x := range src {
		dst[i] = Step(&f.state, f.sampleRate, x, cutoff.At(i), resonance.At(i))
	}

	f.SetCutoffHz(cutoff.At(n - 1))
	f.SetResonance(resonance.At(n - 1))

	return nil
}

// Stereo runs one ladder per channel with independent state.
type Stereo struct {
	left  *Filter
	right *Filter
}

// NewStereo constructs a stereo helper with independent left/right state.
func NewStereo(sampleRate float64, opts ...Option) (*Stereo, error) {
	left, err := New(sampleRate, opts...)
	if err != nil {
		return nil, err
	}

	right, err := New(sampleRate, opts...)
	if err != nil {
		return nil, err
	}

	return &Stereo{left: left, right: right}, nil
}

// Left returns the left-channel filter.
func (s *Stereo) Left() *Filter { return s.left }

// Right returns the right-channel filter.
func (s *Stereo) Right() *Filter { return s.right }

// Reset clears both channel states.
func (s *Stereo) Reset() {
	s.left.Reset()
	s.right.Reset()
}

// ProcessSample processes one stereo sample frame.
func (s *Stereo) ProcessSample(leftIn, rightIn float64) (leftOut, rightOut float64) {
	return s.left.ProcessSample(leftIn), s.right.ProcessSample(rightIn)
}
