package korg

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/dsp/param"
)

// ID is the stable processor identifier of the hard-clip ladder.
const ID = "korg-filter"

const (
	defaultCutoffHz = 1000.0
	defaultPeak     = 0.0

	maxCutoffRatio = 0.49
	feedbackScale  = 4.0
	clipDrive      = 0.7
)

var (
	// CutoffParam describes the audio-rate cutoff frequency in Hz.
	CutoffParam = param.Descriptor{
		Name: "cutoff", Default: defaultCutoffHz, Min: 20, Max: 20000, Rate: param.ARate,
	}
	// PeakParam describes the audio-rate peak (feedback) amount.
	PeakParam = param.Descriptor{
		Name: "peak", Default: defaultPeak, Min: 0, Max: 4, Rate: param.ARate,
	}
)

// Descriptors returns the parameter table of the filter.
func Descriptors() param.Set {
	return param.Set{CutoffParam, PeakParam}
}

// Clip is the stage nonlinearity: 0.7·x limited to [-1, 1].
func Clip(x float64) float64 {
	return core.Clamp(clipDrive*x, -1, 1)
}

// Coefficients returns the one-pole gain G and the feedback amount.
func Coefficients(sampleRate, cutoffHz, peak float64) (gain, fb float64) {
	cutoffHz = CutoffParam.Clamp(cutoffHz)
	cutoffHz = math.Min(cutoffHz, maxCutoffRatio*sampleRate)

	g := math.Tan(math.Pi * cutoffHz / sampleRate)

	return g / (1 + g), PeakParam.Clamp(peak) * feedbackScale
}

// State holds the four stage values of one filter.
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
func Step(s *State, sampleRate, input, cutoffHz, peak float64) float64 {
	gain, fb := Coefficients(sampleRate, cutoffHz, peak)
	return s.tick(input, gain, fb)
}

func (s *State) tick(input, gain, fb float64) float64 {
	if !core.IsFinite(input) {
		input = 0
	}

	u := input - fb*s.Stage[3]

	s.Stage[0] += gain * (Clip(u) - s.Stage[0])
	s.Stage[1] += gain * (Clip(s.Stage[0]) - s.Stage[1])
	s.Stage[2] += gain * (Clip(s.Stage[1]) - s.Stage[2])
	s.Stage[3] += gain * (Clip(s.Stage[2]) - s.Stage[3])

	for i := range s.Stage {
		s.Stage[i] = core.FlushDenormals(s.Stage[i])
	}

	return s.Stage[3]
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	cutoffHz float64
	peak     float64
}

// WithCutoffHz sets the initial cutoff in Hz.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if !core.IsFinite(cutoffHz) {
			return fmt.Errorf("korg: cutoff must be finite: %v", cutoffHz)
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithPeak sets the initial peak amount.
func WithPeak(peak float64) Option {
	return func(cfg *config) error {
		if !core.IsFinite(peak) {
			return fmt.Errorf("korg: peak must be finite: %v", peak)
		}

		cfg.peak = peak

		return nil
	}
}

// Filter is a per-voice hard-clip ladder.
type Filter struct {
	sampleRate float64
	cutoffHz   float64
	peak       float64

	gain float64
	fb   float64

	state State
}

// New constructs a hard-clip ladder filter.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !core.IsFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("korg: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := config{cutoffHz: defaultCutoffHz, peak: defaultPeak}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &Filter{sampleRate: sampleRate}
	f.cutoffHz = CutoffParam.Clamp(cfg.cutoffHz)
	f.peak = PeakParam.Clamp(cfg.peak)
	f.update()

	return f, nil
}

func (f *Filter) update() {
	f.gain, f.fb = Coefficients(f.sampleRate, f.cutoffHz, f.peak)
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// CutoffHz returns the clamped cutoff in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Peak returns the clamped peak amount.
func (f *Filter) Peak() float64 { return f.peak }

// SetCutoffHz updates the cutoff, clamping it silently.
func (f *Filter) SetCutoffHz(cutoffHz float64) {
	f.cutoffHz = CutoffParam.Clamp(cutoffHz)
	f.update()
}

// SetPeak updates the peak amount, clamping it silently.
func (f *Filter) SetPeak(peak float64) {
	f.peak = PeakParam.Clamp(peak)
	f.update()
}

// Reset clears the filter state.
func (f *Filter) Reset() { f.state = State{} }

// State returns a copy of the current state.
func (f *Filter) State() State { return f.state }

// SetState restores an externally saved state.
func (f *Filter) SetState(state State) error {
	if !state.IsFinite() {
		return fmt.Errorf("korg: state contains NaN or Inf")
	}

	f.state = state

	return nil
}

// ProcessSample processes one sample with the stored parameters.
func (f *Filter) ProcessSample(input float64) float64 {
	return f.state.tick(input, f.gain, f.fb)
}

// ProcessSampleWith processes one sample with per-sample parameters.
func (f *Filter) ProcessSampleWith(input, cutoffHz, peak float64) float64 {
	return Step(&f.state, f.sampleRate, input, cutoffHz, peak)
}

// ProcessInPlace processes buf in place with the stored parameters.
func (f *Filter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.state.tick(buf[i], f.gain, f.fb)
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
		dst[i] = f.state.tick(x, f.gain, f.fb)
	}
}

// ProcessBlock filters src into dst. cutoff and peak carry one value for the
// whole block or one per sample.
func (f *Filter) ProcessBlock(dst, src []float64, cutoff, peak param.Values) error {
	n := len(src)
	if len(dst) != n {
		return fmt.Errorf("korg: dst length %d != src length %d", len(dst), n)
	}

	if err := cutoff.Check(CutoffParam, n); err != nil {
		return err
	}

	if err := peak.Check(PeakParam, n); err != nil {
		return err
	}

	if n == 0 {
		return nil
	}

	if cutoff.IsConstant() && peak.IsConstant() {
		f.cutoffHz = CutoffParam.Clamp(cutoff.At(0))
		f.peak = PeakParam.Clamp(peak.At(0))
		f.update()
		f.ProcessTo(dst, src)

		return nil
	}

	for i, x := range src {
		dst[i] = Step(&f.state, f.sampleRate, x, cutoff.At(i), peak.At(i))
	}

	f.cutoffHz = CutoffParam.Clamp(cutoff.At(n - 1))
	f.peak = PeakParam.Clamp(peak.At(n - 1))
	f.update()

	return nil
}

// Stereo runs one filter per channel with independent state.
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
