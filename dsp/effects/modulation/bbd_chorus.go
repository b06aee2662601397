package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/dsp/delay"
	"github.com/cwbudde/algo-analog/dsp/param"
)

// BBDChorusID is the stable processor identifier of the bucket-brigade chorus.
const BBDChorusID = "bbd-chorus"

// ChorusMode selects the bucket-brigade chorus topology.
type ChorusMode int

const (
	// ChorusBypass passes the input through unchanged.
	ChorusBypass ChorusMode = iota
	// ChorusSingle uses one delay line around 15 ms.
	ChorusSingle
	// ChorusDual uses two delay lines around 8 ms with opposite LFO phase.
	ChorusDual
)

func (m ChorusMode) String() string {
	switch m {
	case ChorusBypass:
		return "bypass"
	case ChorusSingle:
		return "single"
	case ChorusDual:
		return "dual"
	default:
		return fmt.Sprintf("ChorusMode(%d)", int(m))
	}
}

const (
	bbdSingleBaseMs  = 15.0
	bbdSingleSwingMs = 6.0
	bbdDualBaseMs    = 8.0
	bbdDualSwingMs   = 4.0
	bbdCapacitySec   = 0.030
	bbdDryMix        = 0.5
	bbdWetMix        = 0.5
)

var (
	// ChorusModeParam describes the block-rate mode selector (0, 1 or 2).
	ChorusModeParam = param.Descriptor{Name: "mode", Default: 1, Min: 0, Max: 2, Rate: param.KRate}
	// ChorusRateParam describes the block-rate LFO frequency in Hz.
	ChorusRateParam = param.Descriptor{Name: "rate", Default: 0.5, Min: 0.1, Max: 10, Rate: param.KRate}
	// ChorusDepthParam describes the block-rate modulation depth.
	ChorusDepthParam = param.Descriptor{Name: "depth", Default: 0.5, Min: 0, Max: 1, Rate: param.KRate}
)

// BBDChorusDescriptors returns the parameter table of the chorus.
func BBDChorusDescriptors() param.Set {
	return param.Set{ChorusModeParam, ChorusRateParam, ChorusDepthParam}
}

// ModeFromValue rounds a continuous parameter value to a chorus mode.
func ModeFromValue(v float64) ChorusMode {
	return ChorusMode(math.Round(ChorusModeParam.Clamp(v)))
}

// BBDChorusOption configures a BBDChorus.
type BBDChorusOption func(*bbdConfig) error

type bbdConfig struct {
	mode  ChorusMode
	rate  float64
	depth float64
}

// WithChorusMode sets the initial topology.
func WithChorusMode(mode ChorusMode) BBDChorusOption {
	return func(cfg *bbdConfig) error {
		if mode < ChorusBypass || mode > ChorusDual {
			return fmt.Errorf("bbd chorus: invalid mode %d", mode)
		}

		cfg.mode = mode

		return nil
	}
}

// WithChorusRate sets the initial LFO rate in Hz.
func WithChorusRate(hz float64) BBDChorusOption {
	return func(cfg *bbdConfig) error {
		if !core.IsFinite(hz) {
			return fmt.Errorf("bbd chorus: rate must be finite: %v", hz)
		}

		cfg.rate = hz

		return nil
	}
}

// WithChorusDepth sets the initial modulation depth.
func WithChorusDepth(depth float64) BBDChorusOption {
	return func(cfg *bbdConfig) error {
		if !core.IsFinite(depth) {
			return fmt.Errorf("bbd chorus: depth must be finite: %v", depth)
		}

		cfg.depth = depth

		return nil
	}
}

// BBDChorus emulates the bucket-brigade chorus of the Juno-106.
//
// Mode 1 reads one line at
//
//	d = 15 ms + depth·6 ms·sin(φ1)
//
// and mixes 0.5·dry + 0.5·wet. Mode 2 reads two lines at
// 8 ms ± depth·4 ms driven by φ1 and φ2 = φ1 + π, one per output channel.
// Both lines share one write cursor.
type BBDChorus struct {
	sampleRate float64

	mode  ChorusMode
	rate  float64
	depth float64

	phase    [2]float64
	phaseInc float64

	line *delay.Line
}

// NewBBDChorus creates a chorus with a 30 ms delay line per channel.
func NewBBDChorus(sampleRate float64, opts ...BBDChorusOption) (*BBDChorus, error) {
	if !core.IsFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("bbd chorus: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := bbdConfig{
		mode:  ChorusMode(ChorusModeParam.Default),
		rate:  ChorusRateParam.Default,
		depth: ChorusDepthParam.Default,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	line, err := delay.New(int(math.Ceil(bbdCapacitySec*sampleRate))+2, delay.WithChannels(2))
	if err != nil {
		return nil, fmt.Errorf("bbd chorus: %w", err)
	}

	c := &BBDChorus{sampleRate: sampleRate, mode: cfg.mode, line: line}
	c.SetRate(cfg.rate)
	c.SetDepth(cfg.depth)
	c.Reset()

	return c, nil
}

// SampleRate returns the sample rate in Hz.
func (c *BBDChorus) SampleRate() float64 { return c.sampleRate }

// Mode returns the active topology.
func (c *BBDChorus) Mode() ChorusMode { return c.mode }

// Rate returns the LFO rate in Hz.
func (c *BBDChorus) Rate() float64 { return c.rate }

// Depth returns the modulation depth in [0, 1].
func (c *BBDChorus) Depth() float64 { return c.depth }

// Capacity returns the per-line delay capacity in samples.
func (c *BBDChorus) Capacity() int { return c.line.Len() }

// SetMode switches topology. Out-of-range modes are clamped.
func (c *BBDChorus) SetMode(mode ChorusMode) {
	c.mode = ModeFromValue(float64(mode))
}

// SetRate updates the LFO rate, clamping it to [0.1, 10] Hz.
func (c *BBDChorus) SetRate(hz float64) {
	c.rate = ChorusRateParam.Clamp(hz)
	c.phaseInc = 2 * math.Pi * c.rate / c.sampleRate
}

// SetDepth updates the modulation depth, clamping it to [0, 1].
func (c *BBDChorus) SetDepth(depth float64) {
	c.depth = ChorusDepthParam.Clamp(depth)
}

// Reset clears both lines and restores the initial LFO phases.
func (c *BBDChorus) Reset() {
	c.line.Reset()
	c.phase = [2]float64{0, math.Pi}
}

// DelayMs returns the current read delay of line 0 or 1 in milliseconds.
// In single mode only line 0 is used.
func (c *BBDChorus) DelayMs(line int) float64 {
	if c.mode == ChorusDual {
		return bbdDualBaseMs + c.depth*bbdDualSwingMs*math.Sin(c.phase[line])
	}

	return bbdSingleBaseMs + c.depth*bbdSingleSwingMs*math.Sin(c.phase[0])
}

func (c *BBDChorus) read(line int) float64 {
	return c.line.ReadFractional(line, c.DelayMs(line)*c.sampleRate/1000)
}

// ProcessSample processes one input sample and returns the left and right
// outputs. In bypass and single mode both outputs are equal.
func (c *BBDChorus) ProcessSample(input float64) (left, right float64) {
	c.line.Write(0, input)
	c.line.Write(1, input)

	switch c.mode {
	case ChorusSingle:
		left = bbdDryMix*input + bbdWetMix*c.read(0)
		right = left
	case ChorusDual:
		left = bbdDryMix*input + bbdWetMix*c.read(0)
		right = bbdDryMix*input + bbdWetMix*c.read(1)
	default:
		left, right = input, input
	}

	if c.mode != ChorusBypass {
		c.phase[0] = core.WrapPhase(c.phase[0] + c.phaseInc)
		c.phase[1] = core.WrapPhase(c.phase[1] + c.phaseInc)
	}

	c.line.Advance()

	return left, right
}

// ProcessMono processes one sample into a single channel. Dual mode folds
// both lines into one output by averaging them.
func (c *BBDChorus) ProcessMono(input float64) float64 {
	left, right := c.ProcessSample(input)
	if c.mode == ChorusDual {
		return 0.5 * (left + right)
	}

	return left
}

// ProcessInPlace processes a mono buffer in place.
func (c *BBDChorus) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessMono(buf[i])
	}
}

// ProcessStereo processes src into left and right. All three slices must have
// the same length.
func (c *BBDChorus) ProcessStereo(left, right, src []float64) error {
	if len(left) != len(src) || len(right) != len(src) {
		return fmt.Errorf("bbd chorus: output lengths %d/%d != input length %d", len(left), len(right), len(src))
	}

	for i, x := range src {
		left[i], right[i] = c.ProcessSample(x)
	}

	return nil
}
