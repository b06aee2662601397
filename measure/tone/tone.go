package tone

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// ErrSize is returned for analysis sizes that are not a power of two >= 2.
var ErrSize = errors.New("tone: size must be a power of two >= 2")

// Analyzer owns an FFT plan and scratch buffers of a fixed size.
// It is not safe for concurrent use.
type Analyzer struct {
	size int
	plan *algofft.Plan[complex128]

	timeA []complex128
	timeB []complex128
	freqA []complex128
	freqB []complex128

	re []float64
	im []float64
}

// NewAnalyzer creates an analyzer for blocks of size samples.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("tone: failed to create FFT plan: %w", err)
	}

	return &Analyzer{
		size:  size,
		plan:  plan,
		timeA: make([]complex128, size),
		timeB: make([]complex128, size),
		freqA: make([]complex128, size),
		freqB: make([]complex128, size),
		re:    make([]float64, size/2+1),
		im:    make([]float64, size/2+1),
	}, nil
}

// Size returns the analysis size.
func (a *Analyzer) Size() int { return a.size }

// BinFrequency returns the centre frequency of bin for the given size.
func BinFrequency(bin, size int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(size)
}

// NearestBin returns the bin whose centre is closest to freqHz.
func NearestBin(freqHz, sampleRate float64, size int) int {
	bin := int(math.Round(freqHz * float64(size) / sampleRate))
	return max(0, min(bin, size/2))
}

// Sine returns length samples of a sine that completes exactly bin cycles
// every size samples.
func Sine(bin, size int, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * float64(bin) / float64(size)
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

func (a *Analyzer) forward(dst []complex128, src []complex128, x []float64) error {
	if len(x) > a.size {
		return fmt.Errorf("tone: block length %d exceeds size %d", len(x), a.size)
	}

	for i := range src {
		src[i] = 0
	}

	for i, v := range x {
		src[i] = complex(v, 0)
	}

	if err := a.plan.Forward(dst, src); err != nil {
		return fmt.Errorf("tone: forward FFT failed: %w", err)
	}

	return nil
}

// Magnitudes writes |X[k]| for bins 0..size/2 of x into dst and returns it.
// x may be shorter than size; it is zero padded.
func (a *Analyzer) Magnitudes(dst, x []float64) ([]float64, error) {
	if err := a.forward(a.freqA, a.timeA, x); err != nil {
		return nil, err
	}

	bins := a.size/2 + 1
	dst = core.EnsureLen(dst, bins)

	for k := range bins {
		a.re[k] = real(a.freqA[k])
		a.im[k] = imag(a.freqA[k])
	}

	vecmath.Magnitude(dst, a.re, a.im)

	return dst, nil
}

// Gain returns |OUT[bin]| / |IN[bin]| for two blocks of exactly size samples.
func (a *Analyzer) Gain(in, out []float64, bin int) (float64, error) {
	if len(in) != a.size || len(out) != a.size {
		return 0, fmt.Errorf("tone: gain needs two %d-sample blocks, got %d and %d", a.size, len(in), len(out))
	}

	if bin < 0 || bin > a.size/2 {
		return 0, fmt.Errorf("tone: bin %d out of range [0, %d]", bin, a.size/2)
	}

	if err := a.forward(a.freqA, a.timeA, in); err != nil {
		return 0, err
	}

	if err := a.forward(a.freqB, a.timeB, out); err != nil {
		return 0, err
	}

	ref := cmplx.Abs(a.freqA[bin])
	if ref == 0 {
		return 0, fmt.Errorf("tone: input has no energy at bin %d", bin)
	}

	return cmplx.Abs(a.freqB[bin]) / ref, nil
}

// GainDB is [Analyzer.Gain] in decibels.
func (a *Analyzer) GainDB(in, out []float64, bin int) (float64, error) {
	g, err := a.Gain(in, out, bin)
	if err != nil {
		return 0, err
	}

	return core.LinearToDB(g), nil
}

// PeakLag returns the lag in [minLag, maxLag] at which sig best matches ref
// delayed by that lag. Both blocks are zero padded to the analysis size, so
// len(ref)+maxLag must not exceed it.
func (a *Analyzer) PeakLag(ref, sig []float64, minLag, maxLag int) (int, error) {
	if minLag < 0 || maxLag < minLag {
		return 0, fmt.Errorf("tone: invalid lag range [%d, %d]", minLag, maxLag)
	}

	if len(ref) != len(sig) {
		return 0, fmt.Errorf("tone: ref length %d != sig length %d", len(ref), len(sig))
	}

	if len(ref)+maxLag > a.size {
		return 0, fmt.Errorf("tone: %d samples plus lag %d exceed size %d", len(ref), maxLag, a.size)
	}

	if err := a.forward(a.freqA, a.timeA, ref); err != nil {
		return 0, err
	}

	if err := a.forward(a.freqB, a.timeB, sig); err != nil {
		return 0, err
	}

	for k := range a.freqA {
		a.freqA[k] = cmplx.Conj(a.freqA[k]) * a.freqB[k]
	}

	if err := a.plan.Inverse(a.timeA, a.freqA); err != nil {
		return 0, fmt.Errorf("tone: inverse FFT failed: %w", err)
	}

	best := minLag
	bestVal := math.Inf(-1)

	for lag := minLag; lag <= maxLag; lag++ {
		if v := real(a.timeA[lag]); v > bestVal {
			best = lag
			bestVal = v
		}
	}

	return best, nil
}

// Point is one measured response value.
type Point struct {
	FrequencyHz float64
	GainDB      float64
}

// Response drives process with bin-centred tones and returns the steady-state
// gain per bin. process is reset by the caller between tones if required; each
// tone runs for settle full blocks before the measured block.
func (a *Analyzer) Response(process func(dst, src []float64), sampleRate, amplitude float64, settle int, bins []int) ([]Point, error) {
	if process == nil {
		return nil, errors.New("tone: nil process function")
	}

	if settle < 0 {
		settle = 0
	}

	total := (settle + 1) * a.size
	out := make([]float64, total)
	points := make([]Point, 0, len(bins))

	for _, bin := range bins {
		in := Sine(bin, a.size, amplitude, total)
		process(out, in)

		tail := total - a.size

		g, err := a.GainDB(in[tail:], out[tail:], bin)
		if err != nil {
			return nil, err
		}

		points = append(points, Point{FrequencyHz: BinFrequency(bin, a.size, sampleRate), GainDB: g})
	}

	return points, nil
}
