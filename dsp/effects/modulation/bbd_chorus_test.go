package modulation

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-analog/internal/testutil"
	"github.com/cwbudde/algo-analog/measure/tone"
)

// impulseLags feeds one impulse every spacing samples and returns, per impulse,
// the lag of the largest wet response on each output channel.
func impulseLags(t *testing.T, c *BBDChorus, count, spacing int) (left, right []int) {
	t.Helper()

	for range count {
		bestL, bestR := 0, 0
		peakL, peakR := 0.0, 0.0

		for n := range spacing {
			x := 0.0
			if n == 0 {
				x = 1
			}

			l, r := c.ProcessSample(x)
			if n == 0 {
				continue
			}

			if math.Abs(l) > peakL {
				bestL, peakL = n, math.Abs(l)
			}

			if math.Abs(r) > peakR {
				bestR, peakR = n, math.Abs(r)
			}
		}

		left = append(left, bestL)
		right = append(right, bestR)
	}

	return left, right
}

func TestBBDChorusValidation(t *testing.T) {
	if _, err := NewBBDChorus(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewBBDChorus(48000, WithChorusMode(3)); err == nil {
		t.Fatal("expected error for invalid mode")
	}

	if _, err := NewBBDChorus(48000, WithChorusRate(math.NaN())); err == nil {
		t.Fatal("expected error for NaN rate")
	}

	if _, err := NewBBDChorus(48000, WithChorusDepth(math.Inf(1))); err == nil {
		t.Fatal("expected error for Inf depth")
	}

	c, err := NewBBDChorus(48000)
	if err != nil {
		t.Fatal(err)
	}

	if c.Mode() != ChorusSingle || c.Rate() != 0.5 || c.Depth() != 0.5 {
		t.Fatalf("unexpected defaults: mode=%v rate=%v depth=%v", c.Mode(), c.Rate(), c.Depth())
	}

	if float64(c.Capacity()) < 0.030*48000 {
		t.Fatalf("capacity %d below 30 ms", c.Capacity())
	}
}

func TestBBDChorusParameterClamping(t *testing.T) {
	c, _ := NewBBDChorus(48000)

	c.SetRate(100)
	c.SetDepth(-1)
	c.SetMode(7)

	if c.Rate() != 10 || c.Depth() != 0 || c.Mode() != ChorusDual {
		t.Fatalf("got rate=%v depth=%v mode=%v", c.Rate(), c.Depth(), c.Mode())
	}

	c.SetMode(-4)

	if c.Mode() != ChorusBypass {
		t.Fatalf("mode = %v, want bypass", c.Mode())
	}

	tests := []struct {
		in   float64
		want ChorusMode
	}{
		{0, ChorusBypass},
		{1.4, ChorusSingle},
		{1.6, ChorusDual},
		{math.NaN(), ChorusSingle},
		{-3, ChorusBypass},
	}

	for _, tt := range tests {
		if got := ModeFromValue(tt.in); got != tt.want {
			t.Fatalf("ModeFromValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBBDChorusBypassIsExact(t *testing.T) {
	for _, rate := range []float64{0.1, 3, 10} {
		for _, depth := range []float64{0, 0.5, 1} {
			c, _ := NewBBDChorus(44100, WithChorusMode(ChorusBypass), WithChorusRate(rate), WithChorusDepth(depth))

			for i, x := range testutil.DeterministicNoise(1, 1, 4096) {
				l, r := c.ProcessSample(x)
				if l != x || r != x {
					t.Fatalf("rate=%v depth=%v sample %d: got (%v, %v), want %v", rate, depth, i, l, r, x)
				}
			}
		}
	}
}

func TestBBDChorusSingleDelayRange(t *testing.T) {
	const sr = 48000.0

	c, _ := NewBBDChorus(sr, WithChorusMode(ChorusSingle), WithChorusRate(0.5), WithChorusDepth(1))

	lags, _ := impulseLags(t, c, 140, 1440)

	lo := int(math.Floor(0.009*sr)) - 1
	hi := int(math.Ceil(0.021*sr)) + 1
	minLag, maxLag := math.MaxInt, 0

	for i, lag := range lags {
		if lag < lo || lag > hi {
			t.Fatalf("impulse %d: lag %d outside [%d, %d]", i, lag, lo, hi)
		}

		minLag = min(minLag, lag)
		maxLag = max(maxLag, lag)
	}

	if float64(minLag) > 0.0095*sr || float64(maxLag) < 0.0205*sr {
		t.Fatalf("sweep did not cover the range: min %d max %d", minLag, maxLag)
	}
}

func TestBBDChorusDualLinesMirror(t *testing.T) {
	const sr = 48000.0

	c, _ := NewBBDChorus(sr, WithChorusMode(ChorusDual), WithChorusRate(0.5), WithChorusDepth(1))

	left, right := impulseLags(t, c, 100, 960)

	lo := int(math.Floor(0.004*sr)) - 1
	hi := int(math.Ceil(0.012*sr)) + 1

	for i := range left {
		if left[i] < lo || left[i] > hi || right[i] < lo || right[i] > hi {
			t.Fatalf("impulse %d: lags %d/%d outside [%d, %d]", i, left[i], right[i], lo, hi)
		}

		// Opposite LFO phases keep the two delays summing to 16 ms.
		if sum := left[i] + right[i]; math.Abs(float64(sum)-0.016*sr) > 10 {
			t.Fatalf("impulse %d: lag sum %d, want about %v", i, sum, 0.016*sr)
		}
	}
}

func TestBBDChorusFractionalRead(t *testing.T) {
	// 15 ms at 44.1 kHz is 661.5 samples, so the impulse splits evenly
	// across two neighbouring outputs.
	c, _ := NewBBDChorus(44100, WithChorusDepth(0))

	out := testutil.Impulse(700, 0)
	c.ProcessInPlace(out)

	for i, y := range out {
		want := 0.0

		switch i {
		case 0:
			want = 0.5
		case 661, 662:
			want = 0.25
		}

		if y != want {
			t.Fatalf("out[%d] = %v, want %v", i, y, want)
		}
	}
}

func TestBBDChorusNoiseCorrelationPeak(t *testing.T) {
	const sr = 48000.0

	c, _ := NewBBDChorus(sr, WithChorusDepth(0))
	a, err := tone.NewAnalyzer(4096)
	if err != nil {
		t.Fatal(err)
	}

	in := testutil.DeterministicNoise(5, 1, 8192)
	out := make([]float64, len(in))

	for i, x := range in {
		out[i] = c.ProcessMono(x)
	}

	lag, err := a.PeakLag(in[4096:6144], out[4096:6144], 48, 1500)
	if err != nil {
		t.Fatal(err)
	}

	if lag != 720 {
		t.Fatalf("correlation peak at %d samples, want 720", lag)
	}
}

func TestBBDChorusSweptCorrelationLag(t *testing.T) {
	const (
		sr      = 48000.0
		window  = 512
		maxLag  = 1500
		spacing = 8192
	)

	// One full LFO period at the slowest rate.
	c, _ := NewBBDChorus(sr, WithChorusMode(ChorusSingle), WithChorusRate(0.1), WithChorusDepth(1))
	a, err := tone.NewAnalyzer(4096)
	if err != nil {
		t.Fatal(err)
	}

	in := testutil.DeterministicNoise(6, 1, 480000)
	wet := make([]float64, len(in))

	for i, x := range in {
		wet[i] = (c.ProcessMono(x) - bbdDryMix*x) / bbdWetMix
	}

	ref := make([]float64, window+maxLag)
	lo, hi := 432, 1008
	minLag, maxLagSeen := math.MaxInt, 0

	for start := 2048; start+window+maxLag <= len(in); start += spacing {
		copy(ref, in[start:start+window])

		lag, err := a.PeakLag(ref, wet[start:start+window+maxLag], 48, maxLag)
		if err != nil {
			t.Fatal(err)
		}

		if lag < lo || lag > hi {
			t.Fatalf("window at %d: correlation lag %d outside [%d, %d]", start, lag, lo, hi)
		}

		minLag = min(minLag, lag)
		maxLagSeen = max(maxLagSeen, lag)
	}

	if minLag > 460 || maxLagSeen < 980 {
		t.Fatalf("sweep did not cover the range: min %d max %d", minLag, maxLagSeen)
	}
}

func TestBBDChorusBypassHoldsPhaseAndFillsLine(t *testing.T) {
	const sr = 48000.0

	c, _ := NewBBDChorus(sr, WithChorusMode(ChorusBypass), WithChorusRate(1), WithChorusDepth(1))
	in := testutil.DeterministicNoise(7, 1, 1001)

	for _, x := range in[:1000] {
		c.ProcessSample(x)
	}

	c.SetMode(ChorusSingle)

	if got := c.DelayMs(0); got != bbdSingleBaseMs {
		t.Fatalf("DelayMs after bypass = %v, want %v", got, bbdSingleBaseMs)
	}

	// 15 ms is exactly 720 samples, read from audio written during bypass.
	want := bbdDryMix*in[1000] + bbdWetMix*in[1000-720]
	if got := c.ProcessMono(in[1000]); math.Abs(got-want) > 1e-12 {
		t.Fatalf("first sample after bypass = %v, want %v", got, want)
	}

	if got := c.DelayMs(0); got == bbdSingleBaseMs {
		t.Fatal("phase did not advance in single mode")
	}
}

func TestBBDChorusMonoFallbackAveragesLines(t *testing.T) {
	stereo, _ := NewBBDChorus(48000, WithChorusMode(ChorusDual), WithChorusDepth(0.8), WithChorusRate(2))
	mono, _ := NewBBDChorus(48000, WithChorusMode(ChorusDual), WithChorusDepth(0.8), WithChorusRate(2))

	for i, x := range testutil.DeterministicNoise(9, 1, 6000) {
		l, r := stereo.ProcessSample(x)
		if got, want := mono.ProcessMono(x), 0.5*(l+r); got != want {
			t.Fatalf("sample %d: mono %v, want %v", i, got, want)
		}
	}
}

func TestBBDChorusProcessStereo(t *testing.T) {
	c, _ := NewBBDChorus(48000, WithChorusMode(ChorusDual))
	ref, _ := NewBBDChorus(48000, WithChorusMode(ChorusDual))

	src := testutil.DeterministicSine(330, 48000, 0.5, 2000)
	left := make([]float64, len(src))
	right := make([]float64, len(src))

	if err := c.ProcessStereo(left, right, src); err != nil {
		t.Fatal(err)
	}

	for i, x := range src {
		l, r := ref.ProcessSample(x)
		if left[i] != l || right[i] != r {
			t.Fatalf("sample %d differs", i)
		}
	}

	if err := c.ProcessStereo(left[:1], right, src); err == nil {
		t.Fatal("expected length error")
	}
}

func TestBBDChorusResetRestoresInitialState(t *testing.T) {
	c, _ := NewBBDChorus(48000, WithChorusMode(ChorusDual), WithChorusDepth(1))
	fresh, _ := NewBBDChorus(48000, WithChorusMode(ChorusDual), WithChorusDepth(1))

	for _, x := range testutil.DeterministicNoise(3, 1, 5000) {
		c.ProcessSample(x)
	}

	c.Reset()

	for i, x := range testutil.DeterministicNoise(4, 1, 3000) {
		l1, r1 := c.ProcessSample(x)
		l2, r2 := fresh.ProcessSample(x)

		if l1 != l2 || r1 != r2 {
			t.Fatalf("sample %d differs after Reset", i)
		}
	}
}

func TestBBDChorusDescriptors(t *testing.T) {
	set := BBDChorusDescriptors()
	if got := set.Names(); len(got) != 3 || got[0] != "mode" || got[1] != "rate" || got[2] != "depth" {
		t.Fatalf("Names() = %v", got)
	}

	for _, d := range set {
		if err := d.Validate(); err != nil {
			t.Fatal(err)
		}
	}
}
