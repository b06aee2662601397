package moog

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-analog/dsp/param"
	"github.com/cwbudde/algo-analog/internal/testutil"
	"github.com/cwbudde/algo-analog/measure/tone"
)

func TestSaturate(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{3, 1},
		{-3, -1},
		{5, 1},
		{-100, -1},
		{1, 28.0 / 36.0},
	}

	for _, tt := range tests {
		if got := Saturate(tt.in); math.Abs(got-tt.want) > 1e-15 {
			t.Fatalf("Saturate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	prev := Saturate(-4)
	for x := -4.0; x <= 4; x += 0.01 {
		got := Saturate(x)
		if got < prev {
			t.Fatalf("Saturate not monotone at %v", x)
		}

		if math.Abs(got+Saturate(-x)) > 1e-15 {
			t.Fatalf("Saturate not odd at %v", x)
		}

		prev = got
	}

	if math.Abs(Saturate(1e-4)-1e-4) > 1e-12 {
		t.Fatal("Saturate should be identity-like near zero")
	}
}

func TestCoefficients(t *testing.T) {
	tests := []struct {
		name       string
		sr, cutoff float64
		res        float64
		wantFc     float64
	}{
		{"nominal", 48000, 1000, 0, 2000.0 / 48000},
		{"below range", 48000, 1, 0, 40.0 / 48000},
		{"above range", 48000, 1e6, 0, 40000.0 / 48000},
		{"near nyquist", 22050, 20000, 0, 0.999},
		{"nan cutoff", 48000, math.NaN(), 0, 2000.0 / 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, fb := Coefficients(tt.sr, tt.cutoff, tt.res)
			if math.Abs(fc-tt.wantFc) > 1e-12 {
				t.Fatalf("fc = %v, want %v", fc, tt.wantFc)
			}

			if fb != 0 {
				t.Fatalf("fb = %v, want 0", fb)
			}
		})
	}

	fc, fb := Coefficients(48000, 1000, 10)
	if want := 4 * (1 - 0.15*fc*fc); math.Abs(fb-want) > 1e-12 {
		t.Fatalf("resonance not clamped: fb = %v, want %v", fb, want)
	}

	if _, fb := Coefficients(48000, 1000, -1); fb != 0 {
		t.Fatalf("negative resonance: fb = %v, want 0", fb)
	}
}

func TestNewValidation(t *testing.T) {
	for _, sr := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := New(sr); err == nil {
			t.Fatalf("expected error for sample rate %v", sr)
		}
	}

	if _, err := New(48000, WithCutoffHz(math.NaN())); err == nil {
		t.Fatal("expected error for NaN cutoff")
	}

	if _, err := New(48000, WithResonance(math.Inf(1))); err == nil {
		t.Fatal("expected error for Inf resonance")
	}

	f, err := New(48000, WithCutoffHz(50000), WithResonance(9))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if f.CutoffHz() != 20000 || f.Resonance() != 4 {
		t.Fatalf("got cutoff=%v resonance=%v, want clamped 20000/4", f.CutoffHz(), f.Resonance())
	}
}

func TestDescriptors(t *testing.T) {
	set := Descriptors()
	if got := set.Names(); len(got) != 2 || got[0] != "cutoff" || got[1] != "resonance" {
		t.Fatalf("Names() = %v", got)
	}

	for _, d := range set {
		if err := d.Validate(); err != nil {
			t.Fatal(err)
		}

		if d.Rate != param.ARate {
			t.Fatalf("%s should be a-rate", d.Name)
		}
	}
}

func TestOutputFiniteAcrossParameterSweep(t *testing.T) {
	noise := testutil.DeterministicNoise(11, 1, 10000)
	loud := testutil.DeterministicNoise(12, 100, 2000)

	for _, sr := range []float64{44100, 48000, 96000} {
		for _, cutoff := range []float64{20, 200, 2000, 20000} {
			for res := 0.0; res <= 4.0; res += 0.25 {
				f, err := New(sr, WithCutoffHz(cutoff), WithResonance(res))
				if err != nil {
					t.Fatal(err)
				}

				for _, in := range [][]float64{noise, loud} {
					for _, x := range in {
						y := f.ProcessSample(x)
						if math.IsNaN(y) || math.IsInf(y, 0) {
							t.Fatalf("sr=%v cutoff=%v res=%v: non-finite output", sr, cutoff, res)
						}

						for _, s := range f.State().Stage {
							if math.Abs(s) > 6+1e-9 {
								t.Fatalf("sr=%v cutoff=%v res=%v: stage %v escaped bound", sr, cutoff, res, s)
							}
						}
					}
				}
			}
		}
	}
}

func TestNonFiniteInputTreatedAsSilence(t *testing.T) {
	a, _ := New(48000, WithResonance(2))
	b, _ := New(48000, WithResonance(2))

	a.ProcessSample(0.5)
	b.ProcessSample(0.5)

	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got, want := a.ProcessSample(x), b.ProcessSample(0); got != want {
			t.Fatalf("input %v: got %v, want %v", x, got, want)
		}
	}
}

func TestSelfOscillationStaysBounded(t *testing.T) {
	for _, cutoff := range []float64{100, 1000, 5000, 20000} {
		f, err := New(48000, WithCutoffHz(cutoff), WithResonance(4))
		if err != nil {
			t.Fatal(err)
		}

		for _, x := range testutil.DeterministicNoise(3, 1, 4800) {
			f.ProcessSample(x)
		}

		for i := range 48000 {
			y := f.ProcessSample(0)
			if math.IsNaN(y) || math.Abs(y) > 1.2 {
				t.Fatalf("cutoff=%v: sample %d = %v outside bound", cutoff, i, y)
			}
		}
	}
}

func TestDCConvergence(t *testing.T) {
	tests := []struct {
		res  float64
		want func(fb float64) float64
	}{
		{0, func(float64) float64 { return 0.1 }},
		{1, func(fb float64) float64 { return 0.1 / (1 + fb) }},
		{2.5, func(fb float64) float64 { return 0.1 / (1 + fb) }},
	}

	for _, tt := range tests {
		f, err := New(48000, WithCutoffHz(1000), WithResonance(tt.res))
		if err != nil {
			t.Fatal(err)
		}

		var y float64
		for range 48000 {
			y = f.ProcessSample(0.1)
		}

		_, fb := Coefficients(48000, 1000, tt.res)
		if want := tt.want(fb); math.Abs(y-want) > 1e-6 {
			t.Fatalf("res=%v: DC output %v, want %v", tt.res, y, want)
		}
	}
}

func TestToneResponse(t *testing.T) {
	const (
		sampleRate = 48000.0
		size       = 4096
		cutoffBin  = 85
	)

	a, err := tone.NewAnalyzer(size)
	if err != nil {
		t.Fatal(err)
	}

	cutoff := tone.BinFrequency(cutoffBin, size, sampleRate)

	f, err := New(sampleRate, WithCutoffHz(cutoff))
	if err != nil {
		t.Fatal(err)
	}

	points, err := a.Response(func(dst, src []float64) {
		f.Reset()
		f.ProcessTo(dst, src)
	}, sampleRate, 0.1, 1, []int{4, 20, cutoffBin, 2 * cutoffBin})
	if err != nil {
		t.Fatal(err)
	}

	if points[0].GainDB < -3 {
		t.Fatalf("%.1f Hz attenuated by %.2f dB", points[0].FrequencyHz, points[0].GainDB)
	}

	if points[2].GainDB > -3 {
		t.Fatalf("tone at cutoff passed with %.2f dB", points[2].GainDB)
	}

	for i := 1; i < len(points); i++ {
		if points[i].GainDB >= points[i-1].GainDB {
			t.Fatalf("response not falling: %.1f Hz %.2f dB >= %.1f Hz %.2f dB",
				points[i].FrequencyHz, points[i].GainDB, points[i-1].FrequencyHz, points[i-1].GainDB)
		}
	}
}

func TestProcessBlockMatchesPerSample(t *testing.T) {
	const n = 512

	in := testutil.DeterministicNoise(5, 0.8, n)
	cutoff := make(param.Values, n)
	res := make(param.Values, n)

	for i := range cutoff {
		cutoff[i] = 100 + 19000*float64(i)/n
		res[i] = 4 * float64(i) / n
	}

	block, _ := New(48000)
	ref, _ := New(48000)

	got := make([]float64, n)
	if err := block.ProcessBlock(got, in, cutoff, res); err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}

	want := make([]float64, n)
	for i, x := range in {
		want[i] = ref.ProcessSampleWith(x, cutoff[i], res[i])
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 0)

	if block.CutoffHz() != cutoff[n-1] || block.Resonance() != res[n-1] {
		t.Fatalf("stored parameters not updated to last block value")
	}
}

func TestProcessBlockConstantMatchesProcessSample(t *testing.T) {
	in := testutil.DeterministicSine(440, 48000, 0.7, 256)

	block, _ := New(48000)
	ref, _ := New(48000, WithCutoffHz(3000), WithResonance(1.5))

	got := make([]float64, len(in))
	if err := block.ProcessBlock(got, in, param.Constant(3000), param.Constant(1.5)); err != nil {
		t.Fatal(err)
	}

	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = ref.ProcessSample(x)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 0)

	inPlace, _ := New(48000, WithCutoffHz(3000), WithResonance(1.5))
	buf := append([]float64(nil), in...)
	inPlace.ProcessInPlace(buf)
	testutil.RequireSliceNearlyEqual(t, buf, want, 0)
}

func TestProcessBlockErrors(t *testing.T) {
	f, _ := New(48000)

	if err := f.ProcessBlock(make([]float64, 3), make([]float64, 4), nil, nil); err == nil {
		t.Fatal("expected length mismatch error")
	}

	if err := f.ProcessBlock(make([]float64, 4), make([]float64, 4), param.Values{1, 2}, nil); err == nil {
		t.Fatal("expected automation length error")
	}

	if err := f.ProcessBlock(nil, nil, nil, nil); err != nil {
		t.Fatalf("empty block: %v", err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	f, _ := New(48000, WithCutoffHz(800), WithResonance(3))
	in := testutil.DeterministicNoise(9, 1, 300)

	for _, x := range in[:100] {
		f.ProcessSample(x)
	}

	saved := f.State()

	first := make([]float64, 200)
	f.ProcessTo(first, in[100:])

	if err := f.SetState(saved); err != nil {
		t.Fatal(err)
	}

	second := make([]float64, 200)
	f.ProcessTo(second, in[100:])

	testutil.RequireSliceNearlyEqual(t, second, first, 0)

	if err := f.SetState(State{Stage: [4]float64{0, math.NaN(), 0, 0}}); err == nil {
		t.Fatal("expected error for NaN state")
	}

	f.Reset()

	if f.State() != (State{}) {
		t.Fatal("Reset should clear state")
	}
}

func TestStepMatchesFilter(t *testing.T) {
	var s State

	f, _ := New(44100, WithCutoffHz(2500), WithResonance(0.5))

	for _, x := range testutil.DeterministicNoise(2, 1, 128) {
		if got, want := Step(&s, 44100, x, 2500, 0.5), f.ProcessSample(x); got != want {
			t.Fatalf("Step = %v, Filter = %v", got, want)
		}
	}
}

func TestStereoIndependence(t *testing.T) {
	s, err := NewStereo(48000, WithCutoffHz(1200))
	if err != nil {
		t.Fatal(err)
	}

	for range 64 {
		l, r := s.ProcessSample(1, 0)
		if r != 0 {
			t.Fatalf("right channel leaked: %v", r)
		}

		if l == 0 {
			t.Fatal("left channel silent")
		}
	}

	s.Reset()

	if s.Left().State() != (State{}) || s.Right().State() != (State{}) {
		t.Fatal("Reset should clear both channels")
	}
}

func TestSilenceSettlesToZero(t *testing.T) {
	var s State

	Step(&s, 48000, 1, 1000, 0)

	if s.Stage[0] == 0 {
		t.Fatal("impulse did not reach the ladder")
	}

	for range 20000 {
		Step(&s, 48000, 0, 1000, 0)
	}

	for i, v := range s.Stage {
		if v != 0 {
			t.Fatalf("stage %d = %g after silence, want exactly 0", i, v)
		}
	}
}
