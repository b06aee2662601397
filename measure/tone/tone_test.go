package tone

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-analog/internal/testutil"
)

func TestNewAnalyzerValidation(t *testing.T) {
	for _, size := range []int{0, 1, 3, 100} {
		if _, err := NewAnalyzer(size); !errors.Is(err, ErrSize) {
			t.Fatalf("size %d: expected ErrSize, got %v", size, err)
		}
	}

	a, err := NewAnalyzer(256)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	if a.Size() != 256 {
		t.Fatalf("Size() = %d, want 256", a.Size())
	}
}

func TestBinHelpers(t *testing.T) {
	if got := BinFrequency(85, 4096, 48000); math.Abs(got-996.09375) > 1e-9 {
		t.Fatalf("BinFrequency = %v", got)
	}

	if got := NearestBin(1000, 48000, 4096); got != 85 {
		t.Fatalf("NearestBin = %d, want 85", got)
	}

	if got := NearestBin(1e9, 48000, 4096); got != 2048 {
		t.Fatalf("NearestBin clamps to Nyquist bin, got %d", got)
	}
}

func TestGainOfScaledTone(t *testing.T) {
	a, err := NewAnalyzer(1024)
	if err != nil {
		t.Fatal(err)
	}

	in := Sine(32, 1024, 1, 1024)
	out := make([]float64, len(in))

	for i, v := range in {
		out[i] = 0.5 * v
	}

	g, err := a.Gain(in, out, 32)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(g-0.5) > 1e-9 {
		t.Fatalf("Gain = %v, want 0.5", g)
	}

	db, err := a.GainDB(in, out, 32)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(db-20*math.Log10(0.5)) > 1e-6 {
		t.Fatalf("GainDB = %v", db)
	}
}

func TestGainErrors(t *testing.T) {
	a, err := NewAnalyzer(64)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Gain(make([]float64, 32), make([]float64, 64), 1); err == nil {
		t.Fatal("expected error for short block")
	}

	if _, err := a.Gain(make([]float64, 64), make([]float64, 64), 40); err == nil {
		t.Fatal("expected error for bin above Nyquist")
	}

	if _, err := a.Gain(make([]float64, 64), make([]float64, 64), 3); err == nil {
		t.Fatal("expected error for silent input")
	}
}

func TestMagnitudesFindsTone(t *testing.T) {
	a, err := NewAnalyzer(512)
	if err != nil {
		t.Fatal(err)
	}

	mag, err := a.Magnitudes(nil, Sine(20, 512, 1, 512))
	if err != nil {
		t.Fatal(err)
	}

	if len(mag) != 257 {
		t.Fatalf("len = %d, want 257", len(mag))
	}

	peak := 0
	for k := range mag {
		if mag[k] > mag[peak] {
			peak = k
		}
	}

	if peak != 20 {
		t.Fatalf("peak bin = %d, want 20", peak)
	}
}

func TestPeakLagOfDelayedNoise(t *testing.T) {
	a, err := NewAnalyzer(4096)
	if err != nil {
		t.Fatal(err)
	}

	const delay = 137

	src := testutil.DeterministicNoise(7, 1, 2048)

	lag, err := a.PeakLag(src[:1024], src[:1024], 0, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if lag != 0 {
		t.Fatalf("aligned blocks: lag = %d, want 0", lag)
	}

	delayed := make([]float64, 2048)
	copy(delayed[delay:], src[:2048-delay])

	lag, err = a.PeakLag(src[:2048], delayed, 0, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if lag != delay {
		t.Fatalf("lag = %d, want %d", lag, delay)
	}
}

func TestPeakLagErrors(t *testing.T) {
	a, err := NewAnalyzer(256)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.PeakLag(make([]float64, 10), make([]float64, 11), 0, 5); err == nil {
		t.Fatal("expected length mismatch error")
	}

	if _, err := a.PeakLag(make([]float64, 200), make([]float64, 200), 0, 100); err == nil {
		t.Fatal("expected size error")
	}

	if _, err := a.PeakLag(make([]float64, 10), make([]float64, 10), 5, 2); err == nil {
		t.Fatal("expected lag range error")
	}
}

func TestResponseOfGain(t *testing.T) {
	a, err := NewAnalyzer(1024)
	if err != nil {
		t.Fatal(err)
	}

	points, err := a.Response(func(dst, src []float64) {
		for i, v := range src {
			dst[i] = 2 * v
		}
	}, 48000, 0.25, 1, []int{10, 100})
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range points {
		if math.Abs(p.GainDB-20*math.Log10(2)) > 1e-6 {
			t.Fatalf("%.1f Hz: gain %.4f dB", p.FrequencyHz, p.GainDB)
		}
	}
}
