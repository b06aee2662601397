package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	d, err := MaxAbsDiff([]float64{1, 2, 3}, []float64{1, 2.5, 2.9})
	if err != nil {
		t.Fatalf("MaxAbsDiff: %v", err)
	}

	if math.Abs(d-0.5) > 1e-15 {
		t.Fatalf("diff = %v want 0.5", d)
	}

	if _, err := MaxAbsDiff([]float32{1}, []float32{1, 2}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestWorstDiffReportsIndex(t *testing.T) {
	_, at, err := worstDiff([]float32{0, 0, 0}, []float32{0.1, -0.3, 0.2})
	if err != nil || at != 1 {
		t.Fatalf("at=%d err=%v want 1", at, err)
	}

	d, at, _ := worstDiff([]float64{1, math.NaN()}, []float64{1, 0})
	if at != 1 || !math.IsNaN(d) {
		t.Fatalf("NaN not reported: d=%v at=%d", d, at)
	}
}

func TestRequireHelpersAcceptCleanData(t *testing.T) {
	RequireSliceNearlyEqual(t, []float32{0.5, 1}, []float32{0.5, 1}, 0)
	RequireFinite(t, []float64{0, -1, 1e300})
}
