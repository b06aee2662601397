package testutil

import (
	"fmt"
	"math"
	"testing"
)

// Sample is a float32 or float64 audio sample.
type Sample interface {
	~float32 | ~float64
}

// MaxAbsDiff returns the largest absolute difference between a and b.
func MaxAbsDiff[S Sample](a, b []S) (float64, error) {
	d, _, err := worstDiff(a, b)
	return d, err
}

func worstDiff[S Sample](a, b []S) (diff float64, at int, err error) {
	if len(a) != len(b) {
		return 0, -1, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}

	at = -1

	for i := range a {
		if d := math.Abs(float64(a[i]) - float64(b[i])); d > diff || (math.IsNaN(d) && !math.IsNaN(diff)) {
			diff, at = d, i
		}
	}

	return diff, at, nil
}

// RequireSliceNearlyEqual fails t when got and want differ in length or
// when any pair differs by more than eps. The worst sample is reported.
func RequireSliceNearlyEqual[S Sample](t *testing.T, got, want []S, eps float64) {
	t.Helper()

	diff, at, err := worstDiff(got, want)
	if err != nil {
		t.Fatal(err)
	}

	if diff > eps || math.IsNaN(diff) {
		t.Fatalf("index %d: got %v, want %v (diff %g > %g)", at, got[at], want[at], diff, eps)
	}
}

// RequireFinite fails t on the first NaN or Inf sample.
func RequireFinite[S Sample](t *testing.T, data []S) {
	t.Helper()

	for i, v := range data {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
