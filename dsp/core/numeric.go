package core

import "math"

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// ClampFinite clamps value to [min, max] and substitutes fallback for NaN.
// Infinities clamp to the nearest bound.
//
// Continuous automation may momentarily overshoot a parameter's nominal range,
// so runtime parameters are corrected silently instead of rejected.
func ClampFinite(value, min, max, fallback float64) float64 {
	if math.IsNaN(value) {
		value = fallback
	}

	return Clamp(value, min, max)
}

// IsFinite reports whether x is neither NaN nor an infinity.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// WrapPhase folds phase into [0, 2π).
func WrapPhase(phase float64) float64 {
	const twoPi = 2 * math.Pi
	if phase >= 0 && phase < twoPi {
		return phase
	}

	phase = math.Mod(phase, twoPi)
	if phase < 0 {
		phase += twoPi
	}

	return phase
}
