package interp

// Linear2 interpolates between x0 and x1 at fraction t in [0, 1].
//
// The weighted form x0*(1-t) + x1*t is used instead of x0 + t*(x1-x0) so the
// result is exactly x0 at t=0 and exactly x1 at t=1.
func Linear2(t, x0, x1 float64) float64 {
	return x0*(1-t) + x1*t
}
