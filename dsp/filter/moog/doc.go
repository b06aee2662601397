// Package moog provides a four-pole saturating ladder low-pass filter in the
// style of Huovilainen's nonlinear Moog model.
//
// Each of the four one-pole stages integrates the difference between the
// saturated stage input and the saturated stage state. The fourth stage feeds
// back to the input with a one-sample delay, which lets the ladder
// self-oscillate once resonance approaches 4.
//
// The saturator is the rational approximation
//
//	sat(x) = x(27+x²)/(27+9x²), |x| <= 3
//	sat(x) = sign(x),           |x| > 3
//
// which is odd, smooth, identity-like near zero and saturates to ±1 beyond
// |x| = 3. It defines the timbre of the model; swapping it for exact tanh
// changes the sound.
//
// Stage states stay finite for every finite input and every resonance in
// [0, 4] by construction, so no state clipping is applied. Cutoff is clamped
// to [20, 20000] Hz and to 0.999 of Nyquist, resonance to [0, 4].
//
// Parameters may change on every sample: [Filter.ProcessSampleWith] and
// [Filter.ProcessBlock] recompute coefficients per sample.
package moog
