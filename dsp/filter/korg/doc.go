// Package korg provides a four-pole hard-clipping transistor ladder low-pass
// filter modelled on the Korg MS-20 / MS-10 voltage-controlled filter.
//
// The cutoff coefficient comes from a bilinear-transform prewarp,
//
//	g = tan(π·min(fc, 0.49·fs)/fs),  G = g/(1+g)
//
// and every stage input passes through the hard clipper
//
//	clip(x) = max(-1, min(1, 0.7·x))
//
// before the one-pole update s += G·(clip(in) - s). The filter input
// (input minus four times peak times the last stage) is the first stage input,
// so the signal meets four clippers per sample. Stage states therefore never
// leave [-1, 1]. The 0.7 pre-scale also sets the passband gain: a small DC
// input settles at 0.7⁴ ≈ 0.24 of its level with zero peak.
//
// The clipping is deliberately harder than the saturating ladder in package
// moog; the two filters are meant to sound different.
package korg
