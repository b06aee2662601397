// Package envelope schedules parameter automation on an absolute time axis.
//
// A [Curve] is a list of breakpoints in the style of an audio-parameter
// timeline: a set event jumps to a value and holds it, while linear and
// exponential ramp events move from the previous breakpoint to their own
// value. [Sustained] and [Percussive] build the gain envelopes used by the
// instrument voices; [Curve.Release] and [Curve.CancelAndHold] cut a running
// envelope short.
package envelope
