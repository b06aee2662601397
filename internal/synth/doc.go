// Package synth turns the filter, chorus, envelope and sequencer packages
// into playable instruments.
//
// A [Context] owns the audio clock. An [Engine] renders blocks on that clock,
// drives a manual-tick [sequencer.Sequencer] once per block and forwards
// step events to the active [Instrument]. Control events ([NoteOn],
// [NoteOff], [ParamChange], [Transport]) may be sent from any goroutine; they
// are applied on the render goroutine at the start of the next block.
//
// Voices schedule their envelopes on the absolute audio-clock axis, so a step
// event scheduled inside the sequencer's lookahead window sounds at its exact
// time regardless of block boundaries.
//
// Six instruments are registered: "tr808" and "tr909" drum machines, and the
// "minimoog", "juno106", "ms20" and "ms10" subtractive synthesizers.
package synth
