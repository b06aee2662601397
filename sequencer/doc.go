// Package sequencer implements a lookahead step clock.
//
// A coarse control-rate ticker (25 ms by default) wakes the sequencer, which
// then schedules every sixteenth-note step whose start time falls inside the
// next lookahead window (100 ms by default) on the audio clock. Events carry
// the exact audio-clock time at which the step should sound, so the ticker's
// jitter never reaches the audio.
//
// Swing delays every odd step by swing·stepDuration at emission time; the
// underlying grid is never shifted. Tempo changes apply from the next
// scheduled step on.
//
// Listeners run synchronously on the goroutine that called [Sequencer.Tick]
// (the internal ticker goroutine unless [WithManualTick] is used), in
// registration order. A listener may read the sequencer and change tempo,
// swing or step count, but must not call Start, Stop or Tick.
package sequencer
