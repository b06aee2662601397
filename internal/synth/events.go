package synth

import "math"

// Event is a control message for an [Engine].
type Event interface {
	event()
}

// NoteOn starts a note. Velocity is in [0, 1]. Time is on the audio clock;
// times in the past sound at the start of the next block.
type NoteOn struct {
	Key      int
	Velocity float64
	Time     float64
}

// NoteOff releases every voice playing Key.
type NoteOff struct {
	Key  int
	Time float64
}

// ParamChange sets a named parameter. The engine handles "bpm", "swing",
// "steps" and "master"; every other name goes to the instrument.
type ParamChange struct {
	Name  string
	Value float64
	Time  float64
}

// Transport starts or stops the step sequencer.
type Transport struct {
	Running bool
}

// Program switches the engine to another registered instrument.
type Program struct {
	Instrument string
}

func (NoteOn) event()      {}
func (NoteOff) event()     {}
func (ParamChange) event() {}
func (Transport) event()   {}
func (Program) event()     {}

// programChange carries an instrument built by Send to the audio goroutine.
type programChange struct {
	inst Instrument
}

func (programChange) event() {}

// KeyFrequency returns the equal-tempered frequency of a MIDI key, A4 = 69 = 440 Hz.
func KeyFrequency(key int) float64 {
	return 440 * math.Pow(2, float64(key-69)/12)
}
