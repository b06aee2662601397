package host

import (
	"log/slog"
	"math"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-analog/dsp/filter/korg"
	"github.com/cwbudde/algo-analog/dsp/filter/moog"
	"github.com/cwbudde/algo-analog/internal/synth"
)

// MIDI realtime status bytes.
const (
	statusStart = 0xFA
	statusStop  = 0xFC
)

// Control maps a MIDI controller onto a parameter range. Exponential
// controls sweep Min..Max geometrically and need Min > 0.
type Control struct {
	Name        string
	Min, Max    float64
	Exponential bool
}

// Value maps a 7-bit controller value onto the control range.
func (c Control) Value(v uint8) float64 {
	x := float64(min(v, 127)) / 127
	if c.Exponential && c.Min > 0 {
		return c.Min * math.Pow(c.Max/c.Min, x)
	}

	return c.Min + x*(c.Max-c.Min)
}

// DefaultControls is the controller map used by [NewDecoder].
func DefaultControls() map[uint8]Control {
	return map[uint8]Control{
		7:  {Name: synth.ParamMaster, Min: 0, Max: 1},
		70: {Name: korg.PeakParam.Name, Min: korg.PeakParam.Min, Max: korg.PeakParam.Max},
		71: {Name: moog.ResonanceParam.Name, Min: moog.ResonanceParam.Min, Max: moog.ResonanceParam.Max},
		73: {Name: synth.AttackParam.Name, Min: synth.AttackParam.Min, Max: synth.AttackParam.Max, Exponential: true},
		74: {Name: moog.CutoffParam.Name, Min: 20, Max: 20000, Exponential: true},
		75: {Name: synth.AmpDecayParam.Name, Min: synth.AmpDecayParam.Min, Max: synth.AmpDecayParam.Max, Exponential: true},
	}
}

// Decoder converts MIDI messages into engine events.
type Decoder struct {
	controls map[uint8]Control
	logger   *slog.Logger
}

// NewDecoder returns a decoder using controls, or [DefaultControls] when
// controls is nil.
func NewDecoder(controls map[uint8]Control, logger *slog.Logger) *Decoder {
	if controls == nil {
		controls = DefaultControls()
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Decoder{controls: controls, logger: logger}
}

// Decode converts msg to an event stamped at t. Channels are ignored.
// It reports false for messages with no mapping.
func (d *Decoder) Decode(msg midi.Message, t float64) (synth.Event, bool) {
	var ch, key, vel, cc, val, prog uint8

	switch {
	case len(msg) == 1 && msg[0] == statusStart:
		return synth.Transport{Running: true}, true
	case len(msg) == 1 && msg[0] == statusStop:
		return synth.Transport{Running: false}, true
	case msg.GetNoteStart(&ch, &key, &vel):
		return synth.NoteOn{Key: int(key), Velocity: float64(vel) / 127, Time: t}, true
	case msg.GetNoteEnd(&ch, &key):
		return synth.NoteOff{Key: int(key), Time: t}, true
	case msg.GetControlChange(&ch, &cc, &val):
		c, ok := d.controls[cc]
		if !ok {
			d.logger.Debug("unmapped MIDI controller", "cc", cc, "value", val)
			return nil, false
		}

		return synth.ParamChange{Name: c.Name, Value: c.Value(val), Time: t}, true
	case msg.GetProgramChange(&ch, &prog):
		names := synth.Instruments()
		if int(prog) >= len(names) {
			d.logger.Debug("MIDI program out of range", "program", prog)
			return nil, false
		}

		return synth.Program{Instrument: names[prog]}, true
	}

	d.logger.Debug("unhandled MIDI message", "msg", msg.String())

	return nil, false
}

// DecodeMIDI decodes msg with the default controller map.
func DecodeMIDI(msg []byte, t float64) (synth.Event, bool) {
	return defaultDecoder.Decode(midi.Message(msg), t)
}

var defaultDecoder = NewDecoder(nil, nil)
