package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/cwbudde/algo-analog/internal/synth"
)

// pianoKeys maps a QWERTY row to semitones above the current octave's C.
var pianoKeys = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6, 'g': 7,
	'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12, 'o': 13, 'l': 14, 'p': 15,
}

const (
	defaultOctave = 4
	defaultGate   = 0.25
	tempoStep     = 5
	ctrlC         = 0x03
)

// Keyboard turns raw terminal key presses into engine events. Terminals do
// not report key releases, so every note is released after a fixed gate.
type Keyboard struct {
	send    func(synth.Event) bool
	now     func() float64
	logger  *slog.Logger
	octave  int
	gate    float64
	tempo   float64
	running bool
}

// NewKeyboard returns a keyboard sending events through send. now reports
// the audio clock and is used to schedule note releases.
func NewKeyboard(send func(synth.Event) bool, now func() float64, tempo float64, logger *slog.Logger) *Keyboard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Keyboard{
		send:   send,
		now:    now,
		logger: logger,
		octave: defaultOctave,
		gate:   defaultGate,
		tempo:  tempo,
	}
}

// SetGate sets how long keyboard notes sound, in seconds.
func (k *Keyboard) SetGate(seconds float64) {
	if seconds > 0 {
		k.gate = seconds
	}
}

// SetRunning records the transport state the next space bar press toggles.
func (k *Keyboard) SetRunning(running bool) { k.running = running }

// Octave returns the current keyboard octave.
func (k *Keyboard) Octave() int { return k.octave }

// Tempo returns the tempo last requested from the keyboard.
func (k *Keyboard) Tempo() float64 { return k.tempo }

// Run reads key presses from r until 'q', Ctrl-C, EOF or ctx is done.
// Quitting by key returns nil.
func (k *Keyboard) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("host: read key: %w", err)
		}

		if !k.Press(b) {
			return nil
		}
	}
}

// Press handles one key and reports false when the key asks to quit.
func (k *Keyboard) Press(b byte) bool {
	if semi, ok := pianoKeys[b]; ok {
		k.note(12*(k.octave+1) + semi)
		return true
	}

	switch {
	case b == 'q' || b == ctrlC:
		return false
	case b == 'z':
		k.octave = max(k.octave-1, 0)
	case b == 'x':
		k.octave = min(k.octave+1, 8)
	case b == ' ':
		k.running = !k.running
		k.send(synth.Transport{Running: k.running})
	case b == '+' || b == '=':
		k.setTempo(k.tempo + tempoStep)
	case b == '-':
		k.setTempo(k.tempo - tempoStep)
	case b >= '1' && b <= '9':
		names := synth.Instruments()
		if i := int(b - '1'); i < len(names) {
			k.send(synth.Program{Instrument: names[i]})
		}
	default:
		k.logger.Debug("unmapped key", "key", b)
	}

	return true
}

func (k *Keyboard) note(key int) {
	t := k.now()
	k.send(synth.NoteOn{Key: key, Velocity: 0.9, Time: t})
	k.send(synth.NoteOff{Key: key, Time: t + k.gate})
}

func (k *Keyboard) setTempo(bpm float64) {
	k.tempo = max(bpm, 1)
	k.send(synth.ParamChange{Name: synth.ParamTempo, Value: k.tempo})
}

// RawTerminal switches f into raw mode when it is a terminal and returns a
// function restoring the previous state.
func RawTerminal(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("host: raw terminal: %w", err)
	}

	return func() { _ = term.Restore(fd, state) }, nil
}
