package synth

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cwbudde/algo-analog/dsp/param"
	"github.com/cwbudde/algo-analog/sequencer"
)

// ErrUnknownInstrument is returned for instrument names with no factory.
var ErrUnknownInstrument = errors.New("synth: unknown instrument")

// Instrument is a playable sound source driven by notes and sequencer steps.
// Instruments are not safe for concurrent use; an [Engine] calls them from
// its render goroutine only.
type Instrument interface {
	sequencer.Listener

	Name() string
	Descriptors() param.Set
	Param(name string) (float64, error)
	SetParam(name string, value float64) error
	NoteOn(key int, velocity, t float64)
	NoteOff(key int, t float64)
	// Render overwrites left and right with the block starting at t0.
	Render(left, right []float64, t0 float64)
	Reset()
}

// Factory builds an instrument for a sample rate.
type Factory func(sampleRate float64, logger *slog.Logger) (Instrument, error)

var factories = map[string]Factory{
	"tr808":    NewTR808,
	"tr909":    NewTR909,
	"minimoog": NewMinimoog,
	"juno106":  NewJuno106,
	"ms20":     NewMS20,
	"ms10":     NewMS10,
}

// Instruments returns the registered instrument names in sorted order.
func Instruments() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// NewInstrument builds the instrument registered under name.
func NewInstrument(name string, sampleRate float64, logger *slog.Logger) (Instrument, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("synth: sample rate must be > 0: %f", sampleRate)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return factory(sampleRate, logger.With("instrument", name))
}

// paramStore keeps clamped parameter values keyed by descriptor name.
type paramStore struct {
	set    param.Set
	values map[string]float64
}

func newParamStore(set param.Set) paramStore {
	values := make(map[string]float64, len(set))
	for _, d := range set {
		values[d.Name] = d.Default
	}

	return paramStore{set: set, values: values}
}

func (p *paramStore) get(name string) (float64, error) {
	if _, err := p.set.Lookup(name); err != nil {
		return 0, err
	}

	return p.values[name], nil
}

// put clamps and stores value and returns what was stored.
func (p *paramStore) put(name string, value float64) (float64, error) {
	d, err := p.set.Lookup(name)
	if err != nil {
		return 0, err
	}

	v := d.Clamp(value)
	p.values[name] = v

	return v, nil
}
