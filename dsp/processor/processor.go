package processor

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-analog/dsp/param"
)

var (
	// ErrUnknownProcessor is returned when an identifier is not registered.
	ErrUnknownProcessor = errors.New("processor: unknown processor")
	// ErrDuplicateProcessor is returned when an identifier is registered twice.
	ErrDuplicateProcessor = errors.New("processor: duplicate processor")
)

// Context provides environmental information processors need.
type Context struct {
	SampleRate float64
}

// Processor is the block processing contract.
type Processor interface {
	// Descriptors lists the automatable parameters.
	Descriptors() param.Set
	// Process reads len(in) samples and writes exactly len(in) samples to
	// every output channel.
	Process(out [][]float64, in []float64, params map[string]param.Values) error
	// Reset clears all internal state.
	Reset()
}

func checkBlock(out [][]float64, in []float64, maxChannels int) error {
	if len(out) == 0 || len(out) > maxChannels {
		return fmt.Errorf("processor: %d output channels, want 1..%d", len(out), maxChannels)
	}

	for ch, buf := range out {
		if len(buf) != len(in) {
			return fmt.Errorf("processor: channel %d has %d samples for a %d-sample block", ch, len(buf), len(in))
		}
	}

	return nil
}

func checkParams(set param.Set, params map[string]param.Values, blockLen int) error {
	for name, values := range params {
		d, err := set.Lookup(name)
		if err != nil {
			return err
		}

		if err := values.Check(d, blockLen); err != nil {
			return err
		}
	}

	return nil
}

// valuesOr returns the block values for name, or current as a constant when
// the host left the parameter out.
func valuesOr(params map[string]param.Values, name string, current float64) param.Values {
	if v, ok := params[name]; ok && len(v) > 0 {
		return v
	}

	return param.Constant(current)
}
