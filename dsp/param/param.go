package param

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-analog/dsp/core"
)

// ErrUnknownParam is returned when a parameter name is not declared.
var ErrUnknownParam = errors.New("param: unknown parameter")

// Rate is the automation-rate class of a parameter.
type Rate int

const (
	// ARate parameters accept one value per output sample.
	ARate Rate = iota
	// KRate parameters accept one value per processing block.
	KRate
)

func (r Rate) String() string {
	switch r {
	case ARate:
		return "a-rate"
	case KRate:
		return "k-rate"
	default:
		return "unknown"
	}
}

// Descriptor declares one automatable parameter.
type Descriptor struct {
	Name    string
	Default float64
	Min     float64
	Max     float64
	Rate    Rate
}

// Clamp limits v to the descriptor range. NaN maps to the default.
func (d Descriptor) Clamp(v float64) float64 {
	return core.ClampFinite(v, d.Min, d.Max, d.Default)
}

// Validate checks the descriptor for internal consistency.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("param: empty parameter name")
	}

	if !core.IsFinite(d.Min) || !core.IsFinite(d.Max) || d.Min > d.Max {
		return fmt.Errorf("param: %s has invalid range [%g, %g]", d.Name, d.Min, d.Max)
	}

	if d.Default < d.Min || d.Default > d.Max {
		return fmt.Errorf("param: %s default %g outside [%g, %g]", d.Name, d.Default, d.Min, d.Max)
	}

	if d.Rate != ARate && d.Rate != KRate {
		return fmt.Errorf("param: %s has invalid rate %d", d.Name, d.Rate)
	}

	return nil
}

// Set is an ordered list of descriptors.
type Set []Descriptor

// Lookup returns the descriptor with the given name.
func (s Set) Lookup(name string) (Descriptor, error) {
	for _, d := range s {
		if d.Name == name {
			return d, nil
		}
	}

	return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownParam, name)
}

// Names returns the parameter names in declaration order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}

	return names
}

// Values is one block of parameter values: a single value that holds for the
// whole block, or one value per sample.
type Values []float64

// Constant returns a single-value block.
func Constant(v float64) Values {
	return Values{v}
}

// At returns the value for sample i. An empty block yields NaN, which
// [Descriptor.Clamp] maps to the default.
func (v Values) At(i int) float64 {
	switch len(v) {
	case 0:
		return math.NaN()
	case 1:
		return v[0]
	default:
		return v[i]
	}
}

// IsConstant reports whether the block carries at most one value.
func (v Values) IsConstant() bool {
	return len(v) <= 1
}

// Check verifies that the block can serve blockLen samples at the given rate.
// K-rate parameters must carry exactly one value.
func (v Values) Check(d Descriptor, blockLen int) error {
	switch {
	case len(v) <= 1:
		return nil
	case d.Rate == KRate:
		return fmt.Errorf("param: %s is k-rate but got %d values", d.Name, len(v))
	case len(v) != blockLen:
		return fmt.Errorf("param: %s has %d values for a %d-sample block", d.Name, len(v), blockLen)
	default:
		return nil
	}
}
