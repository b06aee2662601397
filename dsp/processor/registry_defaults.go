package processor

import (
	"github.com/cwbudde/algo-analog/dsp/effects/modulation"
	"github.com/cwbudde/algo-analog/dsp/filter/korg"
	"github.com/cwbudde/algo-analog/dsp/filter/moog"
)

// DefaultRegistry returns a Registry with the two ladder filters and the
// bucket-brigade chorus.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(moog.ID, func(ctx Context) (Processor, error) {
		f, err := moog.New(ctx.SampleRate)
		if err != nil {
			return nil, err
		}

		return &moogRuntime{f: f}, nil
	})
	r.MustRegister(korg.ID, func(ctx Context) (Processor, error) {
		f, err := korg.New(ctx.SampleRate)
		if err != nil {
			return nil, err
		}

		return &korgRuntime{f: f}, nil
	})
	r.MustRegister(modulation.BBDChorusID, func(ctx Context) (Processor, error) {
		fx, err := modulation.NewBBDChorus(ctx.SampleRate)
		if err != nil {
			return nil, err
		}

		return &chorusRuntime{fx: fx}, nil
	})

	return r
}
