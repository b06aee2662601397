package processor

import (
	"github.com/cwbudde/algo-analog/dsp/filter/korg"
	"github.com/cwbudde/algo-analog/dsp/filter/moog"
	"github.com/cwbudde/algo-analog/dsp/param"
)

type moogRuntime struct {
	f *moog.Filter
}

func (r *moogRuntime) Descriptors() param.Set { return moog.Descriptors() }

func (r *moogRuntime) Reset() { r.f.Reset() }

func (r *moogRuntime) Process(out [][]float64, in []float64, params map[string]param.Values) error {
	if err := checkBlock(out, in, len(out)); err != nil {
		return err
	}

	if err := checkParams(moog.Descriptors(), params, len(in)); err != nil {
		return err
	}

	err := r.f.ProcessBlock(out[0], in,
		valuesOr(params, moog.CutoffParam.Name, r.f.CutoffHz()),
		valuesOr(params, moog.ResonanceParam.Name, r.f.Resonance()))
	if err != nil {
		return err
	}

	copyToRest(out)

	return nil
}

type korgRuntime struct {
	f *korg.Filter
}

func (r *korgRuntime) Descriptors() param.Set { return korg.Descriptors() }

func (r *korgRuntime) Reset() { r.f.Reset() }

func (r *korgRuntime) Process(out [][]float64, in []float64, params map[string]param.Values) error {
	if err := checkBlock(out, in, len(out)); err != nil {
		return err
	}

	if err := checkParams(korg.Descriptors(), params, len(in)); err != nil {
		return err
	}

	err := r.f.ProcessBlock(out[0], in,
		valuesOr(params, korg.CutoffParam.Name, r.f.CutoffHz()),
		valuesOr(params, korg.PeakParam.Name, r.f.Peak()))
	if err != nil {
		return err
	}

	copyToRest(out)

	return nil
}

// copyToRest duplicates channel 0 into any further output channels.
func copyToRest(out [][]float64) {
	for _, ch := range out[1:] {
		copy(ch, out[0])
	}
}
