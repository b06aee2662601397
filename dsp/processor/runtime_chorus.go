package processor

import (
	"github.com/cwbudde/algo-analog/dsp/effects/modulation"
	"github.com/cwbudde/algo-analog/dsp/param"
)

type chorusRuntime struct {
	fx *modulation.BBDChorus
}

func (r *chorusRuntime) Descriptors() param.Set { return modulation.BBDChorusDescriptors() }

func (r *chorusRuntime) Reset() { r.fx.Reset() }

func (r *chorusRuntime) Process(out [][]float64, in []float64, params map[string]param.Values) error {
	if err := checkBlock(out, in, 2); err != nil {
		return err
	}

	if err := checkParams(modulation.BBDChorusDescriptors(), params, len(in)); err != nil {
		return err
	}

	if v, ok := params[modulation.ChorusModeParam.Name]; ok && len(v) > 0 {
		r.fx.SetMode(modulation.ModeFromValue(v.At(0)))
	}

	if v, ok := params[modulation.ChorusRateParam.Name]; ok && len(v) > 0 {
		r.fx.SetRate(v.At(0))
	}

	if v, ok := params[modulation.ChorusDepthParam.Name]; ok && len(v) > 0 {
		r.fx.SetDepth(v.At(0))
	}

	if len(out) == 1 {
		for i, x := range in {
			out[0][i] = r.fx.ProcessMono(x)
		}

		return nil
	}

	return r.fx.ProcessStereo(out[0], out[1], in)
}
