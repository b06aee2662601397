//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/internal/synth"
)

var (
	engine *synth.Engine
	funcs  []js.Func
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}

		name := "tr808"
		if len(args) > 1 {
			name = args[1].String()
		}

		ctx, err := synth.NewContext(core.WithSampleRate(sr))
		if err != nil {
			return err.Error()
		}

		e, err := synth.NewEngine(ctx, synth.WithInstrument(name))
		if err != nil {
			return err.Error()
		}

		if engine != nil {
			_ = engine.Close()
		}

		engine = e

		return js.Null()
	}))

	api.Set("instruments", export(func(args []js.Value) any {
		names := synth.Instruments()
		arr := js.Global().Get("Array").New(len(names))
		for i, n := range names {
			arr.SetIndex(i, n)
		}
		return arr
	}))

	api.Set("setRunning", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		engine.Send(synth.Transport{Running: args[0].Bool()})
		return js.Null()
	}))

	api.Set("setParam", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		engine.Send(synth.ParamChange{Name: args[0].String(), Value: args[1].Float()})
		return js.Null()
	}))

	api.Set("program", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		engine.Send(synth.Program{Instrument: args[0].String()})
		return js.Null()
	}))

	api.Set("noteOn", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		engine.Send(synth.NoteOn{Key: args[0].Int(), Velocity: args[1].Float()})
		return js.Null()
	}))

	api.Set("noteOff", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		engine.Send(synth.NoteOff{Key: args[0].Int()})
		return js.Null()
	}))

	api.Set("render", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := args[0].Int()
		buf := make([]float32, n)
		engine.Render(buf)
		arr := js.Global().Get("Float32Array").New(n)
		for i := 0; i < n; i++ {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	api.Set("currentStep", export(func(args []js.Value) any {
		if engine == nil {
			return -1
		}
		return engine.LastStep()
	}))

	js.Global().Set("AnalogSynth", api)
	select {}
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
