package synth

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/internal/testutil"
	"github.com/cwbudde/algo-analog/sequencer"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	ctx, err := NewContext(core.WithSampleRate(testRate), core.WithBlockSize(128))
	if err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine(ctx, opts...)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = e.Close() })

	return e
}

func renderFrames(e *Engine, frames int) (left, right []float64) {
	buf := make([]float32, 2*frames)
	e.Render(buf)

	return testutil.Deinterleave(buf)
}

func TestEngineOptionsValidation(t *testing.T) {
	ctx, err := NewContext()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewEngine(nil); err == nil {
		t.Fatal("expected error for nil context")
	}

	if _, err := NewEngine(ctx, WithInstrument("sh101")); !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("error = %v, want ErrUnknownInstrument", err)
	}

	bad := []Option{
		WithMasterGain(2),
		WithEventQueue(0),
		WithLogger(nil),
		WithSequencer(sequencer.WithTempo(10)),
	}

	for i, opt := range bad {
		if _, err := NewEngine(ctx, opt); err == nil {
			t.Fatalf("option %d: expected error", i)
		}
	}
}

func TestEngineStepTimingIsSampleAccurate(t *testing.T) {
	e := newTestEngine(t)

	if !e.Send(Transport{Running: true}) {
		t.Fatal("Send failed")
	}

	left, right := renderFrames(e, 4800)

	// The first step sounds after the 50 ms lead-in, at frame 2400.
	testutil.RequireSilent(t, left[:2399])
	testutil.RequireAudible(t, left[2400:], 0.05)
	testutil.RequireBounded(t, left, 1)
	testutil.RequireSliceNearlyEqual(t, right, left, 0)

	if !e.Running() {
		t.Fatal("transport not running")
	}

	// Step 1 (t = 0.175 s) enters the 100 ms lookahead window before 0.1 s.
	if got := e.LastStep(); got != 1 {
		t.Fatalf("LastStep = %d, want 1", got)
	}

	e.Send(Transport{Running: false})
	renderFrames(e, 128)

	if e.Running() || e.LastStep() != sequencer.ResetStep {
		t.Fatalf("after stop: running=%v step=%d", e.Running(), e.LastStep())
	}
}

func TestEngineParams(t *testing.T) {
	e := newTestEngine(t)

	e.Send(ParamChange{Name: ParamTempo, Value: 150})
	e.Send(ParamChange{Name: ParamSwing, Value: 0.25})
	e.Send(ParamChange{Name: ParamSteps, Value: 32})
	e.Send(ParamChange{Name: ParamMaster, Value: 0.5})
	e.Send(ParamChange{Name: LevelParam.Name, Value: 0.2})
	e.Send(ParamChange{Name: "nonsense", Value: 1})
	renderFrames(e, 64)

	seq := e.Sequencer()
	if seq.Tempo() != 150 || seq.Swing() != 0.25 || seq.Steps() != 32 {
		t.Fatalf("sequencer = %v bpm, swing %v, %d steps", seq.Tempo(), seq.Swing(), seq.Steps())
	}

	if e.Master() != 0.5 {
		t.Fatalf("master = %v, want 0.5", e.Master())
	}

	if got, _ := e.Instrument().Param(LevelParam.Name); got != 0.2 {
		t.Fatalf("level = %v, want 0.2", got)
	}

	e.Send(ParamChange{Name: ParamSteps, Value: 12})
	renderFrames(e, 64)

	if seq.Steps() != 32 {
		t.Fatal("invalid step count applied")
	}
}

func TestEngineNotesAndProgram(t *testing.T) {
	e := newTestEngine(t, WithInstrument("ms10"))

	if e.InstrumentName() != "ms10" {
		t.Fatalf("instrument = %q", e.InstrumentName())
	}

	e.Send(NoteOn{Key: 57, Velocity: 1})
	left, _ := renderFrames(e, 4800)
	testutil.RequireAudible(t, left, 1e-3)
	testutil.RequireBounded(t, left, 1)

	e.Send(NoteOff{Key: 57})

	if !e.Send(Program{Instrument: "juno106"}) {
		t.Fatal("Send(Program juno106) rejected")
	}

	if e.Send(Program{Instrument: "sh101"}) {
		t.Fatal("unknown instrument accepted")
	}

	renderFrames(e, 128)

	if e.InstrumentName() != "juno106" || e.Instrument().Name() != "juno106" {
		t.Fatalf("instrument = %q", e.InstrumentName())
	}

	if e.Dropped() != 0 {
		t.Fatalf("Dropped = %d", e.Dropped())
	}
}

func TestEngineProgramBuiltBySend(t *testing.T) {
	e := newTestEngine(t, WithInstrument("ms10"))

	if !e.Send(Program{Instrument: "tr808"}) {
		t.Fatal("Send(Program tr808) rejected")
	}

	ev := <-e.events

	pc, ok := ev.(programChange)
	if !ok || pc.inst == nil || pc.inst.Name() != "tr808" {
		t.Fatalf("queued %#v, want a built tr808", ev)
	}

	if e.InstrumentName() != "ms10" {
		t.Fatalf("instrument switched before Render: %q", e.InstrumentName())
	}

	e.events <- ev
	renderFrames(e, 64)

	if e.Instrument() != pc.inst {
		t.Fatal("Render did not install the instrument built by Send")
	}
}

func TestEngineQueueAndClose(t *testing.T) {
	e := newTestEngine(t, WithEventQueue(1))

	if !e.Send(NoteOn{Key: 60, Velocity: 1}) {
		t.Fatal("first Send failed")
	}

	if e.Send(NoteOn{Key: 62, Velocity: 1}) {
		t.Fatal("Send on a full queue succeeded")
	}

	if e.Dropped() != 1 || e.Send(nil) {
		t.Fatalf("Dropped = %d", e.Dropped())
	}

	odd := make([]float32, 5)
	odd[4] = 1

	if n := e.Render(odd); n != 2 || odd[4] != 0 {
		t.Fatalf("odd buffer: %d frames, tail %v", n, odd[4])
	}

	if err := e.RenderBlock(make([]float64, 4), make([]float64, 3)); err == nil {
		t.Fatal("expected channel length error")
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	buf := []float32{1, 1}
	if n := e.Render(buf); n != 0 || buf[0] != 0 {
		t.Fatalf("closed engine rendered %d frames", n)
	}
}

func TestEngineRenderBlockAdvancesClock(t *testing.T) {
	e := newTestEngine(t, WithInstrument("minimoog"))
	e.Send(NoteOn{Key: 45, Velocity: 1})

	left := make([]float64, 256)
	right := make([]float64, 256)

	if err := e.RenderBlock(left, right); err != nil {
		t.Fatal(err)
	}

	if e.Context().Frames() != 256 {
		t.Fatalf("frames = %d, want 256", e.Context().Frames())
	}

	testutil.RequireAudible(t, left, 1e-4)
}
