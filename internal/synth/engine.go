package synth

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/sequencer"
)

// Engine-level parameter names accepted by [ParamChange].
const (
	ParamTempo  = "bpm"
	ParamSwing  = "swing"
	ParamSteps  = "steps"
	ParamMaster = "master"
)

const (
	defaultInstrument = "tr808"
	defaultMaster     = 0.8
	defaultQueue      = 256
)

// Option configures an Engine.
type Option func(*engineConfig) error

type engineConfig struct {
	instrument string
	master     float64
	queue      int
	logger     *slog.Logger
	seqOpts    []sequencer.Option
}

// WithInstrument selects the initial instrument (default "tr808").
func WithInstrument(name string) Option {
	return func(cfg *engineConfig) error {
		if _, ok := factories[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
		}

		cfg.instrument = name

		return nil
	}
}

// WithMasterGain sets the master gain in [0, 1] (default 0.8).
func WithMasterGain(gain float64) Option {
	return func(cfg *engineConfig) error {
		if !(gain >= 0 && gain <= 1) {
			return fmt.Errorf("synth: master gain must be in [0, 1]: %f", gain)
		}

		cfg.master = gain

		return nil
	}
}

// WithEventQueue sets the capacity of the control event queue (default 256).
func WithEventQueue(n int) Option {
	return func(cfg *engineConfig) error {
		if n <= 0 {
			return fmt.Errorf("synth: event queue must be > 0: %d", n)
		}

		cfg.queue = n

		return nil
	}
}

// WithSequencer passes options to the engine's sequencer. Manual ticking is
// always added.
func WithSequencer(opts ...sequencer.Option) Option {
	return func(cfg *engineConfig) error {
		cfg.seqOpts = append(cfg.seqOpts, opts...)
		return nil
	}
}

// WithLogger sets the logger of the engine, its sequencer and instruments.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *engineConfig) error {
		if logger == nil {
			return errors.New("synth: nil logger")
		}

		cfg.logger = logger

		return nil
	}
}

// Engine renders an instrument on a [Context] clock. Send and the read-only
// accessors are safe for concurrent use; Render, Close and Instrument must be
// called from one goroutine.
type Engine struct {
	ctx    *Context
	seq    *sequencer.Sequencer
	inst   Instrument
	events chan Event
	logger *slog.Logger

	left    []float64
	right   []float64
	master  atomic.Uint64 // float64 bits
	current atomic.Value  // instrument name

	lastStep atomic.Int64
	dropped  atomic.Uint64
}

// NewEngine creates an engine with a stopped transport.
func NewEngine(ctx *Context, opts ...Option) (*Engine, error) {
	if ctx == nil {
		return nil, errors.New("synth: nil context")
	}

	cfg := engineConfig{
		instrument: defaultInstrument,
		master:     defaultMaster,
		queue:      defaultQueue,
		logger:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	seqOpts := append(cfg.seqOpts, sequencer.WithManualTick(), sequencer.WithLogger(cfg.logger))

	seq, err := sequencer.New(ctx, seqOpts...)
	if err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}

	inst, err := NewInstrument(cfg.instrument, ctx.SampleRate(), cfg.logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		ctx:    ctx,
		seq:    seq,
		inst:   inst,
		events: make(chan Event, cfg.queue),
		logger: cfg.logger,
		left:   make([]float64, ctx.BlockSize()),
		right:  make([]float64, ctx.BlockSize()),
	}
	e.master.Store(math.Float64bits(cfg.master))
	e.current.Store(inst.Name())
	e.lastStep.Store(sequencer.ResetStep)

	seq.OnStep(sequencer.StepFunc(e.onStep))

	return e, nil
}

func (e *Engine) onStep(ev sequencer.Event) {
	e.lastStep.Store(int64(ev.Step))
	e.inst.OnStep(ev)
}

// Context returns the audio context.
func (e *Engine) Context() *Context { return e.ctx }

// Sequencer returns the step sequencer.
func (e *Engine) Sequencer() *sequencer.Sequencer { return e.seq }

// Instrument returns the active instrument.
func (e *Engine) Instrument() Instrument { return e.inst }

// InstrumentName returns the name of the active instrument.
func (e *Engine) InstrumentName() string { return e.current.Load().(string) }

// Running reports whether the transport is running.
func (e *Engine) Running() bool { return e.seq.Running() }

// LastStep returns the most recently scheduled step, or -1 when stopped.
func (e *Engine) LastStep() int { return int(e.lastStep.Load()) }

// Dropped returns how many events were rejected because the queue was full.
func (e *Engine) Dropped() uint64 { return e.dropped.Load() }

// Send queues a control event without blocking. It reports false when the
// queue is full or a [Program] names an unknown instrument. Program changes
// build the new instrument here so Render only swaps it in.
func (e *Engine) Send(ev Event) bool {
	if ev == nil {
		return false
	}

	if p, ok := ev.(Program); ok {
		inst, err := NewInstrument(p.Instrument, e.ctx.SampleRate(), e.logger)
		if err != nil {
			e.logger.Warn("program change rejected", "error", err)
			return false
		}

		ev = programChange{inst: inst}
	}

	select {
	case e.events <- ev:
		return true
	default:
		e.dropped.Add(1)
		e.logger.Warn("control event dropped", "event", fmt.Sprintf("%T", ev))

		return false
	}
}

// Render fills dst with interleaved stereo float32 frames in [-1, 1] and
// returns the number of frames rendered. A closed engine renders silence
// and returns 0.
func (e *Engine) Render(dst []float32) int {
	if e.ctx.Closed() {
		clear(dst)
		return 0
	}

	frames := len(dst) / 2
	block := e.ctx.BlockSize()

	for done := 0; done < frames; {
		n := min(block, frames-done)
		t0 := e.ctx.Now()

		e.drain(t0)
		e.seq.Tick()

		left, right := e.left[:n], e.right[:n]
		e.inst.Render(left, right, t0)
		e.applyMaster(left, right)

		out := dst[2*done : 2*(done+n)]
		for i := range n {
			out[2*i] = float32(core.ClampFinite(left[i], -1, 1, 0))
			out[2*i+1] = float32(core.ClampFinite(right[i], -1, 1, 0))
		}

		e.ctx.Advance(n)
		done += n
	}

	if len(dst)%2 == 1 {
		dst[len(dst)-1] = 0
	}

	return frames
}

// RenderBlock renders one block into separate channel buffers. Both must
// have the same length.
func (e *Engine) RenderBlock(left, right []float64) error {
	if len(left) != len(right) {
		return fmt.Errorf("synth: channel length mismatch: %d != %d", len(left), len(right))
	}

	if e.ctx.Closed() {
		clear(left)
		clear(right)

		return nil
	}

	t0 := e.ctx.Now()

	e.drain(t0)
	e.seq.Tick()
	e.inst.Render(left, right, t0)
	e.applyMaster(left, right)
	e.ctx.Advance(len(left))

	return nil
}

func (e *Engine) applyMaster(left, right []float64) {
	gain := e.Master()
	vecmath.ScaleBlock(left, left, gain)
	vecmath.ScaleBlock(right, right, gain)
}

func (e *Engine) drain(t0 float64) {
	for {
		select {
		case ev := <-e.events:
			e.apply(ev, t0)
		default:
			return
		}
	}
}

func (e *Engine) apply(ev Event, t0 float64) {
	switch ev := ev.(type) {
	case NoteOn:
		e.inst.NoteOn(ev.Key, ev.Velocity, eventTime(ev.Time, t0))
	case NoteOff:
		e.inst.NoteOff(ev.Key, eventTime(ev.Time, t0))
	case ParamChange:
		e.setParam(ev.Name, ev.Value)
	case Transport:
		if ev.Running {
			e.seq.Start()
		} else {
			e.seq.Stop()
		}
	case programChange:
		e.program(ev.inst, t0)
	}
}

func eventTime(t, t0 float64) float64 {
	if !(t > t0) || math.IsInf(t, 1) {
		return t0
	}

	return t
}

func (e *Engine) setParam(name string, value float64) {
	switch name {
	case ParamTempo:
		e.seq.SetTempo(value)
	case ParamSwing:
		e.seq.SetSwing(value)
	case ParamSteps:
		if err := e.seq.SetSteps(int(math.Round(value))); err != nil {
			e.logger.Warn("step count rejected", "error", err)
		}
	case ParamMaster:
		e.master.Store(math.Float64bits(core.ClampFinite(value, 0, 1, e.Master())))
	default:
		if err := e.inst.SetParam(name, value); err != nil {
			e.logger.Debug("parameter ignored", "name", name, "error", err)
		}
	}
}

func (e *Engine) program(inst Instrument, t0 float64) {
	name := inst.Name()
	if name == e.inst.Name() {
		return
	}

	e.inst.OnStep(sequencer.Event{Step: sequencer.ResetStep, Time: t0})
	e.inst = inst
	e.current.Store(name)
	e.logger.Info("instrument changed", "instrument", name)
}

// Master returns the master gain.
func (e *Engine) Master() float64 { return math.Float64frombits(e.master.Load()) }

// Close stops the transport and closes the context.
func (e *Engine) Close() error {
	e.seq.Stop()
	return e.ctx.Close()
}
