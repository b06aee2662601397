package sequencer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ResetStep is the step index of the event emitted by [Sequencer.Stop].
const ResetStep = -1

const (
	defaultTempo        = 120.0
	defaultSteps        = 16
	defaultTickInterval = 25 * time.Millisecond
	defaultLookahead    = 0.1
	defaultLeadIn       = 0.05

	minTempo = 20.0
	maxTempo = 400.0
	maxSwing = 0.5
)

// Clock reports the current audio-clock time in seconds.
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function to [Clock].
type ClockFunc func() float64

// Now calls f.
func (f ClockFunc) Now() float64 { return f() }

// Event is one scheduled step.
type Event struct {
	Step int
	Time float64
}

// IsReset reports whether e is the end-of-run event emitted by Stop.
func (e Event) IsReset() bool { return e.Step == ResetStep }

// Option configures a Sequencer.
type Option func(*config) error

type config struct {
	tempo        float64
	steps        int
	swing        float64
	tickInterval time.Duration
	lookahead    float64
	leadIn       float64
	manual       bool
	logger       *slog.Logger
}

// WithTempo sets the tempo in BPM, in [20, 400].
func WithTempo(bpm float64) Option {
	return func(cfg *config) error {
		if !(bpm >= minTempo && bpm <= maxTempo) {
			return fmt.Errorf("sequencer: tempo must be in [%g, %g]: %v", minTempo, maxTempo, bpm)
		}

		cfg.tempo = bpm

		return nil
	}
}

// WithSteps sets the pattern length (16 or 32).
func WithSteps(n int) Option {
	return func(cfg *config) error {
		if err := validateSteps(n); err != nil {
			return err
		}

		cfg.steps = n

		return nil
	}
}

// WithSwing sets the swing amount in [0, 0.5].
func WithSwing(swing float64) Option {
	return func(cfg *config) error {
		if !(swing >= 0 && swing <= maxSwing) {
			return fmt.Errorf("sequencer: swing must be in [0, %g]: %v", maxSwing, swing)
		}

		cfg.swing = swing

		return nil
	}
}

// WithTickInterval sets the control-rate wake-up period.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("sequencer: tick interval must be > 0: %v", d)
		}

		cfg.tickInterval = d

		return nil
	}
}

// WithLookahead sets the scheduling window in seconds.
func WithLookahead(seconds float64) Option {
	return func(cfg *config) error {
		if !(seconds > 0) || math.IsInf(seconds, 1) {
			return fmt.Errorf("sequencer: lookahead must be > 0 and finite: %v", seconds)
		}

		cfg.lookahead = seconds

		return nil
	}
}

// WithLeadIn sets the delay between Start and the first step in seconds.
func WithLeadIn(seconds float64) Option {
	return func(cfg *config) error {
		if !(seconds >= 0) || math.IsInf(seconds, 1) {
			return fmt.Errorf("sequencer: lead-in must be >= 0 and finite: %v", seconds)
		}

		cfg.leadIn = seconds

		return nil
	}
}

// WithManualTick disables the internal ticker goroutine. The host must call
// [Sequencer.Tick] itself, typically once per rendered block.
func WithManualTick() Option {
	return func(cfg *config) error {
		cfg.manual = true
		return nil
	}
}

// WithLogger sets the logger for start/stop and catch-up messages.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) error {
		if logger == nil {
			return errors.New("sequencer: nil logger")
		}

		cfg.logger = logger

		return nil
	}
}

func validateSteps(n int) error {
	if n != 16 && n != 32 {
		return fmt.Errorf("sequencer: step count must be 16 or 32: %d", n)
	}

	return nil
}

// Sequencer is a lookahead step scheduler. It is safe for concurrent use.
type Sequencer struct {
	clock        Clock
	logger       *slog.Logger
	tickInterval time.Duration
	lookahead    float64
	leadIn       float64
	manual       bool

	tempoBits atomic.Uint64
	swingBits atomic.Uint64

	listeners listenerList

	// emitMu is held by the goroutine delivering pending events. Callers
	// that cannot take it leave their events to the holder.
	emitMu     sync.Mutex
	delivering atomic.Bool

	mu        sync.Mutex
	running   bool
	step      int
	stepCount int
	next      float64
	stop      chan struct{}
	done      chan struct{}
	pending   []Event
}

// New creates a stopped sequencer reading time from clock.
func New(clock Clock, opts ...Option) (*Sequencer, error) {
	if clock == nil {
		return nil, errors.New("sequencer: nil clock")
	}

	cfg := config{
		tempo:        defaultTempo,
		steps:        defaultSteps,
		tickInterval: defaultTickInterval,
		lookahead:    defaultLookahead,
		leadIn:       defaultLeadIn,
		logger:       slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	s := &Sequencer{
		clock:        clock,
		logger:       cfg.logger,
		tickInterval: cfg.tickInterval,
		lookahead:    cfg.lookahead,
		leadIn:       cfg.leadIn,
		manual:       cfg.manual,
		stepCount:    cfg.steps,
	}
	s.tempoBits.Store(math.Float64bits(cfg.tempo))
	s.swingBits.Store(math.Float64bits(cfg.swing))

	return s, nil
}

// Tempo returns the tempo in BPM.
func (s *Sequencer) Tempo() float64 { return math.Float64frombits(s.tempoBits.Load()) }

// SetTempo changes the tempo, clamped to [20, 400] BPM. NaN is ignored.
func (s *Sequencer) SetTempo(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}

	s.tempoBits.Store(math.Float64bits(math.Max(minTempo, math.Min(maxTempo, bpm))))
}

// Swing returns the swing amount.
func (s *Sequencer) Swing() float64 { return math.Float64frombits(s.swingBits.Load()) }

// SetSwing changes the swing amount, clamped to [0, 0.5]. NaN is ignored.
func (s *Sequencer) SetSwing(swing float64) {
	if math.IsNaN(swing) {
		return
	}

	s.swingBits.Store(math.Float64bits(math.Max(0, math.Min(maxSwing, swing))))
}

// StepDuration returns the length of one sixteenth note at the current tempo.
func (s *Sequencer) StepDuration() float64 {
	return 60 / s.Tempo() / 4
}

// Steps returns the pattern length.
func (s *Sequencer) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stepCount
}

// SetSteps changes the pattern length to 16 or 32. A running sequencer wraps
// its position into the new length.
func (s *Sequencer) SetSteps(n int) error {
	if err := validateSteps(n); err != nil {
		return err
	}

	s.mu.Lock()
	s.stepCount = n
	s.step %= n
	s.mu.Unlock()

	return nil
}

// Running reports whether the sequencer is started.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// CurrentStep returns the index of the next step to be scheduled.
func (s *Sequencer) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.step
}

// NextStepTime returns the unswung audio-clock time of the next step.
func (s *Sequencer) NextStepTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.next
}

// OnStep registers l and returns an identifier for [Sequencer.OffStep].
func (s *Sequencer) OnStep(l Listener) ListenerID {
	return s.listeners.add(l)
}

// OffStep removes a listener. Unknown identifiers are ignored.
func (s *Sequencer) OffStep(id ListenerID) {
	s.listeners.remove(id)
}

// Start begins scheduling at step 0, leadIn seconds from now. Starting a
// running sequencer does nothing.
func (s *Sequencer) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}

	s.running = true
	s.step = 0
	s.next = s.clock.Now() + s.leadIn

	if !s.manual {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})

		go s.loop(s.stop, s.done)
	}
	s.mu.Unlock()

	s.logger.Info("sequencer started", "bpm", s.Tempo(), "swing", s.Swing())
	s.Tick()
}

// Stop halts scheduling, rewinds to step 0 and emits one [ResetStep] event.
// Stopping a stopped sequencer does nothing.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.running = false
	s.step = 0
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	// Steps not yet delivered belong to the stopped run.
	s.pending = append(s.pending[:0], Event{Step: ResetStep, Time: s.clock.Now()})
	s.mu.Unlock()

	reentrant := s.delivering.Load()
	s.deliver()

	if stop != nil {
		close(stop)

		if !reentrant {
			<-done
		}
	}

	s.logger.Info("sequencer stopped")
}

// Tick schedules every step that starts before now+lookahead and returns how
// many events were emitted. It does nothing while stopped.
func (s *Sequencer) Tick() int {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return 0
	}

	horizon := s.clock.Now() + s.lookahead

	n := 0

	for s.next < horizon {
		dur := s.StepDuration()

		t := s.next
		if s.step%2 == 1 {
			t += dur * s.Swing()
		}

		s.pending = append(s.pending, Event{Step: s.step, Time: t})
		s.next += dur
		s.step = (s.step + 1) % s.stepCount
		n++
	}
	s.mu.Unlock()

	s.deliver()

	if n > 1 {
		s.logger.Debug("sequencer caught up", "events", n)
	}

	return n
}

// deliver hands pending events to the listeners one at a time. When another
// call is already delivering, including a listener calling back into the
// sequencer, the events are left for it and deliver returns at once.
func (s *Sequencer) deliver() {
	for s.emitMu.TryLock() {
		s.delivering.Store(true)

		for {
			ev, ok := s.popPending()
			if !ok {
				break
			}

			s.listeners.emit(ev)
		}

		s.delivering.Store(false)
		s.emitMu.Unlock()

		s.mu.Lock()
		more := len(s.pending) > 0
		s.mu.Unlock()

		if !more {
			return
		}
	}
}

func (s *Sequencer) popPending() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		s.pending = s.pending[:0]
		return Event{}, false
	}

	ev := s.pending[0]
	n := copy(s.pending, s.pending[1:])
	s.pending = s.pending[:n]

	return ev, true
}

func (s *Sequencer) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
