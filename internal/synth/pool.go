package synth

import (
	"errors"
	"fmt"
	"log/slog"
)

// Pool is a fixed set of pre-allocated voices. NoteOn prefers the voice
// already playing the key, then a free voice, then steals the oldest one.
// A Pool is not safe for concurrent use.
type Pool[V Voice] struct {
	voices []V
	keys   []int
	order  []uint64
	seq    uint64
	logger *slog.Logger
}

// NewPool allocates size voices with newVoice.
func NewPool[V Voice](size int, newVoice func(i int) (V, error), logger *slog.Logger) (*Pool[V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("synth: pool size must be > 0: %d", size)
	}

	if newVoice == nil {
		return nil, errors.New("synth: nil voice constructor")
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pool[V]{
		voices: make([]V, size),
		keys:   make([]int, size),
		order:  make([]uint64, size),
		logger: logger,
	}

	for i := range p.voices {
		v, err := newVoice(i)
		if err != nil {
			return nil, fmt.Errorf("synth: voice %d: %w", i, err)
		}

		p.voices[i] = v
		p.keys[i] = -1
	}

	return p, nil
}

// Len returns the number of voices.
func (p *Pool[V]) Len() int { return len(p.voices) }

// Voice returns voice i.
func (p *Pool[V]) Voice(i int) V { return p.voices[i] }

// Key returns the key voice i was last triggered with, or -1.
func (p *Pool[V]) Key(i int) int { return p.keys[i] }

// NoteOn triggers a voice for key at t and returns its index.
func (p *Pool[V]) NoteOn(key int, velocity, t float64) int {
	i := p.allocate(key, t)

	p.voices[i].Trigger(key, velocity, t)
	p.keys[i] = key
	p.seq++
	p.order[i] = p.seq

	return i
}

func (p *Pool[V]) allocate(key int, t float64) int {
	free := -1

	for i, v := range p.voices {
		stage := v.Stage(t)
		if stage == Free {
			if free < 0 {
				free = i
			}

			continue
		}

		if p.keys[i] == key {
			return i
		}
	}

	if free >= 0 {
		return free
	}

	oldest := 0
	for i := range p.order {
		if p.order[i] < p.order[oldest] {
			oldest = i
		}
	}

	if p.voices[oldest].Stage(t) != Releasing {
		p.logger.Debug("voice stolen", "voice", oldest, "key", p.keys[oldest], "new_key", key)
	}

	return oldest
}

// NoteOff releases every sounding voice playing key at t and returns how many
// were released.
func (p *Pool[V]) NoteOff(key int, t float64) int {
	n := 0

	for i, v := range p.voices {
		if p.keys[i] != key {
			continue
		}

		switch v.Stage(t) {
		case Idle, Attacking, Sustaining:
			v.Release(t)
			n++
		}
	}

	return n
}

// ReleaseAll releases every sounding voice at t.
func (p *Pool[V]) ReleaseAll(t float64) {
	for _, v := range p.voices {
		switch v.Stage(t) {
		case Idle, Attacking, Sustaining:
			v.Release(t)
		}
	}
}

// Active returns the number of voices that are not free at t.
func (p *Pool[V]) Active(t float64) int {
	n := 0

	for _, v := range p.voices {
		if v.Stage(t) != Free {
			n++
		}
	}

	return n
}

// RenderAdd adds every non-free voice to dst.
func (p *Pool[V]) RenderAdd(dst []float64, t0 float64) {
	for _, v := range p.voices {
		if v.Stage(t0) != Free {
			v.RenderAdd(dst, t0)
		}
	}
}

// Reset silences all voices.
func (p *Pool[V]) Reset() {
	for i, v := range p.voices {
		v.Reset()
		p.keys[i] = -1
		p.order[i] = 0
	}

	p.seq = 0
}
