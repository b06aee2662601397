package synth

import (
	"errors"
	"testing"
)

// fakeVoice sustains until released and frees 0.1 s after release.
type fakeVoice struct {
	key       int
	start     float64
	triggered bool
	released  bool
	releaseAt float64
	triggers  int
	renders   int
}

func (v *fakeVoice) Trigger(key int, _ float64, t float64) {
	v.key, v.start, v.triggered, v.released = key, t, true, false
	v.triggers++
}

func (v *fakeVoice) Release(t float64) { v.released, v.releaseAt = true, t }

func (v *fakeVoice) Stage(t float64) State {
	switch {
	case !v.triggered:
		return Free
	case t < v.start:
		return Idle
	case v.released && t >= v.releaseAt+0.1:
		return Free
	case v.released && t >= v.releaseAt:
		return Releasing
	default:
		return Sustaining
	}
}

func (v *fakeVoice) RenderAdd(dst []float64, _ float64) {
	v.renders++
	for i := range dst {
		dst[i] += 1
	}
}

func (v *fakeVoice) Reset() { *v = fakeVoice{} }

func newFakePool(t *testing.T, n int) *Pool[*fakeVoice] {
	t.Helper()

	p, err := NewPool(n, func(int) (*fakeVoice, error) { return &fakeVoice{}, nil }, nil)
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func TestPoolValidation(t *testing.T) {
	ctor := func(int) (*fakeVoice, error) { return &fakeVoice{}, nil }

	if _, err := NewPool(0, ctor, nil); err == nil {
		t.Fatal("expected error for empty pool")
	}

	if _, err := NewPool[*fakeVoice](2, nil, nil); err == nil {
		t.Fatal("expected error for nil constructor")
	}

	boom := errors.New("boom")
	_, err := NewPool(2, func(int) (*fakeVoice, error) { return nil, boom }, nil)

	if !errors.Is(err, boom) {
		t.Fatalf("constructor error not wrapped: %v", err)
	}
}

func TestPoolAllocation(t *testing.T) {
	p := newFakePool(t, 2)

	if i := p.NoteOn(60, 1, 0); i != 0 {
		t.Fatalf("first note on voice %d", i)
	}

	if i := p.NoteOn(62, 1, 0.1); i != 1 {
		t.Fatalf("second note on voice %d, want free voice 1", i)
	}

	if i := p.NoteOn(60, 1, 0.2); i != 0 {
		t.Fatalf("same key on voice %d, want reuse of 0", i)
	}

	if p.Voice(0).triggers != 2 {
		t.Fatalf("voice 0 triggers = %d", p.Voice(0).triggers)
	}

	// Voice 1 (key 62, t=0.1) is now the oldest.
	if i := p.NoteOn(64, 1, 0.3); i != 1 {
		t.Fatalf("steal took voice %d, want oldest 1", i)
	}

	if p.Key(1) != 64 || p.Key(0) != 60 {
		t.Fatalf("keys = %d, %d", p.Key(0), p.Key(1))
	}
}

func TestPoolNoteOffAndFree(t *testing.T) {
	p := newFakePool(t, 3)
	p.NoteOn(60, 1, 0)
	p.NoteOn(64, 1, 0)

	if n := p.NoteOff(60, 0.5); n != 1 {
		t.Fatalf("released %d voices, want 1", n)
	}

	if n := p.NoteOff(60, 0.55); n != 0 {
		t.Fatalf("released voice twice: %d", n)
	}

	if got := p.Active(0.55); got != 2 {
		t.Fatalf("Active = %d, want 2", got)
	}

	if got := p.Active(0.7); got != 1 {
		t.Fatalf("Active after release = %d, want 1", got)
	}

	// The released voice is free again and is preferred over stealing.
	if i := p.NoteOn(67, 1, 0.7); i == 1 {
		t.Fatalf("stole a sounding voice")
	}

	p.ReleaseAll(1)

	if got := p.Active(1.2); got != 0 {
		t.Fatalf("Active after ReleaseAll = %d", got)
	}
}

func TestPoolRendersOnlyActiveVoices(t *testing.T) {
	p := newFakePool(t, 4)
	p.NoteOn(60, 1, 0)
	p.NoteOn(62, 1, 0.5) // idle until 0.5 but still rendered

	dst := make([]float64, 8)
	p.RenderAdd(dst, 0)

	if dst[0] != 2 {
		t.Fatalf("rendered %v voices, want 2", dst[0])
	}

	if p.Voice(2).renders != 0 {
		t.Fatal("free voice rendered")
	}

	p.Reset()

	if p.Active(0) != 0 || p.Key(0) != -1 {
		t.Fatal("Reset left voices active")
	}
}

func TestStateString(t *testing.T) {
	want := []string{"free", "idle", "attacking", "sustaining", "releasing"}
	for s, name := range want {
		if got := State(s).String(); got != name {
			t.Fatalf("State(%d) = %q, want %q", s, got, name)
		}
	}
}
