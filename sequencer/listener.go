package sequencer

import (
	"sync"
	"sync/atomic"
)

// Listener receives scheduled step events.
type Listener interface {
	OnStep(Event)
}

// StepFunc adapts a function to [Listener].
type StepFunc func(Event)

// OnStep calls f.
func (f StepFunc) OnStep(e Event) { f(e) }

// ListenerID identifies a registered listener.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	l  Listener
}

// listenerList is a copy-on-write slice: emission loads a snapshot without
// locking, registration replaces the whole slice.
type listenerList struct {
	mu     sync.Mutex
	nextID ListenerID
	list   atomic.Pointer[[]listenerEntry]
}

func (ll *listenerList) add(l Listener) ListenerID {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	ll.nextID++

	var cur []listenerEntry
	if p := ll.list.Load(); p != nil {
		cur = *p
	}

	next := make([]listenerEntry, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, listenerEntry{id: ll.nextID, l: l})
	ll.list.Store(&next)

	return ll.nextID
}

func (ll *listenerList) remove(id ListenerID) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	p := ll.list.Load()
	if p == nil {
		return
	}

	next := make([]listenerEntry, 0, len(*p))
	for _, e := range *p {
		if e.id != id {
			next = append(next, e)
		}
	}

	ll.list.Store(&next)
}

func (ll *listenerList) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	p := ll.list.Load()
	if p == nil {
		return
	}

	for _, ev := range events {
		for _, e := range *p {
			e.l.OnStep(ev)
		}
	}
}
