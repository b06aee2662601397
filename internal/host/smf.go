package host

import (
	"fmt"
	"log/slog"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-analog/internal/synth"
)

// Scheduled is an event with its offset from the start of a song.
type Scheduled struct {
	Offset float64
	Event  synth.Event
}

// Schedule is a time-ordered list of events.
type Schedule []Scheduled

// LoadSMF reads a standard MIDI file and decodes every mapped message of
// every track into a schedule ordered by offset.
func LoadSMF(path string, dec *Decoder) (Schedule, error) {
	if dec == nil {
		dec = defaultDecoder
	}

	var out Schedule

	err := smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		offset := float64(te.AbsMicroSeconds) / 1e6
		if ev, ok := dec.Decode(midi.Message(te.Message), offset); ok {
			out = append(out, Scheduled{Offset: offset, Event: ev})
		}
	}).Error()
	if err != nil {
		return nil, fmt.Errorf("host: read %s: %w", path, err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })

	return out, nil
}

// Feeder feeds a schedule to an engine block by block.
type Feeder struct {
	src    Source
	send   func(synth.Event) bool
	now    func() float64
	rate   float64
	events Schedule
	start  float64
	next   int
	logger *slog.Logger
}

// NewFeeder returns a Source that sends the events of s due within each
// rendered block before rendering it from src. Offsets are relative to the
// clock reading at the first Render call.
func NewFeeder(src Source, send func(synth.Event) bool, now func() float64, sampleRate float64, s Schedule, logger *slog.Logger) *Feeder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Feeder{src: src, send: send, now: now, rate: sampleRate, events: s, start: -1, logger: logger}
}

// Done reports whether every event has been sent.
func (f *Feeder) Done() bool { return f.next >= len(f.events) }

// Render implements Source.
func (f *Feeder) Render(dst []float32) int {
	t := f.now()
	if f.start < 0 {
		f.start = t
	}

	horizon := t + float64(len(dst)/2)/f.rate

	for ; f.next < len(f.events); f.next++ {
		sc := f.events[f.next]

		at := f.start + sc.Offset
		if at >= horizon {
			break
		}

		if !f.send(stamp(sc.Event, at)) {
			f.logger.Warn("scheduled event dropped", "offset", sc.Offset)
		}
	}

	return f.src.Render(dst)
}

// stamp moves an event onto the absolute clock.
func stamp(ev synth.Event, t float64) synth.Event {
	switch ev := ev.(type) {
	case synth.NoteOn:
		ev.Time = t
		return ev
	case synth.NoteOff:
		ev.Time = t
		return ev
	case synth.ParamChange:
		ev.Time = t
		return ev
	}

	return ev
}
