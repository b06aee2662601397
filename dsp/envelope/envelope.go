package envelope

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-analog/dsp/core"
)

// Floor is the smallest level an envelope settles to. Exponential ramps
// cannot reach zero, so "silent" means Floor.
const Floor = 1e-4

// ErrInvalidTime is returned for negative, non-finite or out-of-order event
// times.
var ErrInvalidTime = errors.New("envelope: invalid time")

// Kind is the interpolation mode of an event.
type Kind int

const (
	// Set jumps to the value at the event time and holds it.
	Set Kind = iota
	// Linear ramps linearly from the previous breakpoint.
	Linear
	// Exponential ramps geometrically from the previous breakpoint.
	Exponential
)

func (k Kind) String() string {
	switch k {
	case Set:
		return "set"
	case Linear:
		return "linear"
	case Exponential:
		return "exponential"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one breakpoint of a curve.
type Event struct {
	Kind  Kind
	Time  float64
	Value float64
}

// Curve is an ordered automation timeline. The value before the first event
// is the initial value. A Curve is not safe for concurrent use.
type Curve struct {
	initial float64
	events  []Event
}

// NewCurve returns an empty curve holding initial.
func NewCurve(initial float64) *Curve {
	return &Curve{initial: core.ClampFinite(initial, -math.MaxFloat64, math.MaxFloat64, 0)}
}

// Events returns a copy of the scheduled breakpoints.
func (c *Curve) Events() []Event {
	return append([]Event(nil), c.events...)
}

// End returns the time of the last breakpoint, or 0 for an empty curve.
func (c *Curve) End() float64 {
	if len(c.events) == 0 {
		return 0
	}

	return c.events[len(c.events)-1].Time
}

// Final returns the value the curve holds after its last breakpoint.
func (c *Curve) Final() float64 {
	if len(c.events) == 0 {
		return c.initial
	}

	return c.events[len(c.events)-1].Value
}

// Done reports whether the curve has finished at time t and settled at or
// below Floor.
func (c *Curve) Done(t float64) bool {
	return t >= c.End() && math.Abs(c.Final()) <= Floor
}

// Reset drops all events and holds initial.
func (c *Curve) Reset(initial float64) {
	c.initial = core.ClampFinite(initial, -math.MaxFloat64, math.MaxFloat64, 0)
	c.events = c.events[:0]
}

func (c *Curve) schedule(kind Kind, value, t float64) error {
	if !core.IsFinite(t) || t < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTime, t)
	}

	if t < c.End() {
		return fmt.Errorf("%w: %v before last event at %v", ErrInvalidTime, t, c.End())
	}

	if !core.IsFinite(value) {
		return fmt.Errorf("envelope: value must be finite: %v", value)
	}

	c.events = append(c.events, Event{Kind: kind, Time: t, Value: value})

	return nil
}

// SetValueAt jumps to value at time t.
func (c *Curve) SetValueAt(value, t float64) error {
	return c.schedule(Set, value, t)
}

// LinearRampTo ramps linearly from the previous breakpoint to value at t.
func (c *Curve) LinearRampTo(value, t float64) error {
	return c.schedule(Linear, value, t)
}

// ExponentialRampTo ramps geometrically from the previous breakpoint to value
// at t. Non-positive endpoints are treated as Floor.
func (c *Curve) ExponentialRampTo(value, t float64) error {
	return c.schedule(Exponential, value, t)
}

// HoldUntil keeps the value of the last breakpoint until t.
func (c *Curve) HoldUntil(t float64) error {
	return c.schedule(Set, c.Final(), t)
}

// CancelAndHold drops every breakpoint after t and holds the value the curve
// had at t.
func (c *Curve) CancelAndHold(t float64) error {
	if !core.IsFinite(t) || t < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTime, t)
	}

	v := c.ValueAt(t)

	n := sort.Search(len(c.events), func(i int) bool { return c.events[i].Time > t })

	kind := Set
	if n < len(c.events) {
		// Keep the interrupted ramp up to t.
		kind = c.events[n].Kind
	}

	c.events = append(c.events[:n], Event{Kind: kind, Time: t, Value: v})

	return nil
}

// Compact drops breakpoints that no longer affect values at or after t.
func (c *Curve) Compact(t float64) {
	next := sort.Search(len(c.events), func(i int) bool { return c.events[i].Time > t })
	if next < 2 {
		return
	}

	n := copy(c.events, c.events[next-1:])
	c.events = c.events[:n]
}

// Release cancels the curve at t and ramps linearly to Floor over
// releaseTime seconds.
func (c *Curve) Release(t, releaseTime float64) error {
	if err := c.CancelAndHold(t); err != nil {
		return err
	}

	return c.LinearRampTo(Floor, t+nonNegative(releaseTime))
}

// ValueAt evaluates the curve at time t.
func (c *Curve) ValueAt(t float64) float64 {
	// First breakpoint strictly after t.
	next := sort.Search(len(c.events), func(i int) bool { return c.events[i].Time > t })

	prev := Event{Kind: Set, Value: c.initial}
	if next > 0 {
		prev = c.events[next-1]
	}

	if next == len(c.events) || c.events[next].Kind == Set {
		return prev.Value
	}

	to := c.events[next]
	span := to.Time - prev.Time

	frac := 1.0
	if span > 0 {
		frac = core.Clamp((t-prev.Time)/span, 0, 1)
	}

	if to.Kind == Exponential {
		v0 := math.Max(prev.Value, Floor)
		v1 := math.Max(to.Value, Floor)

		return v0 * math.Pow(v1/v0, frac)
	}

	return prev.Value + (to.Value-prev.Value)*frac
}

// Render writes the curve sampled at t0, t0+1/sampleRate, ... into dst.
func (c *Curve) Render(dst []float64, t0, sampleRate float64) {
	if sampleRate <= 0 {
		return
	}

	dt := 1 / sampleRate
	for i := range dst {
		dst[i] = c.ValueAt(t0 + float64(i)*dt)
	}
}

func nonNegative(d float64) float64 {
	if !(d > 0) || math.IsInf(d, 1) {
		return 0
	}

	return d
}
