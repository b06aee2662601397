package envelope

import "github.com/cwbudde/algo-analog/dsp/core"

// ADSR holds the stage times of a sustained envelope in seconds. Sustain is a
// level relative to the peak in [0, 1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Sustained schedules attack and decay starting at start: a linear rise from
// 0 to peak, then a linear fall to Sustain·peak which is held until
// [Curve.Release].
func Sustained(adsr ADSR, start, peak float64) *Curve {
	c := NewCurve(0)
	c.Attack(adsr, start, peak)

	return c
}

// Percussive schedules a linear rise from 0 to peak over attack seconds
// and an exponential fall to Floor over decay seconds.
func Percussive(attack, decay, start, peak float64) *Curve {
	c := NewCurve(0)
	c.Strike(attack, decay, start, peak)

	return c
}

// Attack retriggers a sustained envelope at t: a linear rise to peak, then a
// linear fall to Sustain·peak. The rise starts from whatever level the curve
// has at t, so a retrigger never clicks.
func (c *Curve) Attack(adsr ADSR, t, peak float64) {
	t = nonNegative(t)
	peak = core.ClampFinite(peak, 0, 1e6, 0)
	sustain := core.ClampFinite(adsr.Sustain, 0, 1, 0) * peak

	c.cut(t)

	attackEnd := t + nonNegative(adsr.Attack)
	c.events = append(c.events,
		Event{Kind: Linear, Time: attackEnd, Value: peak},
		Event{Kind: Linear, Time: attackEnd + nonNegative(adsr.Decay), Value: max(sustain, Floor)},
	)
}

// Strike retriggers a percussive envelope at t.
func (c *Curve) Strike(attack, decay, t, peak float64) {
	t = nonNegative(t)
	peak = core.ClampFinite(peak, 0, 1e6, 0)

	c.cut(t)

	attackEnd := t + nonNegative(attack)
	c.events = append(c.events,
		Event{Kind: Linear, Time: attackEnd, Value: peak},
		Event{Kind: Exponential, Time: attackEnd + nonNegative(decay), Value: Floor},
	)
}

// cut is CancelAndHold for a time already known to be valid. On an empty
// curve it anchors the initial value at t.
func (c *Curve) cut(t float64) {
	if len(c.events) == 0 {
		c.events = append(c.events, Event{Kind: Set, Time: t, Value: c.initial})
		return
	}

	_ = c.CancelAndHold(t)
}
