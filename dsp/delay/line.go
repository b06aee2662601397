package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-analog/dsp/interp"
)

// Line is a fixed-capacity circular delay line with one or more channels
// sharing a single write cursor.
//
// A sample period is Write (once per channel), any number of reads, then
// Advance. Channels stay in lockstep because they share the cursor; only the
// read offsets differ.
type Line struct {
	buffers  [][]float64
	size     int
	writePos int
}

// Option configures a Line.
type Option func(*config) error

type config struct {
	channels int
}

// WithChannels sets the number of parallel buffers behind the shared cursor.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("delay: channel count must be > 0: %d", n)
		}

		cfg.channels = n

		return nil
	}
}

// New returns a zero-initialized delay line holding size samples per channel.
func New(size int, opts ...Option) (*Line, error) {
	if size <= 1 {
		return nil, fmt.Errorf("delay: size must be > 1: %d", size)
	}

	cfg := config{channels: 1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	buffers := make([][]float64, cfg.channels)
	for i := range buffers {
		buffers[i] = make([]float64, size)
	}

	return &Line{buffers: buffers, size: size}, nil
}

// Len returns the per-channel capacity in samples.
func (d *Line) Len() int { return d.size }

// Channels returns the number of buffers sharing the cursor.
func (d *Line) Channels() int { return len(d.buffers) }

// WritePos returns the write cursor, always in [0, Len()).
func (d *Line) WritePos() int { return d.writePos }

// Write stores sample at the write cursor of channel ch without advancing it.
func (d *Line) Write(ch int, sample float64) {
	d.buffers[ch][d.writePos] = sample
}

// Advance moves the shared write cursor forward by one sample.
func (d *Line) Advance() {
	d.writePos++
	if d.writePos >= d.size {
		d.writePos = 0
	}
}

// Read returns the sample delay positions behind the write cursor.
// Read(ch, 0) is the sample most recently passed to Write.
func (d *Line) Read(ch, delay int) float64 {
	idx := (d.writePos - delay) % d.size
	if idx < 0 {
		idx += d.size
	}

	return d.buffers[ch][idx]
}

// ReadFractional reads channel ch at a non-integer offset behind the write
// cursor using linear interpolation between the two neighbouring samples.
//
// With p = writePos - delay, the result is buf[i0]*(1-frac) + buf[i1]*frac
// where i0 = floor(p) mod Len, i1 = (i0+1) mod Len and frac = p - floor(p).
// The delay is clamped to [0, Len-1].
func (d *Line) ReadFractional(ch int, delay float64) float64 {
	maxDelay := float64(d.size - 1)
	if !(delay > 0) {
		delay = 0
	} else if delay > maxDelay {
		delay = maxDelay
	}

	pos := float64(d.writePos) - delay
	base := math.Floor(pos)
	frac := pos - base

	i0 := int(base) % d.size
	if i0 < 0 {
		i0 += d.size
	}

	i1 := i0 + 1
	if i1 >= d.size {
		i1 = 0
	}

	buf := d.buffers[ch]

	return interp.Linear2(frac, buf[i0], buf[i1])
}

// Reset clears all channels and rewinds the cursor.
func (d *Line) Reset() {
	for _, buf := range d.buffers {
		for i := range buf {
			buf[i] = 0
		}
	}

	d.writePos = 0
}
