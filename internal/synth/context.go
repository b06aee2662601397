package synth

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-analog/dsp/core"
)

// Context is the audio clock of one engine. Time advances only when frames
// are rendered. Now is safe for concurrent use.
type Context struct {
	cfg    core.ProcessorConfig
	frames atomic.Int64
	closed atomic.Bool
}

// NewContext creates a context at the configured sample rate and block size.
// The defaults are 48 kHz and 128 frames.
func NewContext(opts ...core.ProcessorOption) (*Context, error) {
	cfg := core.ApplyProcessorOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}

	return &Context{cfg: cfg}, nil
}

// Config returns the processing configuration.
func (c *Context) Config() core.ProcessorConfig { return c.cfg }

// SampleRate returns the sample rate in Hz.
func (c *Context) SampleRate() float64 { return c.cfg.SampleRate }

// BlockSize returns the render block size in frames.
func (c *Context) BlockSize() int { return c.cfg.BlockSize }

// Frames returns the number of frames rendered so far.
func (c *Context) Frames() int64 { return c.frames.Load() }

// Now returns the audio clock in seconds.
func (c *Context) Now() float64 {
	return float64(c.frames.Load()) / c.cfg.SampleRate
}

// Advance moves the clock forward by n frames.
func (c *Context) Advance(n int) {
	if n > 0 {
		c.frames.Add(int64(n))
	}
}

// Close marks the context as torn down. Engines stop rendering once their
// context is closed. Closing twice is harmless.
func (c *Context) Close() error {
	c.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool { return c.closed.Load() }
