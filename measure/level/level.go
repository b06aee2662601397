// Package level meters interleaved stereo output: peak, RMS and clipped
// sample counts per channel.
package level

import (
	"math"

	"github.com/cwbudde/algo-analog/dsp/core"
)

// Channel holds the statistics of one channel.
type Channel struct {
	Peak    float64
	PeakDB  float64
	RMS     float64
	RMSDB   float64
	Clipped int // samples with |x| >= 1
}

// Stats is the result of a metering run.
type Stats struct {
	Frames int
	Left   Channel
	Right  Channel
}

// Meter accumulates statistics over successive interleaved stereo blocks.
// The zero value is ready to use.
type Meter struct {
	frames  int
	sumSq   [2]float64
	peak    [2]float64
	clipped [2]int
}

// Update adds an interleaved stereo block. A trailing odd sample is ignored.
func (m *Meter) Update(block []float32) {
	for i := 0; i+1 < len(block); i += 2 {
		for ch := range 2 {
			x := math.Abs(float64(block[i+ch]))
			m.sumSq[ch] += x * x
			m.peak[ch] = max(m.peak[ch], x)

			if x >= 1 {
				m.clipped[ch]++
			}
		}

		m.frames++
	}
}

// Reset clears the accumulated statistics.
func (m *Meter) Reset() { *m = Meter{} }

// Result returns the statistics accumulated so far.
func (m *Meter) Result() Stats {
	return Stats{Frames: m.frames, Left: m.channel(0), Right: m.channel(1)}
}

func (m *Meter) channel(ch int) Channel {
	var rms float64
	if m.frames > 0 {
		rms = math.Sqrt(m.sumSq[ch] / float64(m.frames))
	}

	return Channel{
		Peak:    m.peak[ch],
		PeakDB:  core.LinearToDB(m.peak[ch]),
		RMS:     rms,
		RMSDB:   core.LinearToDB(rms),
		Clipped: m.clipped[ch],
	}
}
