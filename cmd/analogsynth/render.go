package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-analog/internal/host"
	"github.com/cwbudde/algo-analog/internal/synth"
	"github.com/cwbudde/algo-analog/measure/level"
)

var (
	seconds    float64
	songPath   string
	noSequence bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the pattern offline and print output levels",
	Long: `Render the loaded instrument for a fixed duration and report the
output levels. A standard MIDI file can drive the instrument instead of, or
together with, the step sequencer.

Examples:
  analogsynth render --instrument tr909 --seconds 8
  analogsynth render -i juno106 --smf song.mid --no-sequence`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().Float64Var(&seconds, "seconds", 4, "Duration to render")
	renderCmd.Flags().StringVar(&songPath, "smf", "", "Play a standard MIDI file into the instrument")
	renderCmd.Flags().BoolVar(&noSequence, "no-sequence", false, "Leave the step sequencer stopped")
}

// meteredSource records levels of everything it renders.
type meteredSource struct {
	src   host.Source
	meter level.Meter
}

func (m *meteredSource) Render(dst []float32) int {
	n := m.src.Render(dst)
	m.meter.Update(dst[:2*n])

	return n
}

func runRender(cmd *cobra.Command, _ []string) error {
	if !(seconds > 0) {
		return fmt.Errorf("seconds must be > 0: %g", seconds)
	}

	logger := newLogger()

	engine, err := newEngine(logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	var src host.Source = engine

	if songPath != "" {
		sched, err := host.LoadSMF(songPath, host.NewDecoder(nil, logger))
		if err != nil {
			return err
		}

		logger.Info("song loaded", "path", songPath, "events", len(sched))
		src = host.NewFeeder(engine, engine.Send, engine.Context().Now, sampleRate, sched, logger)
	}

	if !noSequence {
		engine.Send(synth.Transport{Running: true})
	}

	metered := &meteredSource{src: src}
	frames := int64(seconds * sampleRate)

	if _, err := io.CopyN(io.Discard, host.NewStream(metered), frames*8); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	s := metered.meter.Result()
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "instrument %s, %d frames at %g Hz\n", engine.InstrumentName(), s.Frames, sampleRate)
	fmt.Fprintf(w, "left   peak %7.2f dBFS  rms %7.2f dBFS  clipped %d\n", s.Left.PeakDB, s.Left.RMSDB, s.Left.Clipped)
	fmt.Fprintf(w, "right  peak %7.2f dBFS  rms %7.2f dBFS  clipped %d\n", s.Right.PeakDB, s.Right.RMSDB, s.Right.Clipped)

	if d := engine.Dropped(); d > 0 {
		logger.Warn("control events were dropped", "count", d)
	}

	return nil
}
