// Command analogsynth plays and renders the analogue instrument models.
//
// Usage:
//
//	analogsynth info
//	analogsynth render --instrument tr909 --seconds 4
//	analogsynth play --instrument juno106 --bpm 110
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-analog/dsp/core"
	"github.com/cwbudde/algo-analog/internal/synth"
	"github.com/cwbudde/algo-analog/sequencer"
)

var (
	sampleRate float64
	blockSize  int
	tempo      float64
	swing      float64
	steps      int
	instrument string
	master     float64
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "analogsynth",
	Short: "Analogue drum machine and synthesizer models",
	Long: `analogsynth drives the TR-808, TR-909, Minimoog, Juno-106, MS-20 and
MS-10 models through a shared step sequencer.

Examples:
  analogsynth info
  analogsynth render --instrument tr909 --seconds 8
  analogsynth play --instrument minimoog --bpm 96`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Float64Var(&sampleRate, "sample-rate", 48000, "Sample rate in Hz")
	rootCmd.PersistentFlags().IntVar(&blockSize, "block", 128, "Render block size in frames")
	rootCmd.PersistentFlags().Float64Var(&tempo, "bpm", 120, "Sequencer tempo")
	rootCmd.PersistentFlags().Float64Var(&swing, "swing", 0, "Swing amount in [0, 0.5]")
	rootCmd.PersistentFlags().IntVar(&steps, "steps", 16, "Steps per pattern (1..32)")
	rootCmd.PersistentFlags().StringVarP(&instrument, "instrument", "i", "tr808", "Instrument to load")
	rootCmd.PersistentFlags().Float64Var(&master, "master", 0.8, "Master gain in [0, 1]")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
}

// newEngine builds an engine from the persistent flags.
func newEngine(logger *slog.Logger) (*synth.Engine, error) {
	ctx, err := synth.NewContext(core.WithSampleRate(sampleRate), core.WithBlockSize(blockSize))
	if err != nil {
		return nil, err
	}

	engine, err := synth.NewEngine(ctx,
		synth.WithInstrument(instrument),
		synth.WithMasterGain(master),
		synth.WithLogger(logger),
		synth.WithSequencer(
			sequencer.WithTempo(tempo),
			sequencer.WithSwing(swing),
			sequencer.WithSteps(steps),
		),
	)
	if err != nil {
		_ = ctx.Close()
		return nil, err
	}

	return engine, nil
}
