package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-analog/internal/host"
	"github.com/cwbudde/algo-analog/internal/synth"
)

var gate float64

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live from the terminal keyboard",
	Long: `Play the loaded instrument through the default audio device.

Keys:
  a w s e d f t g y h u j k o l p   notes
  z / x                             octave down / up
  space                             start / stop the sequencer
  1..6                              switch instrument
  + / -                             tempo
  q                                 quit`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Float64Var(&gate, "gate", 0.25, "Length of keyboard notes in seconds")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	engine, err := newEngine(logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	player, err := host.NewPlayer(engine, int(sampleRate), logger)
	if err != nil {
		return err
	}
	defer player.Close()

	restore, err := host.RawTerminal(os.Stdin)
	if err != nil {
		return err
	}
	defer restore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kb := host.NewKeyboard(engine.Send, engine.Context().Now, tempo, logger)
	kb.SetGate(gate)
	kb.SetRunning(engine.Running())

	player.Start()
	logger.Info("playing", "instrument", engine.InstrumentName(), "bpm", tempo)
	fmt.Fprint(cmd.ErrOrStderr(), "press q to quit\r\n")

	err = kb.Run(ctx, os.Stdin)
	engine.Send(synth.Transport{Running: false})
	player.Stop()

	return err
}
