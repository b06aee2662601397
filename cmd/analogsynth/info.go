package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-analog/dsp/filter/korg"
	"github.com/cwbudde/algo-analog/dsp/filter/moog"
	"github.com/cwbudde/algo-analog/dsp/param"
	"github.com/cwbudde/algo-analog/dsp/processor"
	"github.com/cwbudde/algo-analog/internal/synth"
	"github.com/cwbudde/algo-analog/measure/tone"
)

var (
	responseCutoff float64
	responseSize   int
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List instruments, processors and filter responses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printInfo(cmd.OutOrStdout())
	},
}

func init() {
	infoCmd.Flags().Float64Var(&responseCutoff, "cutoff", 1000, "Filter cutoff for the response table in Hz")
	infoCmd.Flags().IntVar(&responseSize, "fft", 4096, "Analysis size for the response table")
}

func printInfo(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "INSTRUMENT\tPARAMETER\tDEFAULT\tMIN\tMAX")

	for _, name := range synth.Instruments() {
		inst, err := synth.NewInstrument(name, sampleRate, newLogger())
		if err != nil {
			return err
		}

		printDescriptors(w, name, inst.Descriptors())
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "PROCESSOR\tPARAMETER\tDEFAULT\tMIN\tMAX")

	reg := processor.DefaultRegistry()
	for _, id := range reg.IDs() {
		p, err := reg.New(id, processor.Context{SampleRate: sampleRate})
		if err != nil {
			return err
		}

		printDescriptors(w, id, p.Descriptors())
	}

	if err := w.Flush(); err != nil {
		return err
	}

	return printResponses(out, reg)
}

func printDescriptors(w io.Writer, owner string, set param.Set) {
	for _, d := range set {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n", owner, d.Name, d.Default, d.Min, d.Max)
	}
}

// printResponses measures the steady-state gain of both ladder filters at
// octave spacing around the cutoff.
func printResponses(out io.Writer, reg *processor.Registry) error {
	an, err := tone.NewAnalyzer(responseSize)
	if err != nil {
		return err
	}

	var bins []int
	for hz := responseCutoff / 8; hz <= min(responseCutoff*8, sampleRate*0.45); hz *= 2 {
		bins = append(bins, tone.NearestBin(hz, sampleRate, responseSize))
	}

	ids := []string{moog.ID, korg.ID}
	table := make([][]tone.Point, len(ids))

	for i, id := range ids {
		p, err := reg.New(id, processor.Context{SampleRate: sampleRate})
		if err != nil {
			return err
		}

		params := map[string]param.Values{moog.CutoffParam.Name: param.Constant(responseCutoff)}
		process := func(dst, src []float64) {
			p.Reset()

			if err := p.Process([][]float64{dst}, src, params); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}

		table[i], err = an.Response(process, sampleRate, 0.1, 4, bins)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "\nHz\t%s dB\t%s dB\t\n", ids[0], ids[1])

	for j := range bins {
		fmt.Fprintf(w, "%.0f\t%.2f\t%.2f\t\n", table[0][j].FrequencyHz, table[0][j].GainDB, table[1][j].GainDB)
	}

	return w.Flush()
}
