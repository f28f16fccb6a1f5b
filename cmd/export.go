package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icco/xenqnt/internal/export"
)

var exportFlags struct {
	scale   string
	low     float64
	high    float64
	bpm     float64
	channel int
}

var exportCmd = &cobra.Command{
	Use:   "export <file.mid>",
	Short: "Write the enabled steps of the tuning as a MIDI file",
	Long: `Write every enabled lattice step between --low and --high volts as a quarter
note. Each note is preceded by a pitch bend that retunes it, assuming the
receiving synth uses a bend range of ±2 semitones.

Example:
  xenqnt export --scale ~/scl/pelog.scl --low -1 --high 1 pelog.mid
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController(cmd, exportFlags.scale, "", "")
		if err != nil {
			return err
		}

		low, high := latticeRange(exportFlags.low, exportFlags.high)
		opts := export.Options{
			Low:     low,
			High:    high,
			BPM:     exportFlags.bpm,
			Channel: uint8(max(0, min(15, exportFlags.channel-1))),
			Name:    ctrl.Name(),
		}
		n, err := export.WriteFile(args[0], ctrl.Snapshot().Lattice, opts)
		if err != nil {
			return err
		}
		logger.Info("exported", "path", args[0], "notes", n, "tuning", ctrl.Name())
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d notes of %s to %s\n", n, ctrl.Name(), args[0])
		return nil
	},
}

func init() {
	defaults := export.DefaultOptions()
	exportCmd.Flags().StringVar(&exportFlags.scale, "scale", "", "Scala .scl file to load")
	exportCmd.Flags().Float64Var(&exportFlags.low, "low", defaults.Low, "Lowest voltage to export")
	exportCmd.Flags().Float64Var(&exportFlags.high, "high", defaults.High, "Highest voltage to export")
	exportCmd.Flags().Float64Var(&exportFlags.bpm, "bpm", defaults.BPM, "Tempo")
	exportCmd.Flags().IntVar(&exportFlags.channel, "channel", 1, "MIDI channel (1-16)")
	rootCmd.AddCommand(exportCmd)
}
