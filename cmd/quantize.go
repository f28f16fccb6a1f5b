package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/spf13/cobra"

	"github.com/icco/xenqnt/internal/mapper"
	"github.com/icco/xenqnt/internal/quantizer"
)

var quantizeFlags struct {
	scale    string
	mode     string
	restrict bool
}

var quantizeCmd = &cobra.Command{
	Use:   "quantize [volts...]",
	Short: "Quantize voltages to the current tuning",
	Long: `Map each voltage onto the tuning lattice and print the result with the scale
degree it landed on. Voltages are read from the arguments, or one per line from
stdin when there are none.

Example:
  xenqnt quantize --mode proportional 0.1 0.33 -1.25
  seq 0 0.01 1 | xenqnt quantize --scale 19edo.scl
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController(cmd, quantizeFlags.scale, quantizeFlags.mode, "")
		if err != nil {
			return err
		}
		snap := ctrl.Snapshot()
		f := mapper.Resolve(ctrl.MappingMode(quantizer.PitchPath), snap.Lattice, quantizeFlags.restrict)

		if len(args) > 0 {
			for _, arg := range args {
				if err := quantizeLine(cmd.OutOrStdout(), f, arg); err != nil {
					return err
				}
			}
			return nil
		}

		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if err := quantizeLine(cmd.OutOrStdout(), f, line); err != nil {
				return err
			}
		}
		return sc.Err()
	},
}

func init() {
	addTuningFlags(quantizeCmd, &quantizeFlags.scale, &quantizeFlags.mode, nil)
	quantizeCmd.Flags().BoolVar(&quantizeFlags.restrict, "restrict", true, "Quantize to enabled steps only")
	rootCmd.AddCommand(quantizeCmd)
}

func quantizeLine(w io.Writer, f mapper.Func, s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("parse voltage", fmt.Sprintf("%q is not a voltage", s)), ftag.With(ftag.InvalidArgument))
	}
	st := f(v)
	_, err = fmt.Fprintf(w, "%+.6f\t%+.6f\t%d\n", v, st.Voltage, st.ScaleIndex+1)
	return err
}
