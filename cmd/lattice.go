package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/icco/xenqnt/internal/audio"
	"github.com/icco/xenqnt/internal/quantizer"
	"github.com/icco/xenqnt/internal/tuning"
)

var latticeFlags struct {
	scale    string
	low      float64
	high     float64
	restrict bool
}

var latticeCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Print the voltage lattice of the current tuning",
	Long: `Print every step of the lattice built from the tuning: its voltage, scale
degree, frequency and whether the degree is enabled.

Example:
  xenqnt lattice --scale ~/scl/bohlen-pierce.scl --low 0 --high 2
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController(cmd, latticeFlags.scale, "", "")
		if err != nil {
			return err
		}
		snap := ctrl.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d degrees, period %.3f cents\n",
			ctrl.Name(), len(snap.Scale), snap.Scale.Period())
		renderLattice(cmd.OutOrStdout(), snap, latticeFlags.low, latticeFlags.high, latticeFlags.restrict)
		return nil
	},
}

func init() {
	latticeCmd.Flags().StringVar(&latticeFlags.scale, "scale", "", "Scala .scl file to load")
	latticeCmd.Flags().Float64Var(&latticeFlags.low, "low", 0, "Lowest voltage to print")
	latticeCmd.Flags().Float64Var(&latticeFlags.high, "high", 1, "Highest voltage to print")
	latticeCmd.Flags().BoolVar(&latticeFlags.restrict, "restrict", false, "Only print enabled steps")
	rootCmd.AddCommand(latticeCmd)
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	disabledStyle = cellStyle.Foreground(lipgloss.Color("#666666"))
)

func renderLattice(w io.Writer, snap *quantizer.Snapshot, low, high float64, restrict bool) {
	rows := [][]string{}
	enabled := map[int]bool{}
	for i, st := range snap.Scale {
		enabled[i] = st.Enabled
	}
	for _, st := range snap.Lattice.Steps(restrict) {
		if st.Voltage < low || st.Voltage > high {
			continue
		}
		on := "·"
		if enabled[st.ScaleIndex] {
			on = "●"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%+.5f", st.Voltage),
			fmt.Sprintf("%d", st.ScaleIndex+1),
			fmt.Sprintf("%.3f", snap.Scale[st.ScaleIndex].Cents),
			fmt.Sprintf("%.2f", audio.VoltsToFreq(st.Voltage)),
			on,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("VOLTS", "DEGREE", "CENTS", "HZ", "ON").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(rows) && rows[row][4] != "●" {
				return disabledStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// latticeRange clamps a requested window to the lattice range.
func latticeRange(low, high float64) (float64, float64) {
	return max(low, tuning.MinVolt), min(high, tuning.MaxVolt)
}
