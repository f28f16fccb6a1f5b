package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/spf13/cobra"

	"github.com/icco/xenqnt/internal/mapper"
	"github.com/icco/xenqnt/internal/quantizer"
	"github.com/icco/xenqnt/internal/state"
)

var (
	statePath string
	debug     bool
	logFile   string

	logger  = slog.Default()
	logSink io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "xenqnt",
	Short: "A microtonal pitch quantizer for arbitrary tunings",
	Long: `xenqnt quantizes 1 V/octave pitch to any tuning: equal temperaments, just
intonation or anything a Scala .scl file describes.

Degrees can be switched on and off from the step matrix, held CV notes pick
the active degrees live, and three mapping modes control how input pitch lands
on the tuning.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(debug, logFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logSink != nil {
			_ = logSink.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&statePath, "state", state.DefaultPath(), "Path of the saved tuning state")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (adds source location)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		msg := err.Error()
		if issue := fmsg.GetIssue(err); issue != "" {
			msg = issue + ": " + msg
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}

func initLogger(debug bool, path string) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fault.Wrap(err, fmsg.WithDesc("open log file", fmt.Sprintf("Could not open log file %s", path)))
		}
		w = f
		logSink = f
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
	return nil
}

// newController builds a controller from the saved state, then applies the
// scale and mode flags on top of it.
func newController(cmd *cobra.Command, scalePath, pitchMode, cvMode string) (*quantizer.Controller, error) {
	c := quantizer.New(quantizer.WithLogger(logger))

	doc, err := state.Load(statePath)
	if err != nil {
		logger.Warn("ignoring saved state", "path", statePath, "err", err)
	} else if err := c.Restore(doc); err != nil {
		logger.Warn("ignoring saved state", "path", statePath, "err", err)
	}

	if scalePath != "" {
		if err := c.LoadScaleFile(scalePath); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("mode") {
		m, err := mapper.ParseMode(pitchMode)
		if err != nil {
			return nil, err
		}
		c.SetMappingMode(quantizer.PitchPath, m)
	}
	if cmd.Flags().Changed("cv-mode") {
		m, err := mapper.ParseMode(cvMode)
		if err != nil {
			return nil, err
		}
		c.SetMappingMode(quantizer.CVPath, m)
	}

	// one sample adopts the staged scale and modes
	c.Process(0, quantizer.Inputs{}, nil)
	return c, nil
}

func addTuningFlags(cmd *cobra.Command, scalePath, pitchMode, cvMode *string) {
	cmd.Flags().StringVar(scalePath, "scale", "", "Scala .scl file to load")
	cmd.Flags().StringVar(pitchMode, "mode", mapper.ModeProximity.String(), "Pitch mapping mode: proximity, proportional or 12edo")
	if cvMode != nil {
		cmd.Flags().StringVar(cvMode, "cv-mode", mapper.ModeProximity.String(), "CV mapping mode: proximity, proportional or 12edo")
	}
}
