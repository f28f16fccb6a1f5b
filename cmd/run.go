package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/icco/xenqnt/internal/audio"
	"github.com/icco/xenqnt/internal/midiin"
	"github.com/icco/xenqnt/internal/state"
	"github.com/icco/xenqnt/internal/tui"
)

var runFlags struct {
	scale     string
	mode      string
	cvMode    string
	name      string
	port      string
	cvChannel int
	wave      string
	volume    float64
	noSave    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Quantize live MIDI input through the tuning and play it",
	Long: `Open a MIDI input and quantize incoming notes to the current tuning.

By default a virtual MIDI input is created that other music software can send
to. Notes on the CV channel do not sound: while any is held, the held notes
choose which scale degrees are enabled. Everything else is quantized and played
through the built-in synthesizer.

The tuning, mapping modes and last Scala directory are restored from the state
file on start and saved again on exit.

Example:
  xenqnt run --scale ~/scl/pelog.scl --cv-channel 16
  xenqnt run --port "IAC Driver Bus 1" --mode 12edo
`,
	RunE: runRun,
}

func init() {
	addTuningFlags(runCmd, &runFlags.scale, &runFlags.mode, &runFlags.cvMode)
	runCmd.Flags().StringVarP(&runFlags.name, "name", "n", "xenqnt", "Name for the virtual MIDI device")
	runCmd.Flags().StringVarP(&runFlags.port, "port", "p", "", "Connect to this existing MIDI input instead of creating a virtual one")
	runCmd.Flags().IntVar(&runFlags.cvChannel, "cv-channel", 16, "MIDI channel (1-16) feeding the CV input, 0 to disable")
	runCmd.Flags().StringVar(&runFlags.wave, "wave", audio.WaveSine.String(), "Oscillator: sine, square, saw or triangle")
	runCmd.Flags().Float64Var(&runFlags.volume, "volume", 0.3, "Master volume (0-1)")
	runCmd.Flags().BoolVar(&runFlags.noSave, "no-save", false, "Do not save the tuning state on exit")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runFlags.cvChannel < 0 || runFlags.cvChannel > 16 {
		return fault.New("cv channel out of range", fmsg.WithDesc("cv-channel", "--cv-channel must be between 0 and 16"))
	}
	wave, err := audio.ParseWave(runFlags.wave)
	if err != nil {
		return err
	}

	ctrl, err := newController(cmd, runFlags.scale, runFlags.mode, runFlags.cvMode)
	if err != nil {
		return err
	}

	synth, err := audio.NewSynth(ctrl)
	if err != nil {
		return err
	}
	defer func() {
		_ = synth.Close()
	}()
	synth.SetWave(wave)
	synth.SetVolume(runFlags.volume)

	portName := runFlags.name
	if runFlags.port != "" {
		portName = runFlags.port
	}
	m := tui.New(ctrl, tui.Options{StatePath: statePath, Port: portName, Logger: logger})
	p := tea.NewProgram(m, tea.WithAltScreen())

	router := &midiin.Router{
		Pitch:     synth.Pitch,
		CV:        synth.CV,
		CVChannel: runFlags.cvChannel - 1,
		Logger:    logger,
		OnEvent: func(e midiin.Event) {
			p.Send(tui.MIDIEventMsg(e))
		},
	}

	var conn *midiin.Conn
	if runFlags.port != "" {
		conn, err = midiin.Open(runFlags.port, router)
	} else {
		conn, err = midiin.OpenVirtual(runFlags.name, router)
	}
	if err != nil {
		return err
	}
	logger.Info("listening", "port", conn.Port, "cv_channel", runFlags.cvChannel)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		p.Send(tea.Quit())
	}()

	_, runErr := p.Run()

	if err := conn.Close(); err != nil {
		logger.Warn("close MIDI port", "err", err)
	}
	synth.AllNotesOff()

	if !runFlags.noSave {
		if err := state.Save(statePath, ctrl.Document()); err != nil {
			logger.Error("save state", "path", statePath, "err", err)
		} else {
			logger.Info("state saved", "path", statePath)
		}
	}
	return runErr
}
