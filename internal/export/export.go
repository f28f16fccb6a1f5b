// Package export renders a tuning lattice as a Standard MIDI File so it can be
// auditioned on any General MIDI synth. Each enabled step becomes one note,
// retuned with a pitch bend sent just before it.
package export

import (
	"io"
	"math"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/icco/xenqnt/internal/tuning"
)

const (
	ticksPerQuarterNote = 960
	// BendRange is the pitch bend range in semitones assumed by the receiver.
	BendRange = 2
	bendMax   = 8191
	bendMin   = -8192
	velocity  = 100
)

// Options controls which part of the lattice is rendered and how.
type Options struct {
	Low, High float64 // voltage window, inclusive
	BPM       float64
	Channel   uint8
	Name      string
}

func DefaultOptions() Options {
	return Options{Low: 0, High: 1, BPM: 120, Name: "xenqnt"}
}

// NoteAndBend splits a 1 V/octave voltage (0 V = middle C) into the nearest
// MIDI note and the pitch bend that retunes it.
func NoteAndBend(v float64) (note int, bend int16) {
	semis := v*12 + 60
	note = int(math.Round(semis))
	offset := (semis - float64(note)) / BendRange
	b := math.Round(offset * 8192)
	return note, int16(max(bendMin, min(bendMax, b)))
}

// Volts is the inverse of NoteAndBend.
func Volts(note int, bend int16) float64 {
	return (float64(note) - 60 + float64(bend)/8192*BendRange) / 12
}

// Write renders the enabled steps of l inside the window, one quarter note
// each, and returns the number of notes written. Steps outside the MIDI note
// range are skipped.
func Write(w io.Writer, l *tuning.Lattice, opts Options) (int, error) {
	if opts.BPM <= 0 {
		opts.BPM = 120
	}
	ch := opts.Channel & 0x0F

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarterNote)

	var track0 smf.Track
	track0.Add(0, smf.MetaTrackSequenceName(opts.Name))
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(opts.BPM))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return 0, fault.Wrap(err, fmsg.With("add tempo track"))
	}

	var track smf.Track
	n := 0
	for _, st := range l.Enabled {
		if st.Voltage < opts.Low || st.Voltage > opts.High {
			continue
		}
		note, bend := NoteAndBend(st.Voltage)
		if note < 0 || note > 127 {
			continue
		}
		track.Add(0, midi.Pitchbend(ch, bend))
		track.Add(0, midi.NoteOn(ch, uint8(note), velocity))
		track.Add(ticksPerQuarterNote, midi.NoteOff(ch, uint8(note)))
		n++
	}
	track.Add(0, midi.Pitchbend(ch, 0))
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return 0, fault.Wrap(err, fmsg.With("add note track"))
	}

	if _, err := sm.WriteTo(w); err != nil {
		return 0, fault.Wrap(err, fmsg.With("write midi file"))
	}
	return n, nil
}

// WriteFile writes the rendering to path.
func WriteFile(path string, l *tuning.Lattice, opts Options) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fault.Wrap(err, fmsg.WithDesc("create", "Could not create "+path))
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fault.Wrap(cerr, fmsg.With("close midi file"))
		}
	}()
	return Write(f, l, opts)
}
