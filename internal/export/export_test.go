package export

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/icco/xenqnt/internal/tuning"
)

func TestNoteAndBend(t *testing.T) {
	tests := []struct {
		volts float64
		note  int
		bend  int16
	}{
		{0, 60, 0},
		{1, 72, 0},
		{-1, 48, 0},
		{0.25 / 12, 60, 1024},
		{-0.25 / 12, 60, -1024},
		{7.0 / 12, 67, 0},
		{math.Log2(1.5), 67, 80}, // a just fifth is 1.955 cents sharp of 700
	}
	for _, tt := range tests {
		note, bend := NoteAndBend(tt.volts)
		if note != tt.note || math.Abs(float64(bend-tt.bend)) > 1 {
			t.Errorf("%v V: expected %d/%d, got %d/%d", tt.volts, tt.note, tt.bend, note, bend)
		}
		if got := Volts(note, bend); math.Abs(got-tt.volts) > 1e-4 {
			t.Errorf("%v V: Volts gave back %v", tt.volts, got)
		}
	}
}

type rendered struct {
	volts []float64
	notes int
}

func readBack(t *testing.T, data []byte) rendered {
	t.Helper()
	rd, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Error reading MIDI: %v", err)
	}
	if len(rd.Tracks) != 2 {
		t.Fatalf("expected a tempo track and a note track, got %d tracks", len(rd.Tracks))
	}
	if tc := rd.TempoChanges(); len(tc) == 0 || math.Abs(tc[0].BPM-90) > 0.01 {
		t.Errorf("expected the tempo to be stored, got %+v", tc)
	}

	var r rendered
	var bend int16
	for _, ev := range rd.Tracks[1] {
		msg := midi.Message(ev.Message)
		var ch, key, vel uint8
		var abs uint16
		switch {
		case msg.GetPitchBend(&ch, &bend, &abs):
		case msg.GetNoteStart(&ch, &key, &vel):
			r.volts = append(r.volts, Volts(int(key), bend))
			r.notes++
		}
	}
	return r
}

func TestWriteSevenEDO(t *testing.T) {
	l, err := tuning.Build(tuning.EqualTemperament(7))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	opts := Options{Low: 0, High: 1, BPM: 90, Name: "7-EDO"}
	n, err := Write(&buf, l, opts)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 notes from 0 V to 1 V, got %d", n)
	}

	r := readBack(t, buf.Bytes())
	if r.notes != n {
		t.Fatalf("expected %d notes in the file, got %d", n, r.notes)
	}
	for i, v := range r.volts {
		if want := float64(i) / 7; math.Abs(v-want) > 1e-4 {
			t.Errorf("note %d: expected %v V, got %v V", i, want, v)
		}
	}
}

func TestWriteSkipsDisabledAndOutOfRange(t *testing.T) {
	s := tuning.DefaultScale()
	for i := range s {
		s[i].Enabled = i%2 == 1
	}
	l, err := tuning.Build(s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "whole.mid")
	n, err := WriteFile(path, l, Options{Low: tuning.MinVolt, High: tuning.MaxVolt, BPM: 90})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rd, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("Error reading MIDI: %v", err)
	}
	var notes int
	for _, ev := range rd.Tracks[1] {
		var ch, key, vel uint8
		if midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
			notes++
			if key%2 != 0 {
				t.Errorf("expected only whole tones, got note %d", key)
			}
		}
	}
	if notes != n {
		t.Errorf("expected %d notes, got %d", n, notes)
	}
	// even notes from 12 to 126
	if n != 58 {
		t.Errorf("expected 58 playable notes, got %d", n)
	}
}
