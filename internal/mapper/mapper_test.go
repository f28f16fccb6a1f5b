package mapper

import (
	"errors"
	"math"
	"testing"

	"github.com/icco/xenqnt/internal/tuning"
)

var modes = []Mode{ModeProximity, ModeProportional, ModeTwelveEDO}

func build(t *testing.T, s tuning.Scale) *tuning.Lattice {
	t.Helper()
	l, err := tuning.Build(s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return l
}

func major() tuning.Scale {
	s := tuning.DefaultScale()
	for i := range s {
		s[i].Enabled = false
	}
	for _, deg := range []int{1, 3, 4, 6, 8, 10, 11} {
		s[deg].Enabled = true
	}
	return s
}

func TestZeroIsFixedPoint(t *testing.T) {
	scales := map[string]tuning.Scale{
		"12-TET": tuning.DefaultScale(),
		"major":  major(),
		"7-EDO":  tuning.EqualTemperament(7),
		"31-EDO": tuning.EqualTemperament(31),
	}
	for name, s := range scales {
		l := build(t, s)
		for _, mode := range modes {
			for _, restrict := range []bool{false, true} {
				got := Resolve(mode, l, restrict)(0)
				if got.Voltage != 0 {
					t.Errorf("%s/%s restrict=%v: expected 0 V, got %v", name, mode, restrict, got.Voltage)
				}
				if got.ScaleIndex != len(s)-1 {
					t.Errorf("%s/%s restrict=%v: expected degree %d, got %d", name, mode, restrict, len(s)-1, got.ScaleIndex)
				}
			}
		}
	}
}

func TestProximity(t *testing.T) {
	l := build(t, tuning.DefaultScale())
	semitone := 1.0 / 12

	tests := []struct {
		in   float64
		want float64
	}{
		{0.04, 0},
		{0.05, semitone},
		{-0.04, 0},
		{-0.05, -semitone},
		{0.5, 0.5},
		{-10, tuning.MinVolt},
		{10, tuning.MaxVolt},
		{math.Inf(1), tuning.MaxVolt},
		{math.Inf(-1), tuning.MinVolt},
	}
	for _, tt := range tests {
		got := Proximity(l, false, tt.in)
		if math.Abs(got.Voltage-tt.want) > 1e-12 {
			t.Errorf("Proximity(%v) = %v, want %v", tt.in, got.Voltage, tt.want)
		}
	}
}

func TestProximityTieFavoursCeiling(t *testing.T) {
	l := &tuning.Lattice{
		All:      []tuning.TuningStep{{Voltage: -0.05, ScaleIndex: 0}, {Voltage: 0.05, ScaleIndex: 1}},
		ScaleLen: 2,
	}
	got := Proximity(l, false, 0)
	if got.Voltage != 0.05 || got.ScaleIndex != 1 {
		t.Errorf("expected the upper step {0.05 1}, got %+v", got)
	}
}

func TestProximityRestricted(t *testing.T) {
	l := build(t, major())
	// C# sits halfway between C and D: the tie goes up to D
	got := Proximity(l, true, 1.0/12)
	if math.Abs(got.Voltage-2.0/12) > 1e-12 || got.ScaleIndex != 1 {
		t.Errorf("expected D (2/12 V, degree 1), got %+v", got)
	}
	got = Proximity(l, true, 3.0/12+0.01)
	if math.Abs(got.Voltage-4.0/12) > 1e-12 {
		t.Errorf("expected E (4/12 V), got %+v", got)
	}
}

func TestProportional(t *testing.T) {
	tet := build(t, tuning.DefaultScale())
	maj := build(t, major())

	tests := []struct {
		name     string
		l        *tuning.Lattice
		restrict bool
		in       float64
		want     float64
	}{
		{"semitone", tet, false, 1.0 / 12, 1.0 / 12},
		{"octave", tet, false, 1, 1},
		{"below range clamps", tet, false, -20, tuning.MinVolt},
		{"above range clamps", tet, false, 20, tuning.MaxVolt},
		{"major fifth", maj, true, 0.5, 7.0 / 12},
		{"major second", maj, true, 1.0 / 7, 2.0 / 12},
		{"major octave below", maj, true, -1, -1},
		{"major unrestricted", maj, false, 0.5, 0.5},
		{"nan clamps low", tet, false, math.NaN(), tuning.MinVolt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Proportional(tt.l, tt.restrict, tt.in)
			if math.Abs(got.Voltage-tt.want) > 1e-12 {
				t.Errorf("Proportional(%v) = %v, want %v", tt.in, got.Voltage, tt.want)
			}
		})
	}
}

func TestProportionalMonotonic(t *testing.T) {
	scales := []tuning.Scale{
		tuning.DefaultScale(),
		major(),
		tuning.FromCents([]float64{111.7, 203.9, 315.6, 386.3, 498, 590.2, 702, 813.7, 884.4, 1017.6, 1088.3, 1200}),
		tuning.EqualTemperament(5),
	}
	for si, s := range scales {
		l := build(t, s)
		for _, restrict := range []bool{false, true} {
			prev := math.Inf(-1)
			for v := -6.0; v <= 8; v += 0.0007 {
				got := Proportional(l, restrict, v)
				if got.Voltage < prev {
					t.Fatalf("scale %d restrict=%v: output fell from %v to %v at input %v", si, restrict, prev, got.Voltage, v)
				}
				prev = got.Voltage
			}
		}
	}
}

func TestCrossDegree(t *testing.T) {
	tet := build(t, tuning.DefaultScale())
	seven := build(t, tuning.EqualTemperament(7))
	maj := build(t, major())

	tests := []struct {
		name     string
		l        *tuning.Lattice
		restrict bool
		in       float64
		want     float64
	}{
		{"12-TET identity", tet, false, 7.0 / 12, 7.0 / 12},
		{"7-EDO first degree", seven, false, 1.0 / 12, 1.0 / 7},
		{"7-EDO one octave of input is 12 degrees", seven, false, 1, 12.0 / 7},
		{"7-EDO below zero", seven, false, -1.0 / 12, -1.0 / 7},
		{"major snaps C# up to D", maj, true, 1.0 / 12, 2.0 / 12},
		{"major keeps E", maj, true, 4.0 / 12, 4.0 / 12},
		{"clamps high", seven, false, 100, tuning.MaxVolt},
		{"clamps low", seven, false, -100, tuning.MinVolt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CrossDegree(tt.l, tt.restrict, tt.in)
			if math.Abs(got.Voltage-tt.want) > 1e-9 {
				t.Errorf("CrossDegree(%v) = %v, want %v", tt.in, got.Voltage, tt.want)
			}
		})
	}
}

func TestEmptyEnabledSentinel(t *testing.T) {
	s := tuning.DefaultScale()
	for i := range s {
		s[i].Enabled = false
	}
	l := build(t, s)

	for _, mode := range modes {
		f := Resolve(mode, l, true)
		for _, v := range []float64{-3.3, 0, 0.25, 5.9} {
			got := f(v)
			if got.Voltage != 0 || got.ScaleIndex != 11 {
				t.Errorf("%s(%v): expected sentinel {0 11}, got %+v", mode, v, got)
			}
		}
	}
}

func TestResolveMatchesDirectCalls(t *testing.T) {
	l := build(t, major())
	direct := map[Mode]func(*tuning.Lattice, bool, float64) tuning.TuningStep{
		ModeProximity:    Proximity,
		ModeProportional: Proportional,
		ModeTwelveEDO:    CrossDegree,
	}
	for _, mode := range modes {
		for _, restrict := range []bool{false, true} {
			f := Resolve(mode, l, restrict)
			for v := -5.0; v < 7; v += 0.013 {
				if got, want := f(v), direct[mode](l, restrict, v); got != want {
					t.Fatalf("%s restrict=%v at %v: resolved %+v, direct %+v", mode, restrict, v, got, want)
				}
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"proximity", ModeProximity},
		{"Proportional", ModeProportional},
		{"12edo", ModeTwelveEDO},
		{"12-EDO", ModeTwelveEDO},
		{"", ModeProximity},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseMode("sideways"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestModeTextRoundTrip(t *testing.T) {
	for _, mode := range modes {
		text, err := mode.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", mode, err)
		}
		var got Mode
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if got != mode {
			t.Errorf("expected %v, got %v", mode, got)
		}
	}
	if ModeTwelveEDO.Next() != ModeProximity {
		t.Errorf("expected Next to wrap around")
	}
}
