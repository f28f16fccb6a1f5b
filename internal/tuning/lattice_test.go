package tuning

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestBuildTwelveTET(t *testing.T) {
	l, err := Build(DefaultScale())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// -4 V .. +6 V in semitones, both ends inclusive
	if len(l.All) != 121 {
		t.Fatalf("expected 121 steps, got %d", len(l.All))
	}
	if len(l.Enabled) != len(l.All) {
		t.Errorf("all steps enabled, expected %d enabled entries, got %d", len(l.All), len(l.Enabled))
	}
	if l.AllNegative != 48 || l.EnabledNegative != 48 {
		t.Errorf("expected 48 negative entries, got all=%d enabled=%d", l.AllNegative, l.EnabledNegative)
	}

	zero := l.All[l.AllNegative]
	if zero.Voltage != 0 {
		t.Errorf("expected 0 V at the negative boundary, got %v", zero.Voltage)
	}
	if zero.ScaleIndex != 11 {
		t.Errorf("expected 0 V to belong to the period degree 11, got %d", zero.ScaleIndex)
	}
	if first := l.All[0]; first.Voltage != MinVolt || first.ScaleIndex != 11 {
		t.Errorf("expected lattice to start at %v V on degree 11, got %+v", MinVolt, first)
	}
	if last := l.All[len(l.All)-1]; last.Voltage != MaxVolt || last.ScaleIndex != 11 {
		t.Errorf("expected lattice to end at %v V on degree 11, got %+v", MaxVolt, last)
	}
	if l.PeriodVolts != 1 {
		t.Errorf("expected a 1 V period, got %v", l.PeriodVolts)
	}
}

func TestBuildEnabledSubset(t *testing.T) {
	// C major: degrees 2, 4, 5, 7, 9, 11, 12 semitones above the tonic
	s := DefaultScale()
	for i := range s {
		s[i].Enabled = false
	}
	for _, deg := range []int{1, 3, 4, 6, 8, 10, 11} {
		s[deg].Enabled = true
	}

	l, err := Build(s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if l.EnabledPerPeriod != 7 {
		t.Errorf("expected 7 enabled steps per period, got %d", l.EnabledPerPeriod)
	}
	if len(l.Enabled) != 71 {
		t.Errorf("expected 10 periods of 7 notes plus the top tonic, got %d", len(l.Enabled))
	}
	if l.EnabledNegative != 28 {
		t.Errorf("expected 28 enabled steps below 0 V, got %d", l.EnabledNegative)
	}
	if got := l.Enabled[l.EnabledNegative]; got.Voltage != 0 {
		t.Errorf("expected tonic at the enabled negative boundary, got %+v", got)
	}
	for _, st := range l.Enabled {
		if !s[st.ScaleIndex].Enabled {
			t.Fatalf("disabled degree %d in enabled table", st.ScaleIndex)
		}
	}
}

func TestBuildNonOctavePeriod(t *testing.T) {
	// Bohlen-Pierce: 13 equal divisions of a 3:1 tritave
	tritave := 1200 * math.Log2(3)
	cents := make([]float64, 13)
	for i := range cents {
		cents[i] = tritave * float64(i+1) / 13
	}
	l, err := Build(FromCents(cents))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if math.Abs(l.PeriodVolts-math.Log2(3)) > 1e-12 {
		t.Errorf("expected period %v V, got %v", math.Log2(3), l.PeriodVolts)
	}
	assertLattice(t, l)
}

func TestBuildSingleStep(t *testing.T) {
	l, err := Build(Scale{{Cents: 1200, Enabled: true}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []float64{-4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6}
	if len(l.All) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(l.All))
	}
	for i, v := range want {
		if l.All[i].Voltage != v || l.All[i].ScaleIndex != 0 {
			t.Errorf("step %d: expected {%v 0}, got %+v", i, v, l.All[i])
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		scale Scale
		want  error
	}{
		{"empty", Scale{}, ErrEmptyScale},
		{"nil", nil, ErrEmptyScale},
		{"zero period", Scale{{Cents: 0}}, ErrInvalidScale},
		{"negative step", Scale{{Cents: -100}, {Cents: 1200}}, ErrInvalidScale},
		{"unsorted", Scale{{Cents: 700}, {Cents: 300}, {Cents: 1200}}, ErrInvalidScale},
		{"duplicate", Scale{{Cents: 700}, {Cents: 700}, {Cents: 1200}}, ErrInvalidScale},
		{"nan", Scale{{Cents: math.NaN()}, {Cents: 1200}}, ErrInvalidScale},
		{"too dense", Scale{{Cents: 0.01}}, ErrInvalidScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Build(tt.scale)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if l != nil {
				t.Errorf("expected no lattice on error, got %d steps", len(l.All))
			}
		})
	}
}

func TestBuildRandomScalesAscending(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.IntN(100)
		period := 100 + rng.Float64()*2400
		cents := make([]float64, 0, n)
		seen := map[float64]bool{period: true}
		cents = append(cents, period)
		for len(cents) < n {
			c := rng.Float64() * period
			if c <= 0 || seen[c] {
				continue
			}
			seen[c] = true
			cents = append(cents, c)
		}
		s := FromCents(cents)
		for i := range s {
			s[i].Enabled = rng.IntN(3) > 0
		}

		l, err := Build(s)
		if err != nil {
			t.Fatalf("iteration %d: Build: %v", iter, err)
		}
		assertLattice(t, l)
	}
}

func TestFromCentsSorts(t *testing.T) {
	s := FromCents([]float64{1200, 700, 400})
	want := []float64{400, 700, 1200}
	for i, c := range want {
		if s[i].Cents != c || !s[i].Enabled {
			t.Errorf("step %d: expected {%v true}, got %+v", i, c, s[i])
		}
	}
	if s.Period() != 1200 {
		t.Errorf("expected period 1200, got %v", s.Period())
	}
}

func assertLattice(t *testing.T, l *Lattice) {
	t.Helper()
	for _, table := range [][]TuningStep{l.All, l.Enabled} {
		for i, st := range table {
			if st.Voltage < MinVolt || st.Voltage > MaxVolt {
				t.Fatalf("step %d at %v V outside [%v, %v]", i, st.Voltage, MinVolt, MaxVolt)
			}
			if i > 0 && st.Voltage <= table[i-1].Voltage {
				t.Fatalf("step %d (%v V) not above step %d (%v V)", i, st.Voltage, i-1, table[i-1].Voltage)
			}
		}
	}
	neg := 0
	for _, st := range l.All {
		if st.Voltage < 0 {
			neg++
		}
	}
	if neg != l.AllNegative {
		t.Errorf("expected %d negative entries, counted %d", l.AllNegative, neg)
	}
}
