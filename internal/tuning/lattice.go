package tuning

import (
	"slices"
)

// TuningStep is one absolute pitch of the lattice and the scale degree it came from.
type TuningStep struct {
	Voltage    float64
	ScaleIndex int
}

// Lattice holds every realisation of a scale inside [MinVolt, MaxVolt].
// A Lattice is never modified after Build returns it.
type Lattice struct {
	All     []TuningStep // every degree, ascending by voltage
	Enabled []TuningStep // enabled degrees only, ascending by voltage

	AllNegative      int // entries of All below 0 V
	EnabledNegative  int // entries of Enabled below 0 V
	EnabledPerPeriod int

	ScaleLen    int
	PeriodVolts float64
}

// Build expands a sorted scale into its lattice. The 0 V entry belongs to the
// last degree (the period), walking down from it covers negative voltages and
// walking up from the first degree covers positive ones.
func Build(s Scale) (*Lattice, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	period := s.Period()
	periodVolts := period / centsPerVolt
	capacity := len(s) * (int((MaxVolt-MinVolt)/periodVolts) + 2)

	down := make([]TuningStep, 0, capacity/2+1)
backward:
	for k := 0; ; k++ {
		offset := -float64(k) * periodVolts
		for i := len(s) - 1; i >= 0; i-- {
			v := offset + (s[i].Cents-period)/centsPerVolt
			if v < MinVolt {
				break backward
			}
			down = append(down, TuningStep{Voltage: v, ScaleIndex: i})
		}
	}
	slices.Reverse(down)

	all := down
forward:
	for k := 0; ; k++ {
		offset := float64(k) * periodVolts
		for i, st := range s {
			v := offset + st.Cents/centsPerVolt
			if v > MaxVolt {
				break forward
			}
			all = append(all, TuningStep{Voltage: v, ScaleIndex: i})
		}
	}

	l := &Lattice{
		All:              all,
		Enabled:          make([]TuningStep, 0, len(all)),
		EnabledPerPeriod: s.EnabledCount(),
		ScaleLen:         len(s),
		PeriodVolts:      periodVolts,
	}
	for _, st := range all {
		negative := st.Voltage < 0
		if negative {
			l.AllNegative++
		}
		if !s[st.ScaleIndex].Enabled {
			continue
		}
		l.Enabled = append(l.Enabled, st)
		if negative {
			l.EnabledNegative++
		}
	}
	return l, nil
}

// Steps returns the enabled-only table when restrict is set, otherwise every step.
func (l *Lattice) Steps(restrict bool) []TuningStep {
	if restrict {
		return l.Enabled
	}
	return l.All
}

// Negative returns the number of entries below 0 V in the selected table.
func (l *Lattice) Negative(restrict bool) int {
	if restrict {
		return l.EnabledNegative
	}
	return l.AllNegative
}

// PerPeriod returns the number of entries one period contributes to the selected table.
func (l *Lattice) PerPeriod(restrict bool) int {
	if restrict {
		return l.EnabledPerPeriod
	}
	return l.ScaleLen
}

// LastScaleIndex is the degree that owns 0 V.
func (l *Lattice) LastScaleIndex() int {
	return l.ScaleLen - 1
}
