// Package mapper maps input voltages onto lattice steps.
//
// Every mapping is a fixed point at 0 V: the tonic of the lattice is always
// returned for a 0 V input, whichever mode is used.
package mapper

import (
	"math"
	"sort"

	"github.com/icco/xenqnt/internal/tuning"
)

// Func maps one input voltage to a lattice step.
type Func func(v float64) tuning.TuningStep

// Resolve binds a mode to a lattice so the per-sample path does not switch on
// the mode. The lattice must not be modified while the returned Func is in use.
func Resolve(mode Mode, l *tuning.Lattice, restrict bool) Func {
	switch mode {
	case ModeProportional:
		return func(v float64) tuning.TuningStep {
			return Proportional(l, restrict, v)
		}
	case ModeTwelveEDO:
		return func(v float64) tuning.TuningStep {
			return CrossDegree(l, restrict, v)
		}
	default:
		steps := l.Steps(restrict)
		last := l.LastScaleIndex()
		return func(v float64) tuning.TuningStep {
			return nearest(steps, last, v)
		}
	}
}

// Proximity returns the step closest to v. Ties go to the higher step.
func Proximity(l *tuning.Lattice, restrict bool, v float64) tuning.TuningStep {
	return nearest(l.Steps(restrict), l.LastScaleIndex(), v)
}

// Proportional gives every degree of the selected table an equally wide
// input range: one period of input voltage spans one period of steps.
func Proportional(l *tuning.Lattice, restrict bool, v float64) tuning.TuningStep {
	steps := l.Steps(restrict)
	if len(steps) == 0 {
		return sentinel(l.LastScaleIndex())
	}
	pos := math.Round(v / l.PeriodVolts * float64(l.PerPeriod(restrict)))
	return steps[clampIndex(float64(l.Negative(restrict))+pos, len(steps))]
}

// CrossDegree reads v as a 12-EDO voltage and picks the step with the same
// ordinal distance from the tonic. When restrict is set the result is snapped
// to the nearest enabled step.
func CrossDegree(l *tuning.Lattice, restrict bool, v float64) tuning.TuningStep {
	if len(l.All) == 0 {
		return sentinel(l.LastScaleIndex())
	}
	st := l.All[clampIndex(float64(l.AllNegative)+math.Round(v*12), len(l.All))]
	if !restrict {
		return st
	}
	return nearest(l.Enabled, l.LastScaleIndex(), st.Voltage)
}

func nearest(steps []tuning.TuningStep, last int, v float64) tuning.TuningStep {
	if len(steps) == 0 {
		return sentinel(last)
	}
	i := sort.Search(len(steps), func(i int) bool {
		return steps[i].Voltage >= v
	})
	switch {
	case i == 0:
		return steps[0]
	case i == len(steps):
		return steps[len(steps)-1]
	}
	ceil, floor := steps[i], steps[i-1]
	if ceil.Voltage-v > v-floor.Voltage {
		return floor
	}
	return ceil
}

// sentinel keeps 0 V defined when no step is playable.
func sentinel(last int) tuning.TuningStep {
	return tuning.TuningStep{Voltage: 0, ScaleIndex: last}
}

// clampIndex clamps in float space so NaN and infinities cannot overflow the conversion.
func clampIndex(idx float64, n int) int {
	switch {
	case math.IsNaN(idx) || idx <= 0:
		return 0
	case idx >= float64(n-1):
		return n - 1
	}
	return int(idx)
}
