// Package tuning models periodic scales and expands them into voltage lattices.
package tuning

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	MinVolt = -4.0 // 16 Hz
	MaxVolt = 6.0  // 17 kHz (if 0 V corresponds with middle C)

	centsPerVolt = 1200.0

	// MaxLatticeSize bounds the number of entries a single rebuild may produce.
	MaxLatticeSize = 1 << 16
)

var (
	ErrEmptyScale   = errors.New("scale has no steps")
	ErrInvalidScale = errors.New("invalid scale")
)

// ScaleStep is one degree of a periodic scale.
type ScaleStep struct {
	Cents   float64 `json:"cents"`
	Enabled bool    `json:"enabled"`
}

// Scale is an ordered list of steps. The last step's cents value is the period.
type Scale []ScaleStep

// EqualTemperament divides the octave into n equal steps, all enabled.
func EqualTemperament(n int) Scale {
	s := make(Scale, n)
	for i := range s {
		s[i] = ScaleStep{Cents: float64(i+1) * centsPerVolt / float64(n), Enabled: true}
	}
	return s
}

// DefaultScale is 12-tone equal temperament.
func DefaultScale() Scale {
	return EqualTemperament(12)
}

// FromCents builds an all-enabled scale sorted by cents.
func FromCents(cents []float64) Scale {
	s := make(Scale, len(cents))
	for i, c := range cents {
		s[i] = ScaleStep{Cents: c, Enabled: true}
	}
	s.Sort()
	return s
}

// Sort orders the steps by ascending cents.
func (s Scale) Sort() {
	slices.SortStableFunc(s, func(a, b ScaleStep) int {
		switch {
		case a.Cents < b.Cents:
			return -1
		case a.Cents > b.Cents:
			return 1
		}
		return 0
	})
}

func (s Scale) Clone() Scale {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// Period returns the repeat interval in cents, or 0 for an empty scale.
func (s Scale) Period() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Cents
}

func (s Scale) EnabledCount() int {
	n := 0
	for _, st := range s {
		if st.Enabled {
			n++
		}
	}
	return n
}

func (s Scale) Equal(o Scale) bool {
	return slices.Equal(s, o)
}

// Validate checks that the scale is non-empty, strictly ascending, starts above
// 0 cents and produces a lattice of bounded size.
func (s Scale) Validate() error {
	if len(s) == 0 {
		return fault.Wrap(ErrEmptyScale, ftag.With(ftag.InvalidArgument))
	}
	period := s.Period()
	if math.IsNaN(period) || math.IsInf(period, 0) || period <= 0 {
		return invalid(fmt.Sprintf("period %v is not a positive number of cents", period))
	}
	prev := 0.0
	for i, st := range s {
		if math.IsNaN(st.Cents) || st.Cents <= prev {
			return invalid(fmt.Sprintf("step %d (%.4f cents) does not lie above %.4f cents", i+1, st.Cents, prev))
		}
		prev = st.Cents
	}
	periods := (MaxVolt - MinVolt) * centsPerVolt / period
	if float64(len(s))*periods > MaxLatticeSize {
		return invalid(fmt.Sprintf("period of %.4f cents yields more than %d lattice steps", period, MaxLatticeSize))
	}
	return nil
}

func invalid(msg string) error {
	return fault.Wrap(ErrInvalidScale,
		fmsg.WithDesc(msg, "The scale cannot be used as a tuning"),
		ftag.With(ftag.InvalidArgument),
	)
}
