package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Mode selects how input voltages are mapped onto the lattice.
type Mode int

const (
	ModeProximity Mode = iota
	ModeProportional
	ModeTwelveEDO
)

var ErrUnknownMode = errors.New("unknown mapping mode")

var modeNames = [...]string{
	ModeProximity:    "proximity",
	ModeProportional: "proportional",
	ModeTwelveEDO:    "12edo",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Label is the human readable name shown in the UI.
func (m Mode) Label() string {
	switch m {
	case ModeProximity:
		return "Proximity"
	case ModeProportional:
		return "Proportional"
	case ModeTwelveEDO:
		return "12-EDO input"
	}
	return m.String()
}

// Next cycles through the modes.
func (m Mode) Next() Mode {
	return (m + 1) % Mode(len(modeNames))
}

func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if key == name {
			return Mode(i), nil
		}
	}
	switch key {
	case "", "nearest":
		return ModeProximity, nil
	case "12-edo", "12edo-input", "cross", "cross-degree":
		return ModeTwelveEDO, nil
	}
	return ModeProximity, fault.Wrap(ErrUnknownMode,
		fmsg.WithDesc(fmt.Sprintf("mode %q", s), "Use one of proximity, proportional or 12edo"),
		ftag.With(ftag.InvalidArgument),
	)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(modeNames) {
		return nil, fault.Wrap(ErrUnknownMode, fmsg.With(m.String()))
	}
	return []byte(modeNames[m]), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
