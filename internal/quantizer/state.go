package quantizer

// State is the controller's externally visible condition, evaluated after each sample.
type State int

const (
	Idle State = iota
	RebuildPending
	CvEngaged
	ErrorBlink
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RebuildPending:
		return "rebuild pending"
	case CvEngaged:
		return "cv engaged"
	case ErrorBlink:
		return "error"
	}
	return "unknown"
}
