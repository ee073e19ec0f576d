package player

// Phase represents the service lifecycle phase.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseRunning
	PhaseStopped
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "WAITING"
	case PhaseRunning:
		return "RUNNING"
	case PhaseStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}
