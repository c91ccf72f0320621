package services

// State is the process-wide lifecycle phase driven by the Orchestrator.
// Phases are also States: a service declares interest in a phase by listing
// the State the orchestrator enters when it runs that phase.
type State int

const (
	StateNotStarted State = iota
	StatePreInit
	StateInit
	StatePostInit
	StateExited
	StateCrashed
)

// Phase aliases used when a State names the phase being run rather than the
// current status.
const (
	PhasePreInit  = StatePreInit
	PhaseInit     = StateInit
	PhasePostInit = StatePostInit
	PhaseExit     = StateExited
	PhaseCrash    = StateCrashed
)

// String returns the phase name as it appears in logs.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StatePreInit:
		return "PRE_INIT"
	case StateInit:
		return "INIT"
	case StatePostInit:
		return "POST_INIT"
	case StateExited:
		return "EXIT"
	case StateCrashed:
		return "CRASH"
	default:
		return "UNKNOWN"
	}
}

// prerequisite returns the state the orchestrator must be in before running
// phase s. The second value is false when the phase can run from any state.
func (s State) prerequisite() (State, bool) {
	switch s {
	case StatePreInit:
		return StateNotStarted, true
	case StateInit:
		return StatePreInit, true
	case StatePostInit:
		return StateInit, true
	default:
		return 0, false
	}
}

// IsPhase reports whether s can be passed to Orchestrator.RunPhase.
func (s State) IsPhase() bool {
	return s >= StatePreInit && s <= StateCrashed
}

// registrationClosed reports whether services can no longer be registered.
func (s State) registrationClosed() bool {
	return s >= StatePostInit
}

// StatusProvider exposes the current lifecycle state to components that gate
// their behaviour on it.
type StatusProvider interface {
	Status() State
}
