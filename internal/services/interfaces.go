package services

import "context"

// Service is the core interface every lifecycle participant implements.
// Phases lists the phases the service wants to be invoked for; hooks for
// phases not listed are never called even when implemented.
type Service interface {
	Name() string
	Phases() []State
}

// PreIniter is implemented by services with a PRE_INIT hook.
type PreIniter interface {
	PreInit(ctx context.Context) error
}

// Initer is implemented by services with an INIT hook.
type Initer interface {
	Init(ctx context.Context) error
}

// PostIniter is implemented by services with a POST_INIT hook.
type PostIniter interface {
	PostInit(ctx context.Context) error
}

// Exiter is implemented by services that need to clean up on a normal exit.
type Exiter interface {
	Exit(ctx context.Context) error
}

// Crasher is implemented by services that need special handling when the
// application crashes. Crash hooks must not assume any other phase completed.
type Crasher interface {
	Crash(ctx context.Context) error
}

// PhaseObserver receives phase outcomes. Used for metrics.
type PhaseObserver interface {
	PhaseStarted(phase State)
	HookFailed(phase State, service string)
}
