// Package services runs launchkit's lifecycle.
//
// The lifecycle is a fixed sequence of phases:
//
//	NOT_STARTED -> PRE_INIT -> INIT -> POST_INIT -> EXIT
//
// with CRASH reachable from any state. Every Service declares the phases it
// takes part in and implements the matching hook interface (PreIniter,
// Initer, PostIniter, Exiter, Crasher). The Orchestrator calls the hooks of
// one phase one at a time, in no particular order: services must not depend
// on their siblings within a phase.
//
// # Registration
//
// Services are registered while the orchestrator is NOT_STARTED or in
// PRE_INIT. Registration closes once INIT starts. Names are unique.
//
// # Phase Order
//
// PRE_INIT, INIT and POST_INIT need the phase before them to have completed.
// EXIT and CRASH run from any state so shutdown and crash handling always get
// a chance to run.
//
// # Failures
//
// A hook error or panic aborts the phase and is returned as a *PhaseError
// naming the phase and the service. CRASH is the exception: failures are
// logged and the remaining Crashers still run.
//
// # Observation
//
// A PhaseObserver sees every phase start and every failing hook. The metrics
// recorder uses it to count both.
package services
