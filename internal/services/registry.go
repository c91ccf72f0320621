package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"launchkit/pkg/logging"
)

const subsystem = "Service Manager"

var (
	// ErrInvalidState is returned when a phase is run out of order.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrRegistrationClosed is returned when registering after POST_INIT began.
	ErrRegistrationClosed = errors.New("service registration is closed")

	// ErrDuplicateService is returned when a name is registered twice.
	ErrDuplicateService = errors.New("service already registered")
)

// PhaseError wraps a hook failure with the phase and service that produced it.
type PhaseError struct {
	Phase   State
	Service string
	Err     error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("failed %s of service %s: %v", e.Phase, e.Service, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Orchestrator owns the registered services and the process-wide lifecycle
// state. Phases run synchronously; RunPhase calls are serialized.
type Orchestrator struct {
	runMu sync.Mutex // serializes phase execution

	mu       sync.RWMutex
	state    State
	services map[string]Service
	observer PhaseObserver
}

// NewOrchestrator creates an orchestrator in StateNotStarted.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		state:    StateNotStarted,
		services: make(map[string]Service),
	}
}

// SetObserver installs an observer notified of phase runs and hook failures.
func (o *Orchestrator) SetObserver(observer PhaseObserver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observer = observer
}

// Status returns the current lifecycle state.
func (o *Orchestrator) Status() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Register adds a service. It does not invoke any hook.
func (o *Orchestrator) Register(service Service) error {
	if service == nil {
		return fmt.Errorf("cannot register nil service")
	}

	name := service.Name()
	if name == "" {
		return fmt.Errorf("service has empty name")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.registrationClosed() {
		return errors.Wrapf(ErrRegistrationClosed, "cannot register %s during %s", name, o.state)
	}
	if _, exists := o.services[name]; exists {
		return errors.Wrapf(ErrDuplicateService, "service %s", name)
	}

	o.services[name] = service
	logging.Info(subsystem, "Registered service: %s", name)
	return nil
}

// Get returns a service by name
func (o *Orchestrator) Get(name string) (Service, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	service, exists := o.services[name]
	return service, exists
}

// GetAll returns all registered services in no particular order
func (o *Orchestrator) GetAll() []Service {
	o.mu.RLock()
	defer o.mu.RUnlock()

	services := make([]Service, 0, len(o.services))
	for _, service := range o.services {
		services = append(services, service)
	}
	return services
}

// RunPhase moves the state machine to phase and invokes the hook of every
// service that declared it.
//
// PRE_INIT, INIT and POST_INIT require the previous phase to be the current
// state; EXIT and CRASH can run from anywhere. A hook failure aborts the phase
// and is returned as a *PhaseError, except during CRASH where failures are
// logged and the remaining services still run.
func (o *Orchestrator) RunPhase(ctx context.Context, phase State) error {
	if !phase.IsPhase() {
		return errors.Wrapf(ErrInvalidState, "%s is not a runnable phase", phase)
	}

	o.runMu.Lock()
	defer o.runMu.Unlock()

	o.mu.Lock()
	if required, ok := phase.prerequisite(); ok && o.state != required {
		current := o.state
		o.mu.Unlock()
		return errors.Wrapf(ErrInvalidState, "can't run %s of services when status is %s", phase, current)
	}
	o.state = phase
	observer := o.observer
	targets := make([]Service, 0, len(o.services))
	for _, svc := range o.services {
		if declares(svc, phase) {
			targets = append(targets, svc)
		}
	}
	o.mu.Unlock()

	if observer != nil {
		observer.PhaseStarted(phase)
	}

	tolerant := phase == PhaseCrash
	for _, svc := range targets {
		logging.Info(subsystem, "Running phase %q of service: %s", phase, svc.Name())

		err := invokeHook(ctx, svc, phase)
		if err == nil {
			continue
		}

		if observer != nil {
			observer.HookFailed(phase, svc.Name())
		}
		if tolerant {
			logging.Error(subsystem, err, "Failed %s of service: %s! This error is being ignored, but it might cause issues later on!", phase, svc.Name())
			continue
		}
		return errors.WithStack(&PhaseError{Phase: phase, Service: svc.Name(), Err: err})
	}

	logging.Info(subsystem, "%s phase of services finished.", phase)
	return nil
}

// invokeHook calls the hook for phase, converting a panic into an error.
func invokeHook(ctx context.Context, svc Service, phase State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = errors.Wrap(rerr, "panic")
				return
			}
			err = errors.Errorf("panic: %v", r)
		}
	}()

	switch phase {
	case PhasePreInit:
		if h, ok := svc.(PreIniter); ok {
			return h.PreInit(ctx)
		}
	case PhaseInit:
		if h, ok := svc.(Initer); ok {
			return h.Init(ctx)
		}
	case PhasePostInit:
		if h, ok := svc.(PostIniter); ok {
			return h.PostInit(ctx)
		}
	case PhaseExit:
		if h, ok := svc.(Exiter); ok {
			return h.Exit(ctx)
		}
	case PhaseCrash:
		if h, ok := svc.(Crasher); ok {
			return h.Crash(ctx)
		}
	}
	return nil
}
