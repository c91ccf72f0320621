// Package commands decodes command-line tokens and console lines into
// argument handlers and one-shot command invocations.
//
// Names are case-insensitive and a single leading dash is optional, so
// "-ThreadCount:4", "threadcount:4" and "-THREADCOUNT:4" all reach the same
// handler. Arguments run immediately while scanning; commands found during a
// scan are queued and run afterwards, in the order they were given.
package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"launchkit/pkg/logging"
)

const subsystem = "Command Registry"

// Handler receives the value part of a token. An empty string is passed when
// the token carried no value.
type Handler func(value string) error

// Info describes a registered argument or command.
type Info struct {
	Name        string
	Description string
	// Startup is false for runtime-only commands. Always true for arguments.
	Startup bool
}

type entry struct {
	Info
	handler Handler
}

// Observer is notified of every decode outcome.
type Observer interface {
	Decoded(outcome Outcome)
}

// Registry holds argument and command handlers.
type Registry struct {
	mu        sync.RWMutex
	arguments map[string]*entry
	commands  map[string]*entry
	observer  Observer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		arguments: make(map[string]*entry),
		commands:  make(map[string]*entry),
	}
}

// SetObserver installs an observer for decode outcomes.
func (r *Registry) SetObserver(observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = observer
}

// Normalize lower-cases name and strips one leading dash.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "-"))
}

func validateRegistration(kind, name string, handler Handler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("%s handler for %q is nil", kind, name)
	}
	if strings.Contains(name, " ") {
		return "", fmt.Errorf("passed %s (%q) contains illegal values", kind, name)
	}
	normalized := Normalize(name)
	if normalized == "" {
		return "", fmt.Errorf("%s name is empty", kind)
	}
	return normalized, nil
}

// RegisterArgument binds handler to an argument name. Arguments only run
// while scanning command-line tokens.
func (r *Registry) RegisterArgument(name, description string, handler Handler) error {
	normalized, err := validateRegistration("argument", name, handler)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.arguments[normalized]; exists {
		return fmt.Errorf("argument %q is already registered", normalized)
	}
	r.arguments[normalized] = &entry{
		Info:    Info{Name: normalized, Description: description, Startup: true},
		handler: handler,
	}
	logging.Debug(subsystem, "Successfully registered argument handler for: %s", normalized)
	return nil
}

// RegisterCommand binds handler to a command name. When startupExecution is
// false the command is skipped during a startup scan but can still be run
// through Decode.
func (r *Registry) RegisterCommand(name, description string, handler Handler, startupExecution bool) error {
	normalized, err := validateRegistration("command", name, handler)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[normalized]; exists {
		return fmt.Errorf("command %q is already registered", normalized)
	}
	r.commands[normalized] = &entry{
		Info:    Info{Name: normalized, Description: description, Startup: startupExecution},
		handler: handler,
	}

	kind := "command"
	if !startupExecution {
		kind = "runtime-only command"
	}
	logging.Debug(subsystem, "Successfully registered %s handler for: %s", kind, normalized)
	return nil
}

// Arguments lists registered arguments sorted by name.
func (r *Registry) Arguments() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedInfo(r.arguments)
}

// Commands lists registered commands sorted by name.
func (r *Registry) Commands() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedInfo(r.commands)
}

func sortedInfo(entries map[string]*entry) []Info {
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) lookup(name string) (argument, command *entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.arguments[name], r.commands[name]
}

func (r *Registry) notify(outcome Outcome) {
	r.mu.RLock()
	observer := r.observer
	r.mu.RUnlock()
	if observer != nil {
		observer.Decoded(outcome)
	}
}

// invoke runs handler, converting a panic into an error.
func invoke(handler Handler, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("handler panicked: %w", rerr)
				return
			}
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(value)
}
