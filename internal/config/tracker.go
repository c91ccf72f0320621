package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"launchkit/internal/commands"
	"launchkit/internal/services"
	"launchkit/pkg/logging"
)

// ConflictServiceName is the service name of the conflict checker.
const ConflictServiceName = "Configuration Conflict Prevention Service"

// Tracker records every configuration service so they can be checked for
// conflicts with each other.
type Tracker struct {
	mu       sync.Mutex
	services []*Service
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add records s.
func (t *Tracker) Add(s *Service) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.services = append(t.services, s)
}

// Services returns the tracked services in the order they were added.
func (t *Tracker) Services() []*Service {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Service, len(t.services))
	copy(out, t.services)
	return out
}

// ConflictKind names what two services have in common.
type ConflictKind string

const (
	ConflictFilePath ConflictKind = "file_path"
	ConflictArgument ConflictKind = "argument"
	ConflictKeyName  ConflictKind = "key_name"
)

// Conflict is a resource claimed by more than one owner.
type Conflict struct {
	Kind    ConflictKind
	Subject string
	// Owners lists "service" or "service/key" entries, sorted.
	Owners []string
	Fatal  bool
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %q shared by %s", c.Kind, c.Subject, strings.Join(c.Owners, ", "))
}

// Detect returns all conflicts between the tracked services, sorted by kind
// and subject. Shared file paths and shared argument bindings are fatal;
// the same key name in different services is not.
func (t *Tracker) Detect() []Conflict {
	paths := make(map[string][]string)
	arguments := make(map[string][]string)
	keyNames := make(map[string][]string)

	for _, svc := range t.Services() {
		if svc.HasFile() {
			abs, err := filepath.Abs(svc.Path())
			if err != nil {
				abs = filepath.Clean(svc.Path())
			}
			paths[abs] = append(paths[abs], svc.Name())
		}
		for _, key := range svc.Keys() {
			owner := svc.Name() + "/" + key.Name()
			if key.Argument() != "" {
				arg := commands.Normalize(key.Argument())
				arguments[arg] = append(arguments[arg], owner)
			}
			keyNames[key.Name()] = appendUnique(keyNames[key.Name()], svc.Name())
		}
	}

	var conflicts []Conflict
	collect := func(kind ConflictKind, owners map[string][]string, fatal bool) {
		for subject, list := range owners {
			if len(list) < 2 {
				continue
			}
			sort.Strings(list)
			conflicts = append(conflicts, Conflict{Kind: kind, Subject: subject, Owners: list, Fatal: fatal})
		}
	}
	collect(ConflictFilePath, paths, true)
	collect(ConflictArgument, arguments, true)
	collect(ConflictKeyName, keyNames, false)

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Kind != conflicts[j].Kind {
			return conflicts[i].Kind < conflicts[j].Kind
		}
		return conflicts[i].Subject < conflicts[j].Subject
	})
	return conflicts
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// ConflictService checks the tracked configuration services during POST_INIT.
type ConflictService struct {
	*services.BaseService
	tracker *Tracker
}

// NewConflictService creates the conflict checker for tracker.
func NewConflictService(tracker *Tracker) *ConflictService {
	return &ConflictService{
		BaseService: services.NewBaseService(ConflictServiceName, services.PhasePostInit),
		tracker:     tracker,
	}
}

// PostInit logs every conflict and fails when any of them is fatal.
func (c *ConflictService) PostInit(ctx context.Context) error {
	logging.Info(c.Name(), "Scanning Configuration services for potential conflicts...")

	fatal := 0
	for _, conflict := range c.tracker.Detect() {
		if conflict.Fatal {
			fatal++
			logging.Error(c.Name(), nil, "Conflict: %s", conflict)
			continue
		}
		logging.Warn(c.Name(), "Possible conflict: %s", conflict)
	}

	if fatal > 0 {
		return fmt.Errorf("found %d fatal configuration conflict(s)", fatal)
	}
	logging.Info(c.Name(), "No fatal conflicts found between %d configuration service(s).", len(c.tracker.Services()))
	return nil
}
