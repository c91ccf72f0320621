package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"launchkit/internal/commands"
	"launchkit/internal/services"
	"launchkit/pkg/logging"
)

// RegenerationObserver is notified every time a configuration file is
// rewritten because its content was incorrect.
type RegenerationObserver interface {
	Regenerated(service string, reasons []string)
}

// Service owns an ordered set of keys and, optionally, the file they are
// persisted to. Values can only be read once INIT finished.
type Service struct {
	*services.BaseService

	path     string
	status   services.StatusProvider
	observer RegenerationObserver

	// fileMu serializes loading, reloading and saving.
	fileMu sync.Mutex

	mu          sync.RWMutex
	keys        []*Key
	index       map[string]*Key
	persisted   map[string]Value
	overrides   map[string]Value
	initialized bool
}

// NewService creates a configuration service. An empty path keeps the values
// in memory only. The service is added to tracker when it is not nil.
func NewService(name, path string, status services.StatusProvider, tracker *Tracker) *Service {
	s := &Service{
		BaseService: services.NewBaseService(name, services.PhasePreInit, services.PhaseInit),
		path:        path,
		status:      status,
		index:       make(map[string]*Key),
		persisted:   make(map[string]Value),
		overrides:   make(map[string]Value),
	}
	if tracker != nil {
		tracker.Add(s)
	}
	return s
}

// SetObserver installs an observer for file regenerations.
func (s *Service) SetObserver(observer RegenerationObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Path returns the configuration file path, or "" for in-memory services.
func (s *Service) Path() string { return s.path }

// HasFile reports whether the service persists its values.
func (s *Service) HasFile() bool { return s.path != "" }

// Initialized reports whether INIT finished.
func (s *Service) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// RegisterKey adds key. Keys can only be registered before the lifecycle starts.
func (s *Service) RegisterKey(key *Key) error {
	if key == nil {
		return fmt.Errorf("can't register nil key")
	}
	if s.status != nil && s.status.Status() != services.StateNotStarted {
		return errors.Wrapf(ErrRegistrationClosed, "key %s must be registered before PRE_INIT", key.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[key.Name()]; exists {
		return fmt.Errorf("a key is already registered under name %s", key.Name())
	}
	s.keys = append(s.keys, key)
	s.index[key.Name()] = key
	logging.Debug(s.Name(), "Registered configuration key under name: %s", key.Name())
	return nil
}

// Keys returns the registered keys in registration order.
func (s *Service) Keys() []*Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Key, len(s.keys))
	copy(out, s.keys)
	return out
}

// Key returns a registered key by name.
func (s *Service) Key(name string) (*Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.index[name]
	return key, ok
}

func (s *Service) lookupInitialized(name string) (*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(name)
}

func (s *Service) lookupLocked(name string) (*Key, error) {
	if !s.initialized {
		return nil, errors.Wrapf(ErrNotInitialized, "%s: can't access %s before INIT", s.Name(), name)
	}
	key, ok := s.index[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKey, "%s: %s", s.Name(), name)
	}
	return key, nil
}

// Value returns the current value of a key.
func (s *Service) Value(name string) (Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, err := s.lookupLocked(name)
	if err != nil {
		return Value{}, err
	}
	return key.Value(), nil
}

// SetValue assigns a typed value and makes it the value Save writes. It does
// not write the file; call Save. An argument override for the key is
// discarded.
func (s *Service) SetValue(name string, v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, err := s.lookupLocked(name)
	if err != nil {
		return err
	}
	if err := key.SetValue(v); err != nil {
		return err
	}
	delete(s.overrides, name)
	s.persisted[name] = v
	return nil
}

// SetValueFromRaw verifies, parses and assigns a raw value.
func (s *Service) SetValueFromRaw(name string, raw any) error {
	key, err := s.lookupInitialized(name)
	if err != nil {
		return err
	}
	v, err := verifyAndParse(key, raw)
	if err != nil {
		return KeyError{Service: s.Name(), Key: name, ErrorType: ErrorTypeValidation, Message: err.Error(), Value: raw, Cause: err}
	}
	return s.SetValue(name, v)
}

func verifyAndParse(key *Key, raw any) (Value, error) {
	if !key.Verify(raw) {
		return Value{}, fmt.Errorf("illegal value %v", raw)
	}
	v, err := key.Parse(raw)
	if err != nil {
		return Value{}, err
	}
	if !v.IsNull() && v.Kind() != key.Kind() {
		return Value{}, errors.Wrapf(ErrKindMismatch, "expected %s, got %s", key.Kind(), v.Kind())
	}
	return v, nil
}

// BindArguments registers a command-line argument for every key that has one.
// An argument given before INIT is staged and applied after the file is
// loaded. Either way it overrides the file value for this run and is never
// written to the file.
func (s *Service) BindArguments(registry *commands.Registry) error {
	for _, key := range s.Keys() {
		if key.Argument() == "" {
			continue
		}
		err := registry.RegisterArgument(key.Argument(), key.Description(), func(value string) error {
			return s.applyArgument(key, value)
		})
		if err != nil {
			return errors.Wrapf(err, "%s: failed to bind argument for key %s", s.Name(), key.Name())
		}
	}
	return nil
}

func (s *Service) applyArgument(key *Key, raw string) error {
	v, err := verifyAndParse(key, raw)
	if err != nil {
		return KeyError{Service: s.Name(), Key: key.Name(), ErrorType: ErrorTypeValidation, Message: err.Error(), Value: raw, Cause: err}
	}

	s.mu.Lock()
	initialized := s.initialized
	s.overrides[key.Name()] = v
	if initialized {
		err = key.SetValue(v)
	}
	s.mu.Unlock()

	if initialized {
		logging.Info(s.Name(), "Argument -%s sets %s to %s", key.Argument(), key.Name(), v)
		return err
	}
	logging.Debug(s.Name(), "Argument -%s staged for %s", key.Argument(), key.Name())
	return nil
}

// PreInit resets every key to a freshly evaluated default and generates the
// configuration file when it does not exist.
func (s *Service) PreInit(ctx context.Context) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	logging.Debug(s.Name(), "Gathering default values of the keys...")
	defaults := make(map[string]Value)
	for _, key := range s.Keys() {
		fresh := key.Default()
		if !key.Value().Equal(fresh) {
			logging.Warn(s.Name(), "Default value CHANGED for key: %s!", key.Name())
		}
		if err := key.SetValue(fresh); err != nil {
			return errors.Wrapf(err, "%s: default of key %s", s.Name(), key.Name())
		}
		defaults[key.Name()] = fresh
	}
	s.mu.Lock()
	s.persisted = defaults
	s.mu.Unlock()

	if s.HasFile() {
		if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
			if err := s.generate(defaults); err != nil {
				return err
			}
		} else if err != nil {
			return errors.Wrapf(err, "%s: failed to stat %s", s.Name(), s.path)
		}
	}

	logging.Debug(s.Name(), "PRE_INIT Finished.")
	return nil
}

// Init loads the configuration file, regenerating it when any key is
// missing, invalid or unparsable, or when unknown keys are present.
func (s *Service) Init(ctx context.Context) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if !s.HasFile() {
		logging.Debug(s.Name(), "No configuration file for this Configuration Service.")
		s.commit(s.fileValues(), true)
		return nil
	}

	values, err := s.load((*Key).Value)
	if err != nil {
		return err
	}
	s.commit(values, true)
	logging.Info(s.Name(), "Configuration file loaded. INIT phase finished.")
	return nil
}

// Reload re-reads the configuration file after INIT. Keys missing from the
// file fall back to their default. Argument overrides still win over file
// values. The new values replace the old ones in one step.
func (s *Service) Reload(ctx context.Context) error {
	if !s.Initialized() {
		return errors.Wrapf(ErrNotInitialized, "%s: can't reload before INIT", s.Name())
	}
	if !s.HasFile() {
		return nil
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	values, err := s.load((*Key).Default)
	if err != nil {
		return err
	}
	s.commit(values, false)
	logging.Info(s.Name(), "Configuration file reloaded.")
	return nil
}

// Save rewrites the configuration file from the file values. Argument
// overrides are not written.
func (s *Service) Save() error {
	if !s.HasFile() {
		logging.Debug(s.Name(), "In-memory configuration, nothing to save.")
		return nil
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.saveLocked()
}

// SetAndSave verifies, parses and assigns a raw value, then saves the file.
// No reload can run in between.
func (s *Service) SetAndSave(name string, raw any) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if err := s.SetValueFromRaw(name, raw); err != nil {
		return err
	}
	if !s.HasFile() {
		return nil
	}
	if err := s.saveLocked(); err != nil {
		return errors.Wrapf(err, "failed to save %s", s.Name())
	}
	return nil
}

func (s *Service) saveLocked() error {
	if err := s.removeFile(); err != nil {
		return err
	}
	return s.generate(s.fileValues())
}

// fileValues returns a copy of the values the file holds.
func (s *Service) fileValues() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[string]Value, len(s.persisted))
	for name, v := range s.persisted {
		values[name] = v
	}
	return values
}

// commit makes values the file values and assigns every key its file value
// or its argument override, all under one lock.
func (s *Service) commit(values map[string]Value, finishInit bool) {
	s.mu.Lock()
	var overridden []string
	var failed []error
	for _, key := range s.keys {
		v, ok := s.overrides[key.Name()]
		if ok {
			overridden = append(overridden, key.Name()+" = "+v.String())
		} else if v, ok = values[key.Name()]; !ok {
			continue
		}
		if err := key.SetValue(v); err != nil {
			failed = append(failed, err)
		}
	}
	s.persisted = values
	if finishInit {
		s.initialized = true
	}
	s.mu.Unlock()

	for _, o := range overridden {
		logging.Info(s.Name(), "Overridden by argument: %s", o)
	}
	for _, err := range failed {
		logging.Error(s.Name(), err, "Failed to assign configuration value")
	}
}

// load reads the file and regenerates it when needed. It returns the file
// value of every key, taking fallback for keys the file lacks a valid value
// for. No key is modified.
func (s *Service) load(fallback func(*Key) Value) (map[string]Value, error) {
	logging.Debug(s.Name(), "Loading configuration file...")
	staged, problems := s.readFile()

	values := make(map[string]Value, len(staged))
	for _, key := range s.Keys() {
		if v, ok := staged[key.Name()]; ok {
			values[key.Name()] = v
		} else {
			values[key.Name()] = fallback(key)
		}
	}

	if !problems.HasErrors() {
		return values, nil
	}

	for _, problem := range problems.Errors {
		switch problem.ErrorType {
		case ErrorTypeParse, ErrorTypeSyntax:
			logging.Error(s.Name(), problem.Cause, "%s", problem.Error())
		default:
			logging.Warn(s.Name(), "%s", problem.Error())
		}
	}

	abs, _ := filepath.Abs(s.path)
	logging.Warn(s.Name(), "Config %q appears to be incorrect. Correcting...", abs)
	if err := s.removeFile(); err != nil {
		return nil, err
	}
	if err := s.generate(values); err != nil {
		return nil, err
	}

	s.mu.RLock()
	observer := s.observer
	s.mu.RUnlock()
	if observer != nil {
		observer.Regenerated(s.Name(), problems.Types())
	}
	return values, nil
}

// readFile parses every valid file value and collects the problems that
// require regeneration.
func (s *Service) readFile() (map[string]Value, *KeyErrorCollection) {
	staged := make(map[string]Value)
	problems := &KeyErrorCollection{}
	newError := func(key, errorType, message string, value any, cause error) KeyError {
		return KeyError{Service: s.Name(), FilePath: s.path, Key: key, ErrorType: errorType, Message: message, Value: value, Cause: cause}
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		problems.Add(newError("", ErrorTypeIO, "configuration file disappeared after PRE_INIT", nil, err))
		return staged, problems
	}
	if err != nil {
		problems.Add(newError("", ErrorTypeIO, err.Error(), nil, err))
		return staged, problems
	}

	entries, err := decodeEntries(data)
	if err != nil {
		problems.Add(newError("", ErrorTypeSyntax, "malformed configuration file", nil, err))
		return staged, problems
	}

	fileValues := make(map[string]any, len(entries))
	var extra []rawEntry
	for _, entry := range entries {
		if _, dup := fileValues[entry.Name]; dup {
			extra = append(extra, entry)
			continue
		}
		fileValues[entry.Name] = entry.Value
	}

	for _, key := range s.Keys() {
		raw, present := fileValues[key.Name()]
		if !present {
			problems.Add(newError(key.Name(), ErrorTypeMissing, fmt.Sprintf("missing key from configuration file (%s)", key.Kind()), nil, nil))
			continue
		}
		delete(fileValues, key.Name())

		if !key.Verify(raw) {
			problems.Add(newError(key.Name(), ErrorTypeValidation, fmt.Sprintf("illegal value: %v", raw), raw, nil))
			continue
		}
		v, err := key.Parse(raw)
		if err == nil && !v.IsNull() && v.Kind() != key.Kind() {
			err = errors.Wrapf(ErrKindMismatch, "expected %s, got %s", key.Kind(), v.Kind())
		}
		if err != nil {
			problems.Add(newError(key.Name(), ErrorTypeParse, "failed to parse value", raw, err))
			continue
		}
		staged[key.Name()] = v
	}

	for _, entry := range entries {
		if _, left := fileValues[entry.Name]; left {
			problems.Add(newError(entry.Name, ErrorTypeExtra, "additional key found in the configuration file", entry.Value, nil))
			delete(fileValues, entry.Name)
		}
	}
	for _, entry := range extra {
		problems.Add(newError(entry.Name, ErrorTypeExtra, "duplicate key found in the configuration file", entry.Value, nil))
	}
	return staged, problems
}

// generate writes values, in key order, to a new file.
func (s *Service) generate(values map[string]Value) error {
	logging.Debug(s.Name(), "Generating configuration file...")
	data, err := encodeKeys(fmt.Sprintf("%s file", s.Name()), s.Keys(), values)
	if err != nil {
		return errors.Wrapf(err, "%s: failed to generate configuration", s.Name())
	}
	if err := writeNewFile(s.path, data); err != nil {
		return errors.Wrapf(err, "%s: failed to generate configuration", s.Name())
	}
	logging.Info(s.Name(), "Saved configuration file to: %q.", s.path)
	return nil
}

func (s *Service) removeFile() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "%s: failed to delete %s", s.Name(), s.path)
	}
	return nil
}
