package config

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Parser turns a raw value into a typed Value. It may fail.
type Parser func(raw any) (Value, error)

// Verifier checks a raw value before it is parsed.
type Verifier func(raw any) bool

// KeySpec describes a configuration key.
type KeySpec struct {
	// Name is the key's name in the configuration file.
	Name string
	// Default is called every time the default value is needed.
	Default func() Value
	// Parser is optional. Without it the raw value is coerced to the key's kind.
	Parser Parser
	// Verifier is optional. Without it every raw value passes.
	Verifier Verifier
	// Argument binds the key to a command-line argument when not empty.
	Argument string
	// Description is written as a comment above the entry.
	Description string
}

// Key is a named, typed configuration value.
type Key struct {
	name        string
	argument    string
	description string
	kind        Kind
	defaultFn   func() Value
	parser      Parser
	verifier    Verifier

	mu    sync.RWMutex
	value Value
}

// NewKey creates a key whose kind and initial value come from spec.Default.
func NewKey(spec KeySpec) (*Key, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("configuration key has empty name")
	}
	if spec.Default == nil {
		return nil, fmt.Errorf("configuration key %s has no default supplier", spec.Name)
	}

	initial := spec.Default()
	if initial.IsNull() {
		return nil, fmt.Errorf("default value of configuration key %s is null", spec.Name)
	}

	return &Key{
		name:        spec.Name,
		argument:    spec.Argument,
		description: spec.Description,
		kind:        initial.Kind(),
		defaultFn:   spec.Default,
		parser:      spec.Parser,
		verifier:    spec.Verifier,
		value:       initial,
	}, nil
}

// MustKey is like NewKey but panics on error. For package-level key tables.
func MustKey(spec KeySpec) *Key {
	key, err := NewKey(spec)
	if err != nil {
		panic(err)
	}
	return key
}

func (k *Key) Name() string        { return k.name }
func (k *Key) Argument() string    { return k.argument }
func (k *Key) Description() string { return k.description }
func (k *Key) Kind() Kind          { return k.kind }

// Value returns the current value.
func (k *Key) Value() Value {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.value
}

// Default evaluates the default supplier.
func (k *Key) Default() Value {
	return k.defaultFn()
}

// Verify reports whether raw passes the verifier.
func (k *Key) Verify(raw any) bool {
	if k.verifier == nil {
		return true
	}
	return k.verifier(raw)
}

// Parse converts raw into a Value of the key's kind.
func (k *Key) Parse(raw any) (Value, error) {
	if k.parser == nil {
		return Coerce(raw, k.kind)
	}
	return k.parser(raw)
}

// SetValue assigns v. The kind must match unless v is Null.
func (k *Key) SetValue(v Value) error {
	if !v.IsNull() && v.Kind() != k.kind {
		return errors.Wrapf(ErrKindMismatch, "can't change kind of key %s: expected %s, got %s", k.name, k.kind, v.Kind())
	}
	k.mu.Lock()
	k.value = v
	k.mu.Unlock()
	return nil
}

// ParseAndSet parses raw and assigns the result.
func (k *Key) ParseAndSet(raw any) error {
	v, err := k.Parse(raw)
	if err != nil {
		return err
	}
	return k.SetValue(v)
}
