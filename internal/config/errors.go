package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotInitialized is returned when reading or writing values before INIT finished.
	ErrNotInitialized = errors.New("configuration service is not initialized")

	// ErrKindMismatch is returned when a value of another kind is assigned to a key.
	ErrKindMismatch = errors.New("configuration value kind mismatch")

	// ErrUnknownKey is returned for keys that are not registered.
	ErrUnknownKey = errors.New("unknown configuration key")

	// ErrRegistrationClosed is returned when registering keys after the lifecycle started.
	ErrRegistrationClosed = errors.New("configuration key registration is closed")
)

// Error types used in KeyError.
const (
	ErrorTypeMissing    = "missing"
	ErrorTypeValidation = "validation"
	ErrorTypeParse      = "parse"
	ErrorTypeExtra      = "extra"
	ErrorTypeSyntax     = "syntax"
	ErrorTypeIO         = "io"
)

// KeyError describes a problem with a single entry of a configuration file.
type KeyError struct {
	Service   string `json:"service"`
	FilePath  string `json:"filePath"`
	Key       string `json:"key"`
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
	Value     any    `json:"value,omitempty"`
	Cause     error  `json:"-"`
}

// Error implements the error interface
func (ke KeyError) Error() string {
	if ke.Key == "" {
		return fmt.Sprintf("[%s] %s", ke.Service, ke.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", ke.Service, ke.Key, ke.Message)
}

func (ke KeyError) Unwrap() error {
	return ke.Cause
}

// DetailedError returns a multi-line description with all context
func (ke KeyError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error in %s", ke.Service))
	if ke.FilePath != "" {
		parts = append(parts, fmt.Sprintf("  File: %s", ke.FilePath))
	}
	if ke.Key != "" {
		parts = append(parts, fmt.Sprintf("  Key: %s", ke.Key))
	}
	parts = append(parts, fmt.Sprintf("  Type: %s", ke.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", ke.Message))
	if ke.Value != nil {
		parts = append(parts, fmt.Sprintf("  Value: %v", ke.Value))
	}

	return strings.Join(parts, "\n")
}

// KeyErrorCollection holds the problems found while loading one file.
type KeyErrorCollection struct {
	Errors []KeyError `json:"errors"`
}

// Error implements the error interface for the collection
func (kec KeyErrorCollection) Error() string {
	if len(kec.Errors) == 0 {
		return "no configuration errors"
	}

	if len(kec.Errors) == 1 {
		return kec.Errors[0].Error()
	}

	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(kec.Errors), kec.Errors[0].Error(), len(kec.Errors)-1)
}

// HasErrors returns true if there are any errors in the collection
func (kec *KeyErrorCollection) HasErrors() bool {
	return len(kec.Errors) > 0
}

// Add adds a new error to the collection
func (kec *KeyErrorCollection) Add(err KeyError) {
	kec.Errors = append(kec.Errors, err)
}

// Types returns the distinct error types in the order first seen.
func (kec *KeyErrorCollection) Types() []string {
	seen := make(map[string]bool)
	var types []string
	for _, err := range kec.Errors {
		if !seen[err.ErrorType] {
			seen[err.ErrorType] = true
			types = append(types, err.ErrorType)
		}
	}
	return types
}
