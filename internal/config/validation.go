package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidateOneOf checks if a value is in a list of allowed values, ignoring case
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if strings.EqualFold(value, allowedValue) {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateIntRange checks that value lies within [minValue, maxValue]
func ValidateIntRange(field string, value, minValue, maxValue int) error {
	if value < minValue {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("value below minimal threshold, minimal allowed value is %d", minValue),
		}
	}
	if value > maxValue {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("value above maximum threshold, maximal allowed value is %d", maxValue),
		}
	}
	return nil
}

// OneOf returns a verifier accepting strings equal (ignoring case) to one of allowed.
func OneOf(allowed ...string) Verifier {
	return func(raw any) bool {
		s, ok := raw.(string)
		return ok && ValidateOneOf("", s, allowed) == nil
	}
}

// IntRange returns a verifier accepting integers, or strings holding an
// integer, within [minValue, maxValue].
func IntRange(minValue, maxValue int) Verifier {
	return func(raw any) bool {
		v, err := Coerce(raw, KindInt)
		if err != nil || v.IsNull() {
			return false
		}
		return ValidateIntRange("", v.AsInt(), minValue, maxValue) == nil
	}
}

// IntRangeParser parses an integer and rejects values outside [minValue, maxValue].
func IntRangeParser(field string, minValue, maxValue int) Parser {
	return func(raw any) (Value, error) {
		v, err := Coerce(raw, KindInt)
		if err != nil {
			return Value{}, ValidationError{Field: field, Value: raw, Message: err.Error()}
		}
		if v.IsNull() {
			return v, nil
		}
		if err := ValidateIntRange(field, v.AsInt(), minValue, maxValue); err != nil {
			return Value{}, err
		}
		return v, nil
	}
}

// CanonicalOneOf parses a string and returns the matching entry of allowed
// with its canonical casing.
func CanonicalOneOf(field string, allowed ...string) Parser {
	return func(raw any) (Value, error) {
		s, ok := raw.(string)
		if !ok {
			return Value{}, ValidationError{Field: field, Value: raw, Message: "must be a string"}
		}
		for _, a := range allowed {
			if strings.EqualFold(s, a) {
				return StringValue(a), nil
			}
		}
		return Value{}, ValidateOneOf(field, s, allowed)
	}
}
