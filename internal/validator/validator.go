// Package validator provides functions for validating data.
package validator

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

// Validator holds a map of validation errors.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the validator has no errors.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// Check adds an error to the validator if a check is not "ok".
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// AddError adds an error to the validator if the key does not already exist.
func (v *Validator) AddError(key, message string) {
	_, exists := v.Errors[key]
	if !exists {
		v.Errors[key] = message
	}
}

// Err returns nil if the validator has no errors, otherwise a
// *ValidationError holding a copy of them.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &ValidationError{Errors: maps.Clone(v.Errors)}
}

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Errors))

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Errors[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// MinLength returns true if a string contains at least n runes.
func MinLength(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

// MaxLength returns true if a string contains at most n runes.
func MaxLength(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

// PermittedValue returns true if value is one of permitted.
func PermittedValue[T comparable](value T, permitted ...T) bool {
	return slices.Contains(permitted, value)
}
