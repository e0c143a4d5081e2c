package models

import (
	"sort"
	"strings"
)

// ValidationError collects per-field problems found while checking a record.
// Business rule violations are reported the same way as malformed input.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldErrors accumulates validation messages keyed by field name.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = msg
}

// Check adds msg for field when cond is false.
func (f FieldErrors) Check(cond bool, field, msg string) {
	if !cond {
		f.Add(field, msg)
	}
}

// Err returns a *ValidationError when any message was recorded.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
