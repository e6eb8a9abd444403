// Package feedcore implements the relational core of a small social
// application: validated user records, a follower graph, posts, and the
// feed query that combines them.
//
// This file defines the error taxonomy shared by all stores:
//   - ErrNotFound: a lookup by identifier or email matched no record
//   - ValidationError: one or more field-level rule violations
//
// Storage-level unique-constraint violations are classified by the active
// Dialect and translated into a ValidationError at the store boundary, so a
// lost race between two concurrent writers surfaces the same way a failed
// validation does. No error in this package is fatal to the process.
package feedcore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a record lookup matches nothing.
// Callers should test with errors.Is, as stores wrap it with context.
var ErrNotFound = errors.New("feedcore: record not found")

// FieldError describes a single violated rule on a named field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + " " + e.Message
}

// ValidationError carries every rule violated by a create or update attempt.
// It accumulates: a candidate with a blank name and a malformed email yields
// two entries, not one.
//
// Example:
//
//	_, err := users.Create(ctx, "", "bad-email", "pw", "pw")
//	var verr *feedcore.ValidationError
//	if errors.As(err, &verr) {
//	    for _, fe := range verr.Fields {
//	        fmt.Println(fe.Field, fe.Message)
//	    }
//	}
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "feedcore: validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.String()
	}
	return "feedcore: validation failed: " + strings.Join(msgs, "; ")
}

// Add appends a violation for the given field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether any violation was recorded for the given field.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// On returns every message recorded for the given field.
func (e *ValidationError) On(field string) []string {
	var msgs []string
	for _, fe := range e.Fields {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

// orNil collapses an empty ValidationError into nil so callers can return
// the result of validation directly.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// notFound wraps ErrNotFound with the failing lookup for log context.
func notFound(what string, key any) error {
	return fmt.Errorf("%s %v: %w", what, key, ErrNotFound)
}
