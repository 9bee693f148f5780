package models

import (
	"fmt"
	"strings"
)

// FieldError describes a single failed rule for a named field
type FieldError struct {
	Field   string `json:"field"`   // Field name as exposed on the wire (e.g. "dayOfWeek", "steps[2].scriptId")
	Rule    string `json:"rule"`    // Rule that failed (e.g. "required", "max", "forward_reference")
	Message string `json:"message"` // Human-readable message
}

// ValidationResult is the outcome of a validation pass.
// An empty result means the input may proceed; validation never returns an error value.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// OK reports whether no rule failed
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Add returns a copy of the result with an additional field error
func (r ValidationResult) Add(field, rule, message string) ValidationResult {
	errs := make([]FieldError, len(r.Errors), len(r.Errors)+1)
	copy(errs, r.Errors)
	return ValidationResult{Errors: append(errs, FieldError{Field: field, Rule: rule, Message: message})}
}

// Merge returns a result containing the errors of both results, receiver first
func (r ValidationResult) Merge(other ValidationResult) ValidationResult {
	if len(other.Errors) == 0 {
		return r
	}
	errs := make([]FieldError, 0, len(r.Errors)+len(other.Errors))
	errs = append(errs, r.Errors...)
	errs = append(errs, other.Errors...)
	return ValidationResult{Errors: errs}
}

// Has reports whether the named field has at least one error
func (r ValidationResult) Has(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Fields returns the failing field names in first-failure order, de-duplicated
func (r ValidationResult) Fields() []string {
	seen := make(map[string]bool, len(r.Errors))
	fields := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		if seen[e.Field] {
			continue
		}
		seen[e.Field] = true
		fields = append(fields, e.Field)
	}
	return fields
}

// ByField groups error messages by field name
func (r ValidationResult) ByField() map[string][]string {
	grouped := make(map[string][]string, len(r.Errors))
	for _, e := range r.Errors {
		grouped[e.Field] = append(grouped[e.Field], e.Message)
	}
	return grouped
}

// String renders the result as a single line, suitable for logs
func (r ValidationResult) String() string {
	if r.OK() {
		return "ok"
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}
