package types

import "fmt"

// NotFound reports a named entity or resource that was required but does
// not exist on the platform.
type NotFound struct {
	Kind     string
	Selector string
}

func (e *NotFound) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("no %s available", e.Kind)
	}
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Selector)
}

// MissingRequiredField reports a desired-state declaration that lacks a
// field required for the requested operation.
type MissingRequiredField struct {
	Field  string
	Reason string
}

func (e *MissingRequiredField) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("'%s' is required: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("'%s' is required", e.Field)
}
