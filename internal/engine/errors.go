package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRuleDefinition = errors.New("invalid rule definition")
	ErrInvalidContext        = errors.New("invalid calculation context")
	ErrInternalConsistency   = errors.New("internal consistency error")
)

// RuleError reports a rule that cannot be evaluated as defined.
type RuleError struct {
	RuleID string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: rule %q: %s", ErrInvalidRuleDefinition, e.RuleID, e.Reason)
}

func (e *RuleError) Unwrap() error { return ErrInvalidRuleDefinition }

type FieldError struct {
	Field   string
	Message string
}

// ContextError collects every field-level problem found in a calculation context.
type ContextError struct {
	Fields []FieldError
}

func (e *ContextError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidContext, strings.Join(parts, "; "))
}

func (e *ContextError) Unwrap() error { return ErrInvalidContext }

func (e *ContextError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it holds at least one field error.
func (e *ContextError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ConsistencyError is raised when a composed result does not add up.
type ConsistencyError struct {
	Check    string
	Expected string
	Actual   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", ErrInternalConsistency, e.Check, e.Expected, e.Actual)
}

func (e *ConsistencyError) Unwrap() error { return ErrInternalConsistency }
