package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found or is not owned by the
// caller. Ownership misses are deliberately indistinguishable from
// absence.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInvalidPeriod indicates a malformed or incomplete reporting period,
// e.g. a custom period missing one of its bounds.
type ErrInvalidPeriod struct {
	Token  string
	Reason string
}

func (e *ErrInvalidPeriod) Error() string {
	return fmt.Sprintf("invalid period '%s': %s", e.Token, e.Reason)
}

// ErrInvalidAmount indicates a non-finite or out-of-range amount.
type ErrInvalidAmount struct {
	Field string
	Value float64
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount for '%s': %v", e.Field, e.Value)
}

// ErrDivisionInvariant signals that a zero or negative denominator reached
// a percentage computation despite upstream validation. It is a
// programming-error signal, not a user-facing condition.
type ErrDivisionInvariant struct {
	Entity string
	ID     string
}

func (e *ErrDivisionInvariant) Error() string {
	return fmt.Sprintf("division invariant violated for %s %s: non-positive denominator", e.Entity, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates a missing or invalid access token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
