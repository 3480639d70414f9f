package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for intent state-machine failures. The API layer
// maps these onto HTTP status codes; the solver treats all of them as
// per-intent failures that never abort a tick.
var (
	// ErrNotFound means no intent exists with the requested id
	ErrNotFound = errors.New("intent not found")
	// ErrNotAuthorized means the cancel requester is not the creator
	ErrNotAuthorized = errors.New("only creator can cancel")
	// ErrInvalidState means a transition was attempted from a non-open effective state
	ErrInvalidState = errors.New("intent is not open")
	// ErrQuoteRejected means the quoted output is below the intent's floor
	ErrQuoteRejected = errors.New("quote below min-amount-out")
)

// ValidationError reports malformed input. It is always raised before
// any ledger mutation is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AdapterError wraps a failure from the underlying ledger of record:
// a transport error, a rejected transaction, or a response whose shape
// did not decode into the expected intent form.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("ledger adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
