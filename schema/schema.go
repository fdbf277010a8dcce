// Package schema has the models and enums shared by all parts of publisher.
package schema

import (
	"fmt"
	"time"
)

// Outcome is the result of every repository operation and every runner call.
// Kind is NoError if and only if Success is true.
type Outcome struct {
	Success   bool      `json:"success"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	RawOutput string    `json:"raw_output,omitempty"`
}

// Succeeded builds a successful outcome.
func Succeeded(message, raw string) Outcome {
	return Outcome{Success: true, Kind: NoError, Message: message, RawOutput: raw}
}

// Failed builds a failed outcome. A NoError kind is coerced to UnknownError
// so that a failure always carries a real kind.
func Failed(kind ErrorKind, message, raw string) Outcome {
	if kind == NoError || kind == "" {
		kind = UnknownError
	}
	return Outcome{Success: false, Kind: kind, Message: message, RawOutput: raw}
}

// Err returns the outcome as an error, or nil when it succeeded.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	return &OperationError{Kind: o.Kind, Message: o.Message}
}

// OperationError is the error form of a failed Outcome.
type OperationError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Event is a typed lifecycle notification emitted by an operation.
type Event struct {
	Type        EventType     `json:"type"`
	Operation   OperationName `json:"operation,omitempty"`
	Message     string        `json:"message,omitempty"`
	Kind        ErrorKind     `json:"kind,omitempty"`
	Attempt     int           `json:"attempt,omitempty"`
	MaxAttempts int           `json:"max_attempts,omitempty"`
	Current     int           `json:"current,omitempty"`
	Total       int           `json:"total,omitempty"`
	Item        string        `json:"item,omitempty"`
	Connected   bool          `json:"connected,omitempty"`
	Time        time.Time     `json:"time"`
}

// RetryState lives for the duration of one push call.
type RetryState struct {
	Attempt     int
	MaxAttempts int
	LastKind    ErrorKind
}
