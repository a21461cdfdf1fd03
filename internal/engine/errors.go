package engine

import (
	"errors"
	"fmt"

	"jobmate/workflow-service/internal/interview"
	"jobmate/workflow-service/internal/pipeline"
)

// ErrMissingInterviewDetails is returned when a transition into the
// interview branch carries no interview payload.
var ErrMissingInterviewDetails = errors.New("interview details are required for this transition")

// ErrUnexpectedInterviewDetails is returned when an interview payload is
// attached to a transition that does not schedule an interview.
var ErrUnexpectedInterviewDetails = errors.New("interview details are only accepted when scheduling an interview")

// ErrRequestInFlight is returned when a request for the same application
// is still waiting on the backend.
var ErrRequestInFlight = errors.New("a request for this application is already in progress")

// ErrNoInterview is returned when rescheduling an application that has no
// interview to reschedule.
var ErrNoInterview = errors.New("application has no interview to reschedule")

// ErrUnknownApplication is returned when the local board has no snapshot
// for the requested application.
var ErrUnknownApplication = errors.New("application is not loaded")

// InvalidTransitionError reports a move the transition table forbids.
type InvalidTransitionError struct {
	From pipeline.Stage
	To   pipeline.Stage
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s → %s is not allowed", e.From, e.To)
}

// ValidationError is the field-keyed interview validation failure.
type ValidationError = interview.ValidationError

// BackendRejectedError wraps any failure reported by the backend, including
// transport failures. Message is safe to show to users.
type BackendRejectedError struct {
	Message string
	Err     error
}

func (e *BackendRejectedError) Error() string { return "backend rejected request: " + e.Message }

func (e *BackendRejectedError) Unwrap() error { return e.Err }

func rejected(err error) error {
	var br *BackendRejectedError
	if errors.As(err, &br) {
		return br
	}
	return &BackendRejectedError{Message: err.Error(), Err: err}
}
