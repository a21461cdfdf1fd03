package workflow

import (
	"errors"
	"fmt"

	"jobmate/workflow-service/internal/pipeline"
)

// ErrNotFound is returned when an application or interview does not exist.
var ErrNotFound = errors.New("application not found")

// ErrStageConflict is returned when the stored stage moved between the
// read and the conditional update.
var ErrStageConflict = errors.New("application stage changed concurrently, reload and retry")

// ErrMissingInterviewDetails mirrors the engine guard for callers that skip it.
var ErrMissingInterviewDetails = errors.New("interviewDetails are required to schedule an interview")

// ErrNoInterview is returned when rescheduling outside the interview branch.
var ErrNoInterview = errors.New("application has no active interview")

// RequestError wraps a user-facing message about a malformed request.
type RequestError struct{ Msg string }

func (e *RequestError) Error() string { return e.Msg }

// TransitionError reports a stage change the transition table forbids.
type TransitionError struct {
	From pipeline.Stage
	To   pipeline.Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s → %s is not allowed", e.From, e.To)
}
