// Package pipeline defines the candidate hiring pipeline.
//
// Stage graph:
//
//	applied ──► shortlisted ──► interview_scheduled ──┬──► interview_passed
//	                            interview_rescheduled ┘──► interview_failed
//
// interview_scheduled and interview_rescheduled form the interview branch and
// share their outgoing rules. interview_rescheduled is only entered through a
// reschedule, never through a transition. interview_passed and
// interview_failed are terminal.
package pipeline

import "fmt"

// Stage values mirror the wire representation used by the workflow API.
type Stage string

const (
	StageApplied              Stage = "applied"
	StageShortlisted          Stage = "shortlisted"
	StageInterviewScheduled   Stage = "interview_scheduled"
	StageInterviewRescheduled Stage = "interview_rescheduled"
	StageInterviewPassed      Stage = "interview_passed"
	StageInterviewFailed      Stage = "interview_failed"
)

// Branch groups stages that are equivalent for transition legality.
type Branch string

// BranchInterview is the interview branch: scheduled and rescheduled.
const BranchInterview Branch = "interview"

// ordered is the fixed pipeline order.
var ordered = []Stage{
	StageApplied,
	StageShortlisted,
	StageInterviewScheduled,
	StageInterviewRescheduled,
	StageInterviewPassed,
	StageInterviewFailed,
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(ordered))
	copy(out, ordered)
	return out
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values. Matching is exact.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Valid reports whether s is one of the pipeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageApplied, StageShortlisted, StageInterviewScheduled,
		StageInterviewRescheduled, StageInterviewPassed, StageInterviewFailed:
		return true
	}
	return false
}

// Index returns the position of s in pipeline order, or -1.
func (s Stage) Index() int {
	for i, st := range ordered {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) String() string { return string(s) }
