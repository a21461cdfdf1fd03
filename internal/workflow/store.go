package workflow

import (
	"context"

	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// Store persists applications and their interviews.
type Store interface {
	Get(ctx context.Context, applicationID string) (model.Application, error)
	GetByInterview(ctx context.Context, interviewID string) (model.Application, error)
	// List returns one page of applications and the total number of matches.
	List(ctx context.Context, q model.CandidateQuery) ([]model.Application, int, error)
	CountByStage(ctx context.Context) (map[pipeline.Stage]int, error)
	// MoveStage applies m only if the stored stage still equals m.From;
	// otherwise it returns ErrStageConflict.
	MoveStage(ctx context.Context, m Move) (model.Application, error)
	// Reschedule rewrites the interview in place and moves the application
	// to interview_rescheduled.
	Reschedule(ctx context.Context, interviewID string, p model.InterviewPayload, entry model.HistoryEntry) (model.Application, error)
}

// Move is one committed stage change. Interview, when set, is created with
// InterviewID or, if the application already has one, updated in place.
type Move struct {
	ApplicationID string
	From          pipeline.Stage
	To            pipeline.Stage
	Entry         model.HistoryEntry
	InterviewID   string
	Interview     *model.InterviewPayload
}
