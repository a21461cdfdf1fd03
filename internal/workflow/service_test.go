package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jobmate/workflow-service/internal/interview"
	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
	"jobmate/workflow-service/internal/workflow"
)

var fixedNow = time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(store workflow.Store, opts ...workflow.Option) *workflow.Service {
	base := []workflow.Option{
		workflow.WithClock(func() time.Time { return fixedNow }),
		workflow.WithValidator(interview.NewValidator(
			interview.WithClock(func() time.Time { return fixedNow }),
			interview.WithLocation(time.UTC),
		)),
	}
	return workflow.NewService(store, append(base, opts...)...)
}

func payload() *model.InterviewPayload {
	return &model.InterviewPayload{
		Date:        "2030-03-10",
		Time:        "09:30",
		Location:    "Office",
		Interviewer: "Jane Doe",
		Duration:    60,
	}
}

// ── MoveStage ─────────────────────────────────────────────────────────────────

func TestMoveStage_LegalTransitionAppendsHistory(t *testing.T) {
	store := newMemStore(model.Application{ID: "a1", Stage: pipeline.StageApplied})
	sink := &eventSink{}
	svc := newService(store, workflow.WithEvents(sink, ""))

	app, err := svc.MoveStage(context.Background(), "a1", model.StageChange{Status: pipeline.StageShortlisted, Note: " strong CV "})
	if err != nil {
		t.Fatalf("MoveStage: %v", err)
	}
	if app.Stage != pipeline.StageShortlisted {
		t.Errorf("stage = %s", app.Stage)
	}
	if len(app.History) != 1 {
		t.Fatalf("history = %+v", app.History)
	}
	h := app.History[0]
	if h.From != pipeline.StageApplied || h.To != pipeline.StageShortlisted || h.Note != "strong CV" || !h.At.Equal(fixedNow) {
		t.Errorf("history entry = %+v", h)
	}
	if len(sink.channels) != 1 || sink.channels[0] != workflow.DefaultEventsChannel {
		t.Fatalf("events = %v", sink.channels)
	}
	if !strings.Contains(sink.payloads[0], `"to":"shortlisted"`) {
		t.Errorf("event payload = %s", sink.payloads[0])
	}
}

func TestMoveStage_IllegalTransitionRefused(t *testing.T) {
	cases := []struct {
		from, to pipeline.Stage
	}{
		{pipeline.StageApplied, pipeline.StageInterviewScheduled},
		{pipeline.StageShortlisted, pipeline.StageApplied},
		{pipeline.StageInterviewPassed, pipeline.StageInterviewFailed},
		{pipeline.StageInterviewScheduled, pipeline.StageInterviewRescheduled},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			store := newMemStore(model.Application{ID: "a1", Stage: tc.from})
			_, err := newService(store).MoveStage(context.Background(), "a1", model.StageChange{Status: tc.to})
			var te *workflow.TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransitionError, got %v", err)
			}
			if got, _ := store.Get(context.Background(), "a1"); got.Stage != tc.from {
				t.Errorf("stage changed to %s", got.Stage)
			}
		})
	}
}

func TestMoveStage_UnknownStage(t *testing.T) {
	store := newMemStore(model.Application{ID: "a1", Stage: pipeline.StageApplied})
	_, err := newService(store).MoveStage(context.Background(), "a1", model.StageChange{Status: "hired"})
	var re *workflow.RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequestError, got %v", err)
	}
}

func TestMoveStage_NotFound(t *testing.T) {
	_, err := newService(newMemStore()).MoveStage(context.Background(), "nope", model.StageChange{Status: pipeline.StageShortlisted})
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMoveStage_InterviewRequired(t *testing.T) {
	store := newMemStore(model.Application{ID: "a1", Stage: pipeline.StageShortlisted})
	svc := newService(store)

	_, err := svc.MoveStage(context.Background(), "a1", model.StageChange{Status: pipeline.StageInterviewScheduled})
	if !errors.Is(err, workflow.ErrMissingInterviewDetails) {
		t.Fatalf("expected ErrMissingInterviewDetails, got %v", err)
	}

	bad := payload()
	bad.Duration = 10
	_, err = svc.MoveStage(context.Background(), "a1", model.StageChange{Status: pipeline.StageInterviewScheduled, InterviewDetails: bad})
	var ve *interview.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	app, err := svc.MoveStage(context.Background(), "a1", model.StageChange{Status: pipeline.StageInterviewScheduled, InterviewDetails: payload()})
	if err != nil {
		t.Fatalf("MoveStage: %v", err)
	}
	if app.Interview == nil || app.Interview.ID == "" {
		t.Fatalf("interview not created: %+v", app.Interview)
	}
	if got := len(app.Interview.Requirements); got != len(interview.DefaultRequirements()) {
		t.Errorf("requirements = %v, want defaults", app.Interview.Requirements)
	}
}

func TestMoveStage_InvalidatesCounts(t *testing.T) {
	store := newMemStore(
		model.Application{ID: "a1", Stage: pipeline.StageApplied},
		model.Application{ID: "a2", Stage: pipeline.StageApplied},
	)
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.Analytics(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Analytics(ctx); err != nil {
		t.Fatal(err)
	}
	if n := store.countCalls(); n != 1 {
		t.Fatalf("counts computed %d times within TTL, want 1", n)
	}

	if _, err := svc.MoveStage(ctx, "a1", model.StageChange{Status: pipeline.StageShortlisted}); err != nil {
		t.Fatal(err)
	}
	a, err := svc.Analytics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n := store.countCalls(); n != 2 {
		t.Errorf("counts computed %d times after a move, want 2", n)
	}
	if a.Counts[pipeline.StageShortlisted] != 1 || a.Counts[pipeline.StageApplied] != 1 {
		t.Errorf("counts = %v", a.Counts)
	}
}

// ── Reschedule ────────────────────────────────────────────────────────────────

func TestReschedule_KeepsInterviewID(t *testing.T) {
	store := newMemStore(model.Application{
		ID:    "a1",
		Stage: pipeline.StageInterviewScheduled,
		Interview: &model.Interview{
			ID: "iv-1", Date: "2030-03-05", Time: "10:00", Location: "HQ", Interviewer: "Sam", Duration: 30,
		},
	})
	sink := &eventSink{}
	svc := newService(store, workflow.WithEvents(sink, "events"))

	p := payload()
	p.Requirements = []string{}
	app, err := svc.Reschedule(context.Background(), "iv-1", *p)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if app.Interview.ID != "iv-1" || app.Interview.Date != "2030-03-10" {
		t.Errorf("interview = %+v", app.Interview)
	}
	if len(app.Interview.Requirements) != 0 {
		t.Errorf("empty requirement subset replaced by %v", app.Interview.Requirements)
	}
	if app.Stage != pipeline.StageInterviewRescheduled {
		t.Errorf("stage = %s", app.Stage)
	}
	if len(sink.channels) != 1 || sink.channels[0] != "events" {
		t.Errorf("events = %v", sink.channels)
	}
}

func TestReschedule_OutsideInterviewBranch(t *testing.T) {
	store := newMemStore(model.Application{
		ID:        "a1",
		Stage:     pipeline.StageInterviewPassed,
		Interview: &model.Interview{ID: "iv-1"},
	})
	_, err := newService(store).Reschedule(context.Background(), "iv-1", *payload())
	if !errors.Is(err, workflow.ErrNoInterview) {
		t.Fatalf("expected ErrNoInterview, got %v", err)
	}
}

// ── Candidates ────────────────────────────────────────────────────────────────

func TestCandidates_Pagination(t *testing.T) {
	var apps []model.Application
	for _, id := range []string{"a1", "a2", "a3", "a4", "a5"} {
		apps = append(apps, model.Application{ID: id, Stage: pipeline.StageApplied})
	}
	apps = append(apps, model.Application{ID: "a6", Stage: pipeline.StageInterviewPassed})
	svc := newService(newMemStore(apps...))

	page, err := svc.Candidates(context.Background(), model.CandidateQuery{Page: 2, Limit: 4})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(page.Data) != 2 {
		t.Errorf("len(data) = %d, want 2", len(page.Data))
	}
	want := model.Pagination{Page: 2, Limit: 4, Total: 6, TotalPages: 2}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}
	if page.Analytics.Total != 6 || page.Analytics.SuccessRate != 16.7 {
		t.Errorf("analytics = %+v", page.Analytics)
	}
}

func TestCandidates_Defaults(t *testing.T) {
	page, err := newService(newMemStore()).Candidates(context.Background(), model.CandidateQuery{Limit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Page != 1 || page.Pagination.Limit != workflow.MaxPageLimit || page.Pagination.TotalPages != 0 {
		t.Errorf("pagination = %+v", page.Pagination)
	}
	if page.Data == nil {
		t.Error("data must encode as [] not null")
	}
}

func TestCandidates_UnknownStageFilter(t *testing.T) {
	_, err := newService(newMemStore()).Candidates(context.Background(), model.CandidateQuery{Stage: "hired"})
	var re *workflow.RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequestError, got %v", err)
	}
}
