package analytics_test

import (
	"testing"

	"jobmate/workflow-service/internal/analytics"
	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

func apps(stages ...pipeline.Stage) []model.Application {
	out := make([]model.Application, 0, len(stages))
	for _, s := range stages {
		out = append(out, model.Application{Stage: s})
	}
	return out
}

func repeat(s pipeline.Stage, n int) []pipeline.Stage {
	out := make([]pipeline.Stage, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestAggregate_Empty(t *testing.T) {
	a := analytics.Aggregate(nil)
	if a.Total != 0 || a.SuccessRate != 0 {
		t.Errorf("Aggregate(nil) total=%d rate=%v, want 0 and 0", a.Total, a.SuccessRate)
	}
	for _, s := range pipeline.Stages() {
		if n, ok := a.Counts[s]; !ok || n != 0 {
			t.Errorf("Counts[%s] = %d (present=%v), want 0", s, n, ok)
		}
	}
	for _, r := range a.Conversion {
		if r.Rate != 0 {
			t.Errorf("conversion %s → %s = %v, want 0", r.From, r.To, r.Rate)
		}
	}
}

func TestAggregate_MergesInterviewBucket(t *testing.T) {
	in := append(repeat(pipeline.StageInterviewScheduled, 3), repeat(pipeline.StageInterviewRescheduled, 2)...)
	a := analytics.Aggregate(apps(in...))

	if got := a.DisplayCount(pipeline.StageInterviewScheduled); got != 5 {
		t.Errorf("displayed interview_scheduled = %d, want 5", got)
	}
	if a.Counts[pipeline.StageInterviewScheduled] != 3 || a.Counts[pipeline.StageInterviewRescheduled] != 2 {
		t.Errorf("raw counts must stay distinct, got %v", a.Counts)
	}
	for _, b := range a.Buckets() {
		if b.Stage == pipeline.StageInterviewRescheduled {
			t.Error("Buckets() must not expose interview_rescheduled separately")
		}
		if b.Stage == pipeline.StageInterviewScheduled && b.Count != 5 {
			t.Errorf("bucket interview_scheduled = %d, want 5", b.Count)
		}
	}
}

func TestAggregate_SuccessRate(t *testing.T) {
	in := []pipeline.Stage{
		pipeline.StageApplied, pipeline.StageApplied, pipeline.StageShortlisted,
		pipeline.StageInterviewPassed, pipeline.StageInterviewFailed, pipeline.StageInterviewFailed,
	}
	a := analytics.Aggregate(apps(in...))
	if a.Total != 6 {
		t.Errorf("Total = %d, want 6", a.Total)
	}
	// 1/6 = 16.666… → 16.7
	if a.SuccessRate != 16.7 {
		t.Errorf("SuccessRate = %v, want 16.7", a.SuccessRate)
	}
}

func TestAggregate_Conversion(t *testing.T) {
	// reached: applied 4, shortlisted 3, interview 2, passed 1
	in := []pipeline.Stage{
		pipeline.StageApplied, pipeline.StageShortlisted,
		pipeline.StageInterviewFailed, pipeline.StageInterviewPassed,
	}
	a := analytics.Aggregate(apps(in...))
	want := []float64{75, 66.7, 50}
	if len(a.Conversion) != len(want) {
		t.Fatalf("Conversion has %d steps, want %d", len(a.Conversion), len(want))
	}
	for i, w := range want {
		if a.Conversion[i].Rate != w {
			t.Errorf("step %s → %s = %v, want %v", a.Conversion[i].From, a.Conversion[i].To, a.Conversion[i].Rate, w)
		}
	}
}

func TestAggregate_IgnoresUnknownStage(t *testing.T) {
	a := analytics.Aggregate(apps("offer", pipeline.StageApplied))
	if a.Total != 1 {
		t.Errorf("Total = %d, want 1", a.Total)
	}
}

func TestFromCounts_ClampsAndSummarizes(t *testing.T) {
	a := analytics.FromCounts(map[pipeline.Stage]int{
		pipeline.StageApplied:         -3,
		pipeline.StageInterviewPassed: 2,
		"offer":                       9,
	})
	if a.Total != 2 || a.SuccessRate != 100 {
		t.Errorf("total=%d rate=%v, want 2 and 100", a.Total, a.SuccessRate)
	}
	s := a.Summary()
	if s.Total != 2 || s.Counts[pipeline.StageApplied] != 0 {
		t.Errorf("Summary() = %+v", s)
	}
}
