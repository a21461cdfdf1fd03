package pipeline_test

import (
	"slices"
	"testing"

	"jobmate/workflow-service/internal/pipeline"
)

// legal is the full adjacency table; every pair not listed here is illegal.
var legal = map[[2]pipeline.Stage]bool{
	{pipeline.StageApplied, pipeline.StageShortlisted}:                  true,
	{pipeline.StageShortlisted, pipeline.StageInterviewScheduled}:       true,
	{pipeline.StageInterviewScheduled, pipeline.StageInterviewPassed}:   true,
	{pipeline.StageInterviewScheduled, pipeline.StageInterviewFailed}:   true,
	{pipeline.StageInterviewRescheduled, pipeline.StageInterviewPassed}: true,
	{pipeline.StageInterviewRescheduled, pipeline.StageInterviewFailed}: true,
}

// ── ParseStage ────────────────────────────────────────────────────────────

func TestParseStage_ValidValues(t *testing.T) {
	for _, s := range pipeline.Stages() {
		got, err := pipeline.ParseStage(string(s))
		if err != nil {
			t.Errorf("ParseStage(%q) returned unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStage(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStage_Invalid(t *testing.T) {
	for _, s := range []string{"", "APPLIED", " applied", "interview", "hired"} {
		if _, err := pipeline.ParseStage(s); err == nil {
			t.Errorf("ParseStage(%q) expected error, got nil", s)
		}
	}
}

// ── IsLegalTransition: full matrix ───────────────────────────────────────

func TestIsLegalTransition_Matrix(t *testing.T) {
	for _, from := range pipeline.Stages() {
		for _, to := range pipeline.Stages() {
			want := legal[[2]pipeline.Stage{from, to}]
			if got := pipeline.IsLegalTransition(from, to); got != want {
				t.Errorf("IsLegalTransition(%s → %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsLegalTransition_Self(t *testing.T) {
	for _, s := range pipeline.Stages() {
		if pipeline.IsLegalTransition(s, s) {
			t.Errorf("IsLegalTransition(%s → %s) should be false (self)", s, s)
		}
	}
}

func TestIsLegalTransition_Backwards(t *testing.T) {
	cases := []struct {
		from pipeline.Stage
		to   pipeline.Stage
	}{
		{pipeline.StageInterviewPassed, pipeline.StageApplied},
		{pipeline.StageInterviewFailed, pipeline.StageShortlisted},
		{pipeline.StageShortlisted, pipeline.StageApplied},
		{pipeline.StageInterviewScheduled, pipeline.StageShortlisted},
	}
	for _, c := range cases {
		if pipeline.IsLegalTransition(c.from, c.to) {
			t.Errorf("IsLegalTransition(%s → %s) should be false (backwards)", c.from, c.to)
		}
	}
}

func TestIsLegalTransition_SkipLevel(t *testing.T) {
	cases := []struct {
		from pipeline.Stage
		to   pipeline.Stage
	}{
		{pipeline.StageApplied, pipeline.StageInterviewScheduled},
		{pipeline.StageApplied, pipeline.StageInterviewPassed},
		{pipeline.StageShortlisted, pipeline.StageInterviewFailed},
	}
	for _, c := range cases {
		if pipeline.IsLegalTransition(c.from, c.to) {
			t.Errorf("IsLegalTransition(%s → %s) should be false (skip-level)", c.from, c.to)
		}
	}
}

// interview_rescheduled is never the target of a transition.
func TestIsLegalTransition_RescheduledNeverATarget(t *testing.T) {
	for _, from := range pipeline.Stages() {
		if pipeline.IsLegalTransition(from, pipeline.StageInterviewRescheduled) {
			t.Errorf("IsLegalTransition(%s → interview_rescheduled) must be false", from)
		}
	}
}

func TestIsLegalTransition_UnknownStage(t *testing.T) {
	if pipeline.IsLegalTransition("offer", pipeline.StageShortlisted) {
		t.Error("unknown source stage must not be legal")
	}
	if pipeline.IsLegalTransition(pipeline.StageApplied, "offer") {
		t.Error("unknown target stage must not be legal")
	}
}

// ── ValidNextStages ───────────────────────────────────────────────────────

func TestValidNextStages_InterviewBranchIdentical(t *testing.T) {
	scheduled := pipeline.ValidNextStages(pipeline.StageInterviewScheduled)
	rescheduled := pipeline.ValidNextStages(pipeline.StageInterviewRescheduled)
	want := []pipeline.Stage{pipeline.StageInterviewPassed, pipeline.StageInterviewFailed}
	if !slices.Equal(scheduled, want) {
		t.Errorf("ValidNextStages(interview_scheduled) = %v, want %v", scheduled, want)
	}
	if !slices.Equal(rescheduled, want) {
		t.Errorf("ValidNextStages(interview_rescheduled) = %v, want %v", rescheduled, want)
	}
}

func TestValidNextStages_Terminal(t *testing.T) {
	for _, s := range []pipeline.Stage{pipeline.StageInterviewPassed, pipeline.StageInterviewFailed} {
		if got := pipeline.ValidNextStages(s); len(got) != 0 {
			t.Errorf("ValidNextStages(%s) = %v, want empty", s, got)
		}
	}
}

func TestValidNextStages_Linear(t *testing.T) {
	cases := map[pipeline.Stage]pipeline.Stage{
		pipeline.StageApplied:     pipeline.StageShortlisted,
		pipeline.StageShortlisted: pipeline.StageInterviewScheduled,
	}
	for from, to := range cases {
		got := pipeline.ValidNextStages(from)
		if !slices.Equal(got, []pipeline.Stage{to}) {
			t.Errorf("ValidNextStages(%s) = %v, want [%s]", from, got, to)
		}
	}
}

// ── Rule metadata ─────────────────────────────────────────────────────────

func TestRule_Flags(t *testing.T) {
	p := pipeline.DefaultPolicy()

	r, ok := p.Rule(pipeline.StageShortlisted, pipeline.StageInterviewScheduled)
	if !ok || !r.RequiresInterview {
		t.Errorf("shortlisted → interview_scheduled must require interview details, got %+v", r)
	}

	r, ok = p.Rule(pipeline.StageInterviewRescheduled, pipeline.StageInterviewFailed)
	if !ok || !r.Destructive {
		t.Errorf("interview_rescheduled → interview_failed must be destructive, got %+v", r)
	}
	if r.Source != string(pipeline.BranchInterview) {
		t.Errorf("branch rule source = %q, want %q", r.Source, pipeline.BranchInterview)
	}

	if _, ok := p.Rule(pipeline.StageInterviewPassed, pipeline.StageApplied); ok {
		t.Error("terminal stage must have no rule")
	}
}

func TestPolicy_Branches(t *testing.T) {
	p := pipeline.DefaultPolicy()
	if p.Version() != 1 {
		t.Errorf("Version() = %d, want 1", p.Version())
	}
	for _, s := range pipeline.Stages() {
		want := s == pipeline.StageInterviewScheduled || s == pipeline.StageInterviewRescheduled
		if got := p.InInterviewBranch(s); got != want {
			t.Errorf("InInterviewBranch(%s) = %v, want %v", s, got, want)
		}
	}
	if !p.IsTerminal(pipeline.StageInterviewPassed) || !p.IsTerminal(pipeline.StageInterviewFailed) {
		t.Error("passed and failed must be terminal")
	}
}

// ── ParsePolicy validation ────────────────────────────────────────────────

func TestParsePolicy_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":   "",
		"version": "version: 0\nstages: []\n",
		"unknown stage": `version: 1
stages:
  - id: offer
`,
		"unknown source": `version: 1
stages:
  - id: applied
  - id: shortlisted
transitions:
  - from: screening
    to: shortlisted
`,
		"from terminal": `version: 1
stages:
  - id: applied
  - id: interview_passed
    terminal: true
transitions:
  - from: interview_passed
    to: applied
`,
		"self": `version: 1
stages:
  - id: applied
transitions:
  - from: applied
    to: applied
`,
		"duplicate": `version: 1
stages:
  - id: applied
  - id: applied
`,
	}
	for name, doc := range cases {
		if _, err := pipeline.ParsePolicy([]byte(doc)); err == nil {
			t.Errorf("%s: ParsePolicy expected error, got nil", name)
		}
	}
}

func TestParsePolicy_BranchRuleExpands(t *testing.T) {
	doc := `version: 2
stages:
  - id: interview_scheduled
    branch: interview
  - id: interview_rescheduled
    branch: interview
  - id: interview_passed
    terminal: true
transitions:
  - from: interview
    to: interview_passed
`
	p, err := pipeline.ParsePolicy([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePolicy: %v", err)
	}
	for _, s := range []pipeline.Stage{pipeline.StageInterviewScheduled, pipeline.StageInterviewRescheduled} {
		if !p.IsLegalTransition(s, pipeline.StageInterviewPassed) {
			t.Errorf("branch rule must apply to %s", s)
		}
	}
}
