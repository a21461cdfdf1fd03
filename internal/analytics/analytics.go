// Package analytics derives per-stage candidate counts and rates.
//
// StageAnalytics is a read model: it is always recomputed from a set of
// applications or from a server summary and never stored on its own.
package analytics

import (
	"math"

	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// Bucket is one displayed stage count.
type Bucket struct {
	Stage pipeline.Stage
	Count int
}

// StepRate is the share of candidates that reached To among those that
// reached From, as a percentage with one decimal.
type StepRate struct {
	From pipeline.Stage
	To   pipeline.Stage
	Rate float64
}

// StageAnalytics holds raw per-stage counts plus derived figures.
type StageAnalytics struct {
	Counts      map[pipeline.Stage]int
	Total       int
	SuccessRate float64
	Conversion  []StepRate
}

// funnel is the conversion path; the interview step is keyed by its first
// stage and counts the whole branch.
var funnel = []pipeline.Stage{
	pipeline.StageApplied,
	pipeline.StageShortlisted,
	pipeline.StageInterviewScheduled,
	pipeline.StageInterviewPassed,
}

// depth is how far along the funnel a stage is.
var depth = map[pipeline.Stage]int{
	pipeline.StageApplied:              0,
	pipeline.StageShortlisted:          1,
	pipeline.StageInterviewScheduled:   2,
	pipeline.StageInterviewRescheduled: 2,
	pipeline.StageInterviewFailed:      2,
	pipeline.StageInterviewPassed:      3,
}

// Aggregate counts applications per stage. Applications with an unknown
// stage are ignored.
func Aggregate(apps []model.Application) StageAnalytics {
	counts := make(map[pipeline.Stage]int, len(depth))
	for _, a := range apps {
		if a.Stage.Valid() {
			counts[a.Stage]++
		}
	}
	return FromCounts(counts)
}

// FromCounts builds StageAnalytics from raw counts, e.g. the analytics block
// of a candidate page. Unknown stages are dropped and negatives clamp to 0.
func FromCounts(raw map[pipeline.Stage]int) StageAnalytics {
	a := StageAnalytics{Counts: make(map[pipeline.Stage]int, len(depth))}
	for _, s := range pipeline.Stages() {
		n := raw[s]
		if n < 0 {
			n = 0
		}
		a.Counts[s] = n
		a.Total += n
	}
	a.SuccessRate = percent(a.Counts[pipeline.StageInterviewPassed], a.Total)

	reached := make([]int, len(funnel))
	for s, n := range a.Counts {
		for i := 0; i <= depth[s]; i++ {
			reached[i] += n
		}
	}
	for i := 1; i < len(funnel); i++ {
		a.Conversion = append(a.Conversion, StepRate{
			From: funnel[i-1],
			To:   funnel[i],
			Rate: percent(reached[i], reached[i-1]),
		})
	}
	return a
}

// DisplayCount returns the displayed count of s. Both interview branch
// stages report the merged interview_scheduled bucket.
func (a StageAnalytics) DisplayCount(s pipeline.Stage) int {
	switch s {
	case pipeline.StageInterviewScheduled, pipeline.StageInterviewRescheduled:
		return a.Counts[pipeline.StageInterviewScheduled] + a.Counts[pipeline.StageInterviewRescheduled]
	}
	return a.Counts[s]
}

// Buckets returns the displayed buckets in pipeline order, with
// interview_rescheduled folded into interview_scheduled.
func (a StageAnalytics) Buckets() []Bucket {
	out := make([]Bucket, 0, len(a.Counts))
	for _, s := range pipeline.Stages() {
		if s == pipeline.StageInterviewRescheduled {
			continue
		}
		out = append(out, Bucket{Stage: s, Count: a.DisplayCount(s)})
	}
	return out
}

// Summary converts a to its wire form. Counts stay unmerged.
func (a StageAnalytics) Summary() model.Summary {
	counts := make(map[pipeline.Stage]int, len(a.Counts))
	for s, n := range a.Counts {
		counts[s] = n
	}
	return model.Summary{Counts: counts, Total: a.Total, SuccessRate: a.SuccessRate}
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(of)*1000) / 10
}
