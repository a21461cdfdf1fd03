package workflow_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
	"jobmate/workflow-service/internal/workflow"
)

// memStore is an in-memory workflow.Store.
type memStore struct {
	mu     sync.Mutex
	apps   map[string]model.Application
	counts int
}

func newMemStore(apps ...model.Application) *memStore {
	s := &memStore{apps: make(map[string]model.Application)}
	for _, a := range apps {
		s.apps[a.ID] = a.Clone()
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return model.Application{}, workflow.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *memStore) GetByInterview(_ context.Context, interviewID string) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.Interview != nil && a.Interview.ID == interviewID {
			return a.Clone(), nil
		}
	}
	return model.Application{}, workflow.ErrNotFound
}

func (s *memStore) List(_ context.Context, q model.CandidateQuery) ([]model.Application, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Application
	for _, a := range s.apps {
		if q.Stage != "" && a.Stage != q.Stage {
			continue
		}
		if q.Search != "" && !strings.Contains(a.CandidateID+" "+a.JobID, q.Search) {
			continue
		}
		all = append(all, a.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	start := (q.Page - 1) * q.Limit
	if start > len(all) {
		start = len(all)
	}
	end := min(start+q.Limit, len(all))
	return all[start:end], len(all), nil
}

func (s *memStore) CountByStage(context.Context) (map[pipeline.Stage]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts++
	out := make(map[pipeline.Stage]int)
	for _, a := range s.apps {
		out[a.Stage]++
	}
	return out, nil
}

func (s *memStore) MoveStage(_ context.Context, m workflow.Move) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[m.ApplicationID]
	if !ok {
		return model.Application{}, workflow.ErrNotFound
	}
	if a.Stage != m.From {
		return model.Application{}, workflow.ErrStageConflict
	}
	a.Stage = m.To
	a.History = append(a.History, m.Entry)
	if m.Interview != nil {
		p := m.Interview
		a.Interview = &model.Interview{
			ID: m.InterviewID, Date: p.Date, Time: p.Time, Location: p.Location,
			Interviewer: p.Interviewer, Duration: p.Duration, Requirements: p.Requirements, Notes: p.Notes,
		}
	}
	s.apps[a.ID] = a
	return a.Clone(), nil
}

func (s *memStore) Reschedule(_ context.Context, interviewID string, p model.InterviewPayload, e model.HistoryEntry) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.apps {
		if a.Interview == nil || a.Interview.ID != interviewID {
			continue
		}
		a.Interview = &model.Interview{
			ID: interviewID, Date: p.Date, Time: p.Time, Location: p.Location,
			Interviewer: p.Interviewer, Duration: p.Duration, Requirements: p.Requirements, Notes: p.Notes,
		}
		a.Stage = pipeline.StageInterviewRescheduled
		a.History = append(a.History, e)
		s.apps[id] = a
		return a.Clone(), nil
	}
	return model.Application{}, workflow.ErrNotFound
}

func (s *memStore) countCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// eventSink captures published events.
type eventSink struct {
	mu       sync.Mutex
	channels []string
	payloads []string
}

func (e *eventSink) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channels = append(e.channels, channel)
	e.payloads = append(e.payloads, string(message.([]byte)))
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}
