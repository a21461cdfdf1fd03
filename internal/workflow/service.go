// Package workflow is the system of record for candidate stages. It is
// transport-agnostic: the REST handlers and the gRPC server both delegate
// to Service.
//
// The service enforces the same transition table as the engine, so a
// client that skips its local checks is still refused.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"jobmate/workflow-service/internal/analytics"
	"jobmate/workflow-service/internal/cache"
	"jobmate/workflow-service/internal/interview"
	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// Paging defaults for candidate listings.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// DefaultEventsChannel receives EVENT_STAGE_CHANGED messages.
const DefaultEventsChannel = "EVENT_STAGE_CHANGED"

const countsKey = "analytics:counts"

// EventPublisher is satisfied by *redis.Client.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Notifier fans cache invalidations out, e.g. *cache.RedisInvalidator.
type Notifier interface {
	Publish(ctx context.Context, ev cache.Event, tags ...string) error
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service holds the workflow business logic.
type Service struct {
	store     Store
	policy    *pipeline.Policy
	catalog   *pipeline.Catalog
	validator *interview.Validator
	cache     *cache.Cache
	notifier  Notifier
	events    EventPublisher
	channel   string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the analytics cache shared with the notifier.
func WithCache(c *cache.Cache) Option { return func(s *Service) { s.cache = c } }

// WithNotifier routes cache invalidations.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithEvents publishes stage change events on channel.
func WithEvents(p EventPublisher, channel string) Option {
	return func(s *Service) {
		s.events = p
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithValidator sets the interview validator.
func WithValidator(v *interview.Validator) Option { return func(s *Service) { s.validator = v } }

// WithClock overrides the history timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService returns a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		policy:    pipeline.DefaultPolicy(),
		catalog:   pipeline.DefaultCatalog(),
		validator: interview.NewValidator(),
		channel:   DefaultEventsChannel,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New(cache.DefaultClasses())
	}
	if s.notifier == nil {
		s.notifier = localNotifier{s.cache}
	}
	return s
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Stages returns the ordered stage catalog.
func (s *Service) Stages() []pipeline.StageInfo { return s.catalog.Stages() }

// Application returns one application.
func (s *Service) Application(ctx context.Context, id string) (model.Application, error) {
	return s.store.Get(ctx, id)
}

// NextStages lists the legal targets for an application.
func (s *Service) NextStages(ctx context.Context, id string) ([]pipeline.Stage, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.policy.ValidNextStages(app.Stage), nil
}

// Analytics returns stage counts across all applications. Counts are cached
// in the analytics class.
func (s *Service) Analytics(ctx context.Context) (analytics.StageAnalytics, error) {
	counts, err := cache.Fetch(ctx, s.cache, cache.Key{Name: countsKey}, cache.ClassAnalytics, s.store.CountByStage)
	if err != nil {
		return analytics.StageAnalytics{}, fmt.Errorf("count by stage: %w", err)
	}
	return analytics.FromCounts(counts), nil
}

// Candidates returns one page of applications with the analytics summary.
func (s *Service) Candidates(ctx context.Context, q model.CandidateQuery) (model.CandidatePage, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return model.CandidatePage{}, err
	}

	apps, total, err := s.store.List(ctx, q)
	if err != nil {
		return model.CandidatePage{}, fmt.Errorf("list candidates: %w", err)
	}
	if apps == nil {
		apps = []model.Application{}
	}
	a, err := s.Analytics(ctx)
	if err != nil {
		return model.CandidatePage{}, err
	}

	pages := 0
	if total > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return model.CandidatePage{
		Data:      apps,
		Analytics: a.Summary(),
		Pagination: model.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: pages,
		},
	}, nil
}

func normalizeQuery(q model.CandidateQuery) (model.CandidateQuery, error) {
	if q.Stage != "" && !q.Stage.Valid() {
		return q, &RequestError{Msg: fmt.Sprintf("unknown stage %q", q.Stage)}
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit < 1:
		q.Limit = DefaultPageLimit
	case q.Limit > MaxPageLimit:
		q.Limit = MaxPageLimit
	}
	return q, nil
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// MoveStage applies a stage change. The returned application is the
// authoritative state.
func (s *Service) MoveStage(ctx context.Context, id string, change model.StageChange) (model.Application, error) {
	to, err := pipeline.ParseStage(string(change.Status))
	if err != nil {
		return model.Application{}, &RequestError{Msg: err.Error()}
	}

	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Application{}, err
	}
	rule, ok := s.policy.Rule(cur.Stage, to)
	if !ok {
		return model.Application{}, &TransitionError{From: cur.Stage, To: to}
	}

	m := Move{
		ApplicationID: id,
		From:          cur.Stage,
		To:            to,
		Entry:         model.HistoryEntry{From: cur.Stage, To: to, At: s.now().UTC(), Note: strings.TrimSpace(change.Note)},
	}
	if rule.RequiresInterview {
		switch {
		case change.InterviewDetails != nil:
			p, err := s.validator.Validate(interview.FromPayload(*change.InterviewDetails))
			if err != nil {
				return model.Application{}, err
			}
			m.Interview = &p
			m.InterviewID = uuid.NewString()
			if cur.Interview != nil && cur.Interview.ID != "" {
				m.InterviewID = cur.Interview.ID
			}
		case cur.Interview == nil:
			return model.Application{}, ErrMissingInterviewDetails
		}
	}

	app, err := s.store.MoveStage(ctx, m)
	if err != nil {
		return model.Application{}, err
	}

	s.invalidate(ctx, cache.EventStageChanged, cur.Stage, app.Stage)
	s.publish(ctx, app.ID, cur.Stage, app.Stage)
	s.logger.Info("stage changed", "applicationId", app.ID, "from", cur.Stage, "to", app.Stage)
	return app, nil
}

// Reschedule rewrites an interview in place and marks the application
// interview_rescheduled. The interview ID is preserved.
func (s *Service) Reschedule(ctx context.Context, interviewID string, p model.InterviewPayload) (model.Application, error) {
	cur, err := s.store.GetByInterview(ctx, interviewID)
	if err != nil {
		return model.Application{}, err
	}
	if !s.policy.InInterviewBranch(cur.Stage) {
		return model.Application{}, ErrNoInterview
	}
	payload, err := s.validator.Validate(interview.FromPayload(p))
	if err != nil {
		return model.Application{}, err
	}

	entry := model.HistoryEntry{
		From: cur.Stage,
		To:   pipeline.StageInterviewRescheduled,
		At:   s.now().UTC(),
		Note: "interview rescheduled",
	}
	app, err := s.store.Reschedule(ctx, interviewID, payload, entry)
	if err != nil {
		return model.Application{}, err
	}

	s.invalidate(ctx, cache.EventInterviewRescheduled, cur.Stage, app.Stage)
	if cur.Stage != app.Stage {
		s.publish(ctx, app.ID, cur.Stage, app.Stage)
	}
	return app, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) invalidate(ctx context.Context, ev cache.Event, stages ...pipeline.Stage) {
	tags := make([]string, 0, len(stages))
	for _, st := range stages {
		tags = append(tags, string(st))
	}
	if err := s.notifier.Publish(ctx, ev, tags...); err != nil {
		s.logger.Warn("cache invalidation fan-out failed", "event", ev, "err", err)
	}
}

// publish emits EVENT_STAGE_CHANGED (non-fatal).
func (s *Service) publish(ctx context.Context, appID string, from, to pipeline.Stage) {
	if s.events == nil {
		return
	}
	event, _ := json.Marshal(map[string]string{
		"type":          "EVENT_STAGE_CHANGED",
		"applicationId": appID,
		"from":          string(from),
		"to":            string(to),
		"at":            s.now().UTC().Format(time.RFC3339),
	})
	if err := s.events.Publish(ctx, s.channel, event).Err(); err != nil {
		s.logger.Warn("publish EVENT_STAGE_CHANGED failed", "err", err)
	}
}

type localNotifier struct{ c *cache.Cache }

func (n localNotifier) Publish(_ context.Context, ev cache.Event, tags ...string) error {
	n.c.Notify(ev, tags...)
	return nil
}
