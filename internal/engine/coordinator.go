// Package engine is the candidate workflow stage engine: it checks
// transitions against the pipeline table, gates them behind confirmation,
// submits them to the workflow backend and reconciles the local board from
// the backend's answer.
//
// Local state only ever advances from a server response. A rejected or
// failed request leaves the board untouched, and there is no automatic
// retry.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"jobmate/workflow-service/internal/analytics"
	"jobmate/workflow-service/internal/cache"
	"jobmate/workflow-service/internal/interview"
	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// Backend is the workflow API as consumed by the engine.
type Backend interface {
	ListStages(ctx context.Context) ([]pipeline.StageInfo, error)
	ListCandidates(ctx context.Context, q model.CandidateQuery) (model.CandidatePage, error)
	MoveStage(ctx context.Context, applicationID string, change model.StageChange) (model.Application, error)
	RescheduleInterview(ctx context.Context, interviewID string, p model.InterviewPayload) (model.Application, error)
}

// Notifier invalidates cached reads after a committed change.
type Notifier interface {
	Publish(ctx context.Context, ev cache.Event, tags ...string) error
}

// Recorder observes transition outcomes.
type Recorder interface {
	ObserveTransition(from, to pipeline.Stage, outcome string)
}

// Transition outcomes reported to the Recorder.
const (
	OutcomeCommitted      = "committed"
	OutcomeCancelled      = "cancelled"
	OutcomeInvalid        = "invalid"
	OutcomeMissingDetails = "missing_details"
	OutcomeInvalidDetails = "invalid_details"
	OutcomeInFlight       = "in_flight"
	OutcomeConfirmFailed  = "confirm_failed"
	OutcomeRejected       = "rejected"
)

// TransitionRequest asks to move one application between stages.
// Interview is required when entering the interview branch without an
// existing interview, and refused with ErrUnexpectedInterviewDetails by
// rules that do not schedule one.
type TransitionRequest struct {
	ApplicationID string
	From          pipeline.Stage
	To            pipeline.Stage
	Note          string
	Interview     *interview.Draft
}

// Result is the outcome of a transition. Cancelled is set, with a zero
// Application, when the user declined the confirmation.
type Result struct {
	Application model.Application
	Cancelled   bool
}

// CandidateView is a candidate page plus its analytics read model.
type CandidateView struct {
	Page      model.CandidatePage
	Analytics analytics.StageAnalytics
}

// Coordinator orchestrates stage transitions and interview reschedules.
type Coordinator struct {
	backend   Backend
	policy    *pipeline.Policy
	validator *interview.Validator
	confirmer Confirmer
	cache     *cache.Cache
	notifier  Notifier
	board     *Board
	inflight  *inflight
	recorder  Recorder
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPolicy overrides the embedded transition table.
func WithPolicy(p *pipeline.Policy) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithValidator sets the interview validator.
func WithValidator(v *interview.Validator) Option {
	return func(c *Coordinator) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithConfirmer sets the confirmation gate.
func WithConfirmer(cf Confirmer) Option {
	return func(c *Coordinator) {
		if cf != nil {
			c.confirmer = cf
		}
	}
}

// WithCache shares a ResultCache with the coordinator.
func WithCache(rc *cache.Cache) Option {
	return func(c *Coordinator) {
		if rc != nil {
			c.cache = rc
		}
	}
}

// WithNotifier routes invalidations, e.g. through Redis.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithBoard shares a local Board.
func WithBoard(b *Board) Option {
	return func(c *Coordinator) {
		if b != nil {
			c.board = b
		}
	}
}

// WithRecorder reports transition outcomes.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator returns a Coordinator over backend. Without WithConfirmer
// every transition is cancelled, so interactive callers must supply one.
func NewCoordinator(backend Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:   backend,
		policy:    pipeline.DefaultPolicy(),
		validator: interview.NewValidator(),
		confirmer: ConfirmFunc(func(context.Context, Prompt) (bool, error) { return false, nil }),
		board:     NewBoard(),
		inflight:  newInflight(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.New(cache.DefaultClasses())
	}
	if c.notifier == nil {
		c.notifier = localNotifier{c.cache}
	}
	return c
}

// Board returns the local application board.
func (c *Coordinator) Board() *Board { return c.board }

// Policy returns the transition policy in use.
func (c *Coordinator) Policy() *pipeline.Policy { return c.policy }

// ─── Transitions ──────────────────────────────────────────────────────────────

// RequestTransition validates, confirms and submits a stage change.
//
// Every local check runs before any I/O: an illegal pair yields
// *InvalidTransitionError, a missing or invalid interview payload yields
// ErrMissingInterviewDetails or *ValidationError, and a payload on a rule
// that schedules no interview yields ErrUnexpectedInterviewDetails. The
// prompt is labelled from the cached stage catalog. A declined confirmation
// returns Result{Cancelled: true} and no error. Backend failures return
// *BackendRejectedError and leave the board as it was.
func (c *Coordinator) RequestTransition(ctx context.Context, req TransitionRequest) (Result, error) {
	rule, ok := c.policy.Rule(req.From, req.To)
	if !ok {
		c.observe(req.From, req.To, OutcomeInvalid)
		return Result{}, &InvalidTransitionError{From: req.From, To: req.To}
	}

	prev, known := c.board.Get(req.ApplicationID)
	var details *model.InterviewPayload
	if !rule.RequiresInterview && req.Interview != nil {
		c.observe(req.From, req.To, OutcomeInvalidDetails)
		return Result{}, ErrUnexpectedInterviewDetails
	}
	if rule.RequiresInterview {
		switch {
		case req.Interview != nil:
			p, err := c.validator.Validate(*req.Interview)
			if err != nil {
				c.observe(req.From, req.To, OutcomeInvalidDetails)
				return Result{}, err
			}
			details = &p
		case !known || prev.Interview == nil:
			c.observe(req.From, req.To, OutcomeMissingDetails)
			return Result{}, ErrMissingInterviewDetails
		}
	}

	if !c.inflight.acquire(req.ApplicationID) {
		c.observe(req.From, req.To, OutcomeInFlight)
		return Result{}, ErrRequestInFlight
	}
	defer c.inflight.release(req.ApplicationID)

	labels := c.Catalog(ctx)
	ok, err := c.confirmer.Confirm(ctx, Prompt{
		ApplicationID: req.ApplicationID,
		From:          req.From,
		To:            req.To,
		FromLabel:     labels.Label(req.From),
		ToLabel:       labels.Label(req.To),
		Destructive:   rule.Destructive,
	})
	if err != nil {
		c.observe(req.From, req.To, OutcomeConfirmFailed)
		return Result{}, fmt.Errorf("confirm transition: %w", err)
	}
	if !ok {
		c.observe(req.From, req.To, OutcomeCancelled)
		return Result{Cancelled: true}, nil
	}

	resp, err := c.backend.MoveStage(ctx, req.ApplicationID, model.StageChange{
		Status:           req.To,
		Note:             req.Note,
		InterviewDetails: details,
	})
	if err != nil {
		c.observe(req.From, req.To, OutcomeRejected)
		return Result{}, rejected(err)
	}

	app := reconcile(req.ApplicationID, prev, known, resp)
	c.board.Put(app)
	if app.Stage != req.To {
		c.logger.Info("backend settled on a different stage",
			"applicationId", app.ID, "requested", req.To, "stage", app.Stage)
	}
	c.invalidate(ctx, cache.EventStageChanged, req.From, app.Stage)
	c.observe(req.From, req.To, OutcomeCommitted)
	return Result{Application: app}, nil
}

// ─── Reschedule ───────────────────────────────────────────────────────────────

// PrepareReschedule returns a draft pre-filled from the application's
// current interview.
func (c *Coordinator) PrepareReschedule(applicationID string) (interview.Draft, error) {
	_, iv, err := c.rescheduleTarget(applicationID)
	if err != nil {
		return interview.Draft{}, err
	}
	return interview.FromInterview(*iv), nil
}

// Reschedule changes the current interview in place. It never requests a
// stage change and needs no confirmation; the stage reported by the backend
// is still adopted.
func (c *Coordinator) Reschedule(ctx context.Context, applicationID string, d interview.Draft) (model.Application, error) {
	prev, iv, err := c.rescheduleTarget(applicationID)
	if err != nil {
		return model.Application{}, err
	}
	payload, err := c.validator.Validate(d)
	if err != nil {
		return model.Application{}, err
	}

	if !c.inflight.acquire(applicationID) {
		return model.Application{}, ErrRequestInFlight
	}
	defer c.inflight.release(applicationID)

	resp, err := c.backend.RescheduleInterview(ctx, iv.ID, payload)
	if err != nil {
		return model.Application{}, rejected(err)
	}

	app := reconcile(applicationID, prev, true, resp)
	if app.Interview != nil && app.Interview.ID == "" {
		app.Interview.ID = iv.ID
	}
	c.board.Put(app)
	c.invalidate(ctx, cache.EventInterviewRescheduled, prev.Stage, app.Stage)
	return app, nil
}

func (c *Coordinator) rescheduleTarget(applicationID string) (model.Application, *model.Interview, error) {
	app, ok := c.board.Get(applicationID)
	if !ok {
		return model.Application{}, nil, ErrUnknownApplication
	}
	if !c.policy.InInterviewBranch(app.Stage) {
		return model.Application{}, nil, &InvalidTransitionError{From: app.Stage, To: pipeline.StageInterviewRescheduled}
	}
	if app.Interview == nil || app.Interview.ID == "" {
		return model.Application{}, nil, ErrNoInterview
	}
	return app, app.Interview, nil
}

// ─── Reads ────────────────────────────────────────────────────────────────────

const catalogKey = "catalog:stages"

// Catalog returns the stage catalog, fetched at most once per catalog TTL.
// When the backend cannot be reached the embedded catalog is returned.
func (c *Coordinator) Catalog(ctx context.Context) *pipeline.Catalog {
	cat, err := cache.Fetch(ctx, c.cache, cache.Key{Name: catalogKey}, cache.ClassCatalog,
		func(ctx context.Context) (*pipeline.Catalog, error) {
			stages, err := c.backend.ListStages(ctx)
			if err != nil {
				return nil, err
			}
			return pipeline.NewCatalog(stages), nil
		})
	if err != nil {
		c.logger.Warn("stage catalog unavailable, using built-in labels", "err", err)
		return pipeline.DefaultCatalog()
	}
	return cat
}

// Candidates returns a candidate page with its analytics. Pages are cached
// in the analytics class and dropped by any stage change; every freshly
// fetched page refreshes the board.
func (c *Coordinator) Candidates(ctx context.Context, q model.CandidateQuery) (CandidateView, error) {
	// Untagged: the embedded summary counts every stage, whatever the filter.
	key := cache.Key{Name: candidatesKey(q)}
	page, err := cache.Fetch(ctx, c.cache, key, cache.ClassAnalytics,
		func(ctx context.Context) (model.CandidatePage, error) {
			p, err := c.backend.ListCandidates(ctx, q)
			if err != nil {
				return model.CandidatePage{}, err
			}
			c.board.Load(p.Data)
			return p, nil
		})
	if err != nil {
		return CandidateView{}, rejected(err)
	}
	return CandidateView{Page: page, Analytics: analytics.FromCounts(page.Analytics.Counts)}, nil
}

// LocalAnalytics aggregates the applications currently on the board.
func (c *Coordinator) LocalAnalytics() analytics.StageAnalytics {
	return analytics.Aggregate(c.board.List())
}

// ValidNextStages lists legal targets for a loaded application.
func (c *Coordinator) ValidNextStages(applicationID string) ([]pipeline.Stage, error) {
	app, ok := c.board.Get(applicationID)
	if !ok {
		return nil, ErrUnknownApplication
	}
	return c.policy.ValidNextStages(app.Stage), nil
}

// InFlight reports whether a request for applicationID is pending.
func (c *Coordinator) InFlight(applicationID string) bool { return c.inflight.busy(applicationID) }

// ─── Helpers ──────────────────────────────────────────────────────────────────

// reconcile builds the new snapshot from the server response. The response
// stage always wins; identity fields and the interview fall back to the
// previous snapshot only when the response leaves them empty.
func reconcile(id string, prev model.Application, known bool, resp model.Application) model.Application {
	app := resp.Clone()
	if app.ID == "" {
		app.ID = id
	}
	if !known {
		return app
	}
	if app.CandidateID == "" {
		app.CandidateID = prev.CandidateID
	}
	if app.JobID == "" {
		app.JobID = prev.JobID
	}
	if app.Interview == nil && prev.Interview != nil {
		app.Interview = prev.Interview
	}
	if app.History == nil {
		app.History = prev.History
	}
	return app
}

func (c *Coordinator) invalidate(ctx context.Context, ev cache.Event, stages ...pipeline.Stage) {
	tags := make([]string, 0, len(stages))
	for _, s := range stages {
		tags = append(tags, string(s))
	}
	if err := c.notifier.Publish(ctx, ev, tags...); err != nil {
		c.logger.Warn("cache invalidation fan-out failed", "event", ev, "err", err)
	}
}

func (c *Coordinator) observe(from, to pipeline.Stage, outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveTransition(from, to, outcome)
	}
}

func candidatesKey(q model.CandidateQuery) string {
	v := url.Values{}
	v.Set("stage", string(q.Stage))
	v.Set("search", q.Search)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	return "candidates?" + v.Encode()
}

type localNotifier struct{ c *cache.Cache }

func (n localNotifier) Publish(_ context.Context, ev cache.Event, tags ...string) error {
	n.c.Notify(ev, tags...)
	return nil
}
