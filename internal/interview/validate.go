package interview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"jobmate/workflow-service/internal/model"
)

// Field keys used in ValidationError.Fields.
const (
	FieldDate         = "date"
	FieldTime         = "time"
	FieldLocation     = "location"
	FieldInterviewer  = "interviewer"
	FieldDuration     = "duration"
	FieldRequirements = "requirements"
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid interview details: " + strings.Join(parts, "; ")
}

// Validator checks drafts against the clock in a fixed location.
type Validator struct {
	now func() time.Time
	loc *time.Location
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLocation sets the location interview dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(v *Validator) {
		if loc != nil {
			v.loc = loc
		}
	}
}

// NewValidator returns a Validator using the wall clock and time.Local.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every field of d and returns the wire payload.
// All field errors are collected into a single *ValidationError.
func (v *Validator) Validate(d Draft) (model.InterviewPayload, error) {
	fields := make(map[string]string)

	date, dateErr := time.ParseInLocation(DateLayout, strings.TrimSpace(d.Date), v.loc)
	if dateErr != nil {
		fields[FieldDate] = "date must be in YYYY-MM-DD format"
	}
	clock, timeErr := time.Parse(TimeLayout, strings.TrimSpace(d.Time))
	if timeErr != nil {
		fields[FieldTime] = "time must be in HH:MM format"
	}
	if dateErr == nil && timeErr == nil {
		at := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, v.loc)
		// Minute resolution: a slot in the current minute is not in the past.
		if at.Before(v.now().In(v.loc).Truncate(time.Minute)) {
			fields[FieldDate] = "interview cannot be scheduled in the past"
		}
	}

	location := strings.TrimSpace(d.Location)
	if location == "" {
		fields[FieldLocation] = "location is required"
	}

	interviewer := strings.TrimSpace(d.InterviewerID)
	if interviewer == "" {
		interviewer = strings.TrimSpace(d.InterviewerName)
	}
	if interviewer == "" {
		fields[FieldInterviewer] = "select an interviewer or enter a name"
	}

	if d.Duration < MinDuration || d.Duration > MaxDuration {
		fields[FieldDuration] = fmt.Sprintf("duration must be between %d and %d minutes", MinDuration, MaxDuration)
	}

	reqs := d.Requirements
	if reqs == nil {
		reqs = DefaultRequirements()
	}
	tags, err := normalizeRequirements(reqs)
	if err != nil {
		fields[FieldRequirements] = err.Error()
	}

	if len(fields) > 0 {
		return model.InterviewPayload{}, &ValidationError{Fields: fields}
	}
	return model.InterviewPayload{
		Date:         date.Format(DateLayout),
		Time:         clock.Format(TimeLayout),
		Location:     location,
		Interviewer:  interviewer,
		Duration:     d.Duration,
		Requirements: tags,
		Notes:        strings.TrimSpace(d.Notes),
	}, nil
}

// normalizeRequirements rejects unknown tags and returns the set in
// vocabulary order without duplicates.
func normalizeRequirements(reqs []Requirement) ([]string, error) {
	want := make(map[Requirement]bool, len(reqs))
	for _, r := range reqs {
		if _, err := ParseRequirement(string(r)); err != nil {
			return nil, err
		}
		want[r] = true
	}
	out := make([]string, 0, len(want))
	for _, r := range vocabulary {
		if want[r] {
			out = append(out, string(r))
		}
	}
	return out, nil
}
