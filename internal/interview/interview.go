// Package interview validates and carries the scheduling payload that
// accompanies entry into, or a reschedule within, the interview branch.
package interview

import (
	"fmt"

	"jobmate/workflow-service/internal/model"
)

// Requirement is a document the candidate must bring to the interview.
type Requirement string

const (
	RequirementCV                Requirement = "cv"
	RequirementCitizenship       Requirement = "citizenship"
	RequirementEducation         Requirement = "education"
	RequirementPhoto             Requirement = "photo"
	RequirementHardcopy          Requirement = "hardcopy"
	RequirementPassport          Requirement = "passport"
	RequirementExperienceLetters Requirement = "experience_letters"
)

// vocabulary is the closed set of requirement tags, in display order.
var vocabulary = []Requirement{
	RequirementCV,
	RequirementCitizenship,
	RequirementEducation,
	RequirementPhoto,
	RequirementHardcopy,
	RequirementPassport,
	RequirementExperienceLetters,
}

// Duration bounds in minutes, inclusive.
const (
	MinDuration     = 15
	MaxDuration     = 480
	DefaultDuration = 60
)

// Wire layouts for the date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Vocabulary returns every known requirement tag.
func Vocabulary() []Requirement {
	out := make([]Requirement, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// DefaultRequirements is used when a draft does not specify any.
func DefaultRequirements() []Requirement {
	return []Requirement{
		RequirementCV,
		RequirementCitizenship,
		RequirementEducation,
		RequirementPhoto,
		RequirementHardcopy,
	}
}

// ParseRequirement converts a raw tag to a Requirement.
func ParseRequirement(s string) (Requirement, error) {
	for _, r := range vocabulary {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown requirement %q", s)
}

// Draft is the editable form state of an interview schedule.
// A nil Requirements slice means "use the defaults"; an empty non-nil slice
// means "no documents required".
type Draft struct {
	Date            string
	Time            string
	Location        string
	InterviewerID   string
	InterviewerName string
	Duration        int
	Requirements    []Requirement
	Notes           string
}

// NewDraft returns a blank draft for a first schedule.
func NewDraft() Draft {
	return Draft{
		Duration:     DefaultDuration,
		Requirements: DefaultRequirements(),
	}
}

// FromInterview pre-populates a draft from an existing interview so that a
// reschedule starts from the current values rather than the defaults.
func FromInterview(iv model.Interview) Draft {
	reqs := make([]Requirement, 0, len(iv.Requirements))
	for _, r := range iv.Requirements {
		reqs = append(reqs, Requirement(r))
	}
	return Draft{
		Date:            iv.Date,
		Time:            iv.Time,
		Location:        iv.Location,
		InterviewerName: iv.Interviewer,
		Duration:        iv.Duration,
		Requirements:    reqs,
		Notes:           iv.Notes,
	}
}

// FromPayload turns a wire payload back into a draft. The interviewer is
// treated as free text.
func FromPayload(p model.InterviewPayload) Draft {
	d := FromInterview(model.Interview{
		Date:         p.Date,
		Time:         p.Time,
		Location:     p.Location,
		Interviewer:  p.Interviewer,
		Duration:     p.Duration,
		Requirements: p.Requirements,
		Notes:        p.Notes,
	})
	if p.Requirements == nil {
		d.Requirements = nil
	}
	return d
}
