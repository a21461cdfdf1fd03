package main

import (
	"github.com/spf13/cobra"

	"jobmate/workflow-service/internal/interview"
)

type interviewFlags struct {
	date           string
	time           string
	location       string
	interviewer    string
	duration       int
	requirements   []string
	noRequirements bool
	notes          string
}

func (f *interviewFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Interview date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.time, "time", "", "Interview time (HH:MM, 24h)")
	cmd.Flags().StringVar(&f.location, "location", "", "Interview location")
	cmd.Flags().StringVar(&f.interviewer, "interviewer", "", "Interviewer name")
	cmd.Flags().IntVar(&f.duration, "duration", interview.DefaultDuration, "Duration in minutes")
	cmd.Flags().StringSliceVar(&f.requirements, "requirement", nil, "Required document (repeatable)")
	cmd.Flags().BoolVar(&f.noRequirements, "no-requirements", false, "Require no documents")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Interview notes")
}

// given reports whether an interview flag was set on the command line.
func (f *interviewFlags) given(cmd *cobra.Command) bool {
	for _, name := range []string{"date", "time", "location", "interviewer", "duration", "requirement", "no-requirements", "notes"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply overwrites the fields of d whose flags were set.
func (f *interviewFlags) apply(cmd *cobra.Command, d *interview.Draft) error {
	changed := cmd.Flags().Changed
	if changed("date") {
		d.Date = f.date
	}
	if changed("time") {
		d.Time = f.time
	}
	if changed("location") {
		d.Location = f.location
	}
	if changed("interviewer") {
		d.InterviewerID = ""
		d.InterviewerName = f.interviewer
	}
	if changed("duration") {
		d.Duration = f.duration
	}
	if changed("notes") {
		d.Notes = f.notes
	}
	switch {
	case f.noRequirements:
		d.Requirements = []interview.Requirement{}
	case changed("requirement"):
		reqs := make([]interview.Requirement, 0, len(f.requirements))
		for _, raw := range f.requirements {
			r, err := interview.ParseRequirement(raw)
			if err != nil {
				return err
			}
			reqs = append(reqs, r)
		}
		d.Requirements = reqs
	}
	return nil
}
