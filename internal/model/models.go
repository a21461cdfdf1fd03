// Package model defines the data shared by the workflow engine, the
// workflow service and their transports.
package model

import (
	"time"

	"jobmate/workflow-service/internal/pipeline"
)

// Application is one candidate's pursuit of one job posting.
// The workflow service owns it; engine copies are display snapshots.
type Application struct {
	ID          string         `json:"id"`
	CandidateID string         `json:"candidateId"`
	JobID       string         `json:"jobId"`
	Stage       pipeline.Stage `json:"status"`
	Interview   *Interview     `json:"interview,omitempty"`
	History     []HistoryEntry `json:"history,omitempty"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// HistoryEntry records one committed stage change.
type HistoryEntry struct {
	From pipeline.Stage `json:"from"`
	To   pipeline.Stage `json:"to"`
	At   time.Time      `json:"at"`
	Note string         `json:"note,omitempty"`
}

// Interview is the schedule attached to an application in the interview
// branch. Reschedules mutate it in place; ID never changes.
type Interview struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Location     string   `json:"location"`
	Interviewer  string   `json:"interviewer"`
	Duration     int      `json:"duration"`
	Requirements []string `json:"requirements"`
	Notes        string   `json:"notes"`
}

// InterviewPayload is the wire shape sent when scheduling or rescheduling.
type InterviewPayload struct {
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Location     string   `json:"location"`
	Interviewer  string   `json:"interviewer"`
	Duration     int      `json:"duration"`
	Requirements []string `json:"requirements"`
	Notes        string   `json:"notes"`
}

// StageChange is the body of PUT /workflow/candidates/{id}/stage.
type StageChange struct {
	Status           pipeline.Stage    `json:"status"`
	Note             string            `json:"note,omitempty"`
	InterviewDetails *InterviewPayload `json:"interviewDetails,omitempty"`
}

// CandidateQuery filters GET /workflow/candidates.
type CandidateQuery struct {
	Stage  pipeline.Stage
	Search string
	Page   int
	Limit  int
}

// Summary is the server-computed analytics block of a candidate page.
type Summary struct {
	Counts      map[pipeline.Stage]int `json:"counts"`
	Total       int                    `json:"total"`
	SuccessRate float64                `json:"successRate"`
}

// Pagination describes the position of a candidate page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// CandidatePage is the response of GET /workflow/candidates.
type CandidatePage struct {
	Data       []Application `json:"data"`
	Analytics  Summary       `json:"analytics"`
	Pagination Pagination    `json:"pagination"`
}

// ErrorBody is the JSON error shape of every non-2xx response.
type ErrorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Clone returns a deep copy of a.
func (a Application) Clone() Application {
	out := a
	if a.Interview != nil {
		iv := *a.Interview
		iv.Requirements = append([]string(nil), a.Interview.Requirements...)
		out.Interview = &iv
	}
	if a.History != nil {
		out.History = append([]HistoryEntry(nil), a.History...)
	}
	return out
}
