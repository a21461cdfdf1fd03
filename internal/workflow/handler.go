package workflow

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"jobmate/workflow-service/internal/interview"
	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// Handler exposes Service over REST.
//
// Routes:
//
//	GET /workflow/stages                    → ordered stage catalog
//	GET /workflow/candidates                → page + analytics + pagination
//	GET /workflow/candidates/{id}           → one application
//	GET /workflow/candidates/{id}/next      → legal target stages
//	PUT /workflow/candidates/{id}/stage     → stage change
//	PUT /workflow/interviews/{id}           → reschedule in place
type Handler struct {
	svc *Service
}

// NewHandler returns a Handler for svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the workflow routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /workflow/stages", h.listStages)
	mux.HandleFunc("GET /workflow/candidates", h.listCandidates)
	mux.HandleFunc("GET /workflow/candidates/{id}", h.getCandidate)
	mux.HandleFunc("GET /workflow/candidates/{id}/next", h.nextStages)
	mux.HandleFunc("PUT /workflow/candidates/{id}/stage", h.moveStage)
	mux.HandleFunc("PUT /workflow/interviews/{id}", h.reschedule)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) listStages(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, h.svc.Stages())
}

func (h *Handler) listCandidates(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := model.CandidateQuery{
		Stage:  pipeline.Stage(v.Get("stage")),
		Search: v.Get("search"),
	}
	var err error
	if q.Page, err = intParam(v.Get("page")); err != nil {
		jsonError(w, "page must be an integer", http.StatusBadRequest)
		return
	}
	if q.Limit, err = intParam(v.Get("limit")); err != nil {
		jsonError(w, "limit must be an integer", http.StatusBadRequest)
		return
	}

	page, err := h.svc.Candidates(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, page)
}

func (h *Handler) getCandidate(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.Application(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) nextStages(w http.ResponseWriter, r *http.Request) {
	next, err := h.svc.NextStages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, next)
}

func (h *Handler) moveStage(w http.ResponseWriter, r *http.Request) {
	var body model.StageChange
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		jsonError(w, "body must contain status", http.StatusBadRequest)
		return
	}

	app, err := h.svc.MoveStage(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	var body model.InterviewPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	app, err := h.svc.Reschedule(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// StatusCode maps a service error to its HTTP status.
func StatusCode(err error) int {
	var (
		re *RequestError
		te *TransitionError
		ve *interview.ValidationError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &re), errors.Is(err, ErrMissingInterviewDetails):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &te), errors.Is(err, ErrStageConflict), errors.Is(err, ErrNoInterview):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		slog.Error("workflow request failed", "err", err)
		jsonError(w, "internal server error", code)
		return
	}
	body := model.ErrorBody{Message: err.Error()}
	var ve *interview.ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}
	writeJSON(w, code, body)
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, model.ErrorBody{Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
