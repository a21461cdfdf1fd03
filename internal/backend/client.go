// Package backend is the HTTP client for the workflow REST API. It
// implements engine.Backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// StatusError is a non-2xx answer from the workflow API. Its Error is the
// server-provided message, suitable for display. Fields carries per-field
// validation messages when the server sent them.
type StatusError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("workflow api returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

// HTTPClient talks to the workflow service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// ListStages calls GET /workflow/stages.
func (c *HTTPClient) ListStages(ctx context.Context) ([]pipeline.StageInfo, error) {
	var out []pipeline.StageInfo
	if err := c.do(ctx, http.MethodGet, "/workflow/stages", nil, &out); err != nil {
		return nil, wrap("list stages", err)
	}
	return out, nil
}

// ListCandidates calls GET /workflow/candidates. Zero-valued query fields
// are omitted.
func (c *HTTPClient) ListCandidates(ctx context.Context, q model.CandidateQuery) (model.CandidatePage, error) {
	v := url.Values{}
	if q.Stage != "" {
		v.Set("stage", string(q.Stage))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/workflow/candidates"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out model.CandidatePage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return model.CandidatePage{}, wrap("list candidates", err)
	}
	return out, nil
}

// MoveStage calls PUT /workflow/candidates/{id}/stage.
func (c *HTTPClient) MoveStage(ctx context.Context, applicationID string, change model.StageChange) (model.Application, error) {
	var out model.Application
	path := "/workflow/candidates/" + url.PathEscape(applicationID) + "/stage"
	if err := c.do(ctx, http.MethodPut, path, change, &out); err != nil {
		return model.Application{}, wrap("move stage", err)
	}
	return out, nil
}

// RescheduleInterview calls PUT /workflow/interviews/{id}.
func (c *HTTPClient) RescheduleInterview(ctx context.Context, interviewID string, p model.InterviewPayload) (model.Application, error) {
	var out model.Application
	path := "/workflow/interviews/" + url.PathEscape(interviewID)
	if err := c.do(ctx, http.MethodPut, path, p, &out); err != nil {
		return model.Application{}, wrap("reschedule interview", err)
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(status int, payload []byte) error {
	var parsed model.ErrorBody
	if err := json.Unmarshal(payload, &parsed); err != nil || parsed.Message == "" {
		return &StatusError{Status: status, Message: strings.TrimSpace(string(payload))}
	}
	return &StatusError{Status: status, Message: parsed.Message, Fields: parsed.Fields}
}

// wrap prefixes transport failures with op. Status errors pass through so
// the server message reaches the user unchanged.
func wrap(op string, err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	return fmt.Errorf("%s: %w", op, err)
}
