// Package planforgesdk is a minimal Planforge HTTP API client.
package planforgesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a Planforge server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// JobAccepted is the submit/regenerate acknowledgement.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatus is the polling response.
type JobStatus struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// DesignDecision mirrors the API decision model.
type DesignDecision struct {
	Agent     string  `json:"agent"`
	Decision  string  `json:"decision"`
	Reasoning string  `json:"reasoning"`
	Score     float64 `json:"score"`
}

// ValidationReport mirrors the API validation model.
type ValidationReport struct {
	SunlightScore    float64  `json:"sunlight_score"`
	VentilationScore float64  `json:"ventilation_score"`
	StructuralScore  float64  `json:"structural_score"`
	EnergyEfficiency string   `json:"energy_efficiency"`
	Compliant        bool     `json:"compliant"`
	Issues           []string `json:"issues"`
}

// DesignResult mirrors the API result model.
type DesignResult struct {
	DesignID        string            `json:"design_id"`
	Files           map[string]string `json:"files"`
	Summary         map[string]any    `json:"summary"`
	DesignDecisions []DesignDecision  `json:"design_decisions"`
	Validation      ValidationReport  `json:"validation"`
}

// APIError is the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// AnalyzePlot submits a design request. The request is any JSON-marshalable
// value matching the API schema.
func (c *Client) AnalyzePlot(ctx context.Context, request any) (JobAccepted, error) {
	var out JobAccepted
	err := c.do(ctx, http.MethodPost, "/design/analyze-plot", request, &out)
	return out, err
}

// Status polls a job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	var out JobStatus
	err := c.do(ctx, http.MethodGet, "/design/"+url.PathEscape(jobID)+"/status", nil, &out)
	return out, err
}

// Result fetches the result of a completed job.
func (c *Client) Result(ctx context.Context, jobID string) (DesignResult, error) {
	var out DesignResult
	err := c.do(ctx, http.MethodGet, "/design/"+url.PathEscape(jobID)+"/result", nil, &out)
	return out, err
}

// Regenerate resubmits a job with new requirements.
func (c *Client) Regenerate(ctx context.Context, jobID string, requirements any) (JobAccepted, error) {
	var out JobAccepted
	body := map[string]any{"requirements": requirements}
	err := c.do(ctx, http.MethodPost, "/design/"+url.PathEscape(jobID)+"/regenerate", body, &out)
	return out, err
}

// SunPath fetches an ad-hoc environmental snapshot.
func (c *Client) SunPath(ctx context.Context, lat, lon float64) (map[string]any, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/environmental/sun-path?"+q.Encode(), nil, &out)
	return out, err
}

// Report fetches the validation report of a completed job.
func (c *Client) Report(ctx context.Context, jobID string) (ValidationReport, error) {
	q := url.Values{}
	q.Set("job_id", jobID)
	var out ValidationReport
	err := c.do(ctx, http.MethodGet, "/validation/report?"+q.Encode(), nil, &out)
	return out, err
}

// WaitForCompletion polls until the job reaches a terminal state.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string, interval time.Duration) (JobStatus, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	for {
		st, err := c.Status(ctx, jobID)
		if err != nil {
			return st, err
		}
		if st.Status == "completed" || st.Status == "failed" {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode >= 400 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
			envelope.Error.StatusCode = res.StatusCode
			return &envelope.Error
		}
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
