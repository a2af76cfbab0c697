package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fixlane/api/internal/config"
	"github.com/fixlane/api/internal/model"
)

// JobAPI defines the interface for the upstream job collection
type JobAPI interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
	CreateJob(ctx context.Context, job *model.Job) (*model.Job, error)
	UpdateJob(ctx context.Context, id string, job *model.Job) (*model.Job, error)
	AssignJob(ctx context.Context, id, contractorID string) (*model.Job, error)
}

// JobAPIClient implements JobAPI over HTTP
type JobAPIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewJobAPIClient creates a new upstream job API client
func NewJobAPIClient(cfg *config.JobAPIConfig) *JobAPIClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobAPIClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// ListJobs fetches the full job collection
func (c *JobAPIClient) ListJobs(ctx context.Context) ([]model.Job, error) {
	var records []wireJob
	if err := c.get(ctx, "/jobs", &records); err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(records))
	for _, record := range records {
		job, err := fromWire(record)
		if err != nil {
			return nil, fmt.Errorf("failed to decode job record: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// CreateJob posts a new job to the remote collection and returns the
// created record with server-issued fields.
func (c *JobAPIClient) CreateJob(ctx context.Context, job *model.Job) (*model.Job, error) {
	var record wireJob
	if err := c.post(ctx, "/jobs", toWire(job), &record); err != nil {
		return nil, err
	}

	created, err := fromWire(record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode created job: %w", err)
	}
	return created, nil
}

// UpdateJob puts the full merged record
func (c *JobAPIClient) UpdateJob(ctx context.Context, id string, job *model.Job) (*model.Job, error) {
	endpoint := fmt.Sprintf("/jobs/%s", id)
	var record wireJob
	if err := c.put(ctx, endpoint, toWire(job), &record); err != nil {
		return nil, err
	}

	updated, err := fromWire(record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode updated job: %w", err)
	}
	return updated, nil
}

// AssignJob requests assignment of an open job to a contractor
func (c *JobAPIClient) AssignJob(ctx context.Context, id, contractorID string) (*model.Job, error) {
	endpoint := fmt.Sprintf("/jobs/%s/assign", id)
	body := map[string]string{"contractorId": contractorID}

	var record wireJob
	if err := c.post(ctx, endpoint, body, &record); err != nil {
		return nil, err
	}

	assigned, err := fromWire(record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode assigned job: %w", err)
	}
	return assigned, nil
}

// post sends a POST request with JSON body
func (c *JobAPIClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// put sends a PUT request with JSON body
func (c *JobAPIClient) put(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses the JSON response
func (c *JobAPIClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response. Network
// failures come back as TransportError, non-2xx responses as
// RemoteRejectedError with the server message intact.
func (c *JobAPIClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	op := fmt.Sprintf("%s %s", req.Method, req.URL.Path)
	log.Printf("[Job API] → %s", op)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Job API] ✗ %s — request failed: %v", op, err)
		return &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Job API] ✗ %s — failed to read response: %v", op, err)
		return &model.TransportError{Op: op, Err: err}
	}

	log.Printf("[Job API] ← %d %s", resp.StatusCode, op)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.RemoteRejectedError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(respBody),
		}
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		log.Printf("[Job API] ✗ unmarshal error for %s: %v (body: %s)", op, err, string(respBody))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// serverMessage pulls a human-readable message out of an error response,
// falling back to the raw body.
func serverMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return string(body)
}

// IsConfigured returns true if the client has a base URL to talk to
func (c *JobAPIClient) IsConfigured() bool {
	return c.baseURL != ""
}
