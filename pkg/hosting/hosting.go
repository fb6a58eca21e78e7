// Package hosting talks to the workflow hosting platform's REST API: one
// read (download a workflow definition) and one write (publish an updated
// definition). The write body is shaped by the fixer's allow-list; this
// package is transport only.
package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const hostingTimeout = 30 * time.Second

// Client is the hosting platform surface the fixer depends on.
type Client interface {
	GetWorkflow(ctx context.Context, workflowID string) (*DownloadedWorkflow, error)
	UpdateWorkflow(ctx context.Context, workflowID string, payload map[string]any) error
}

// DownloadedWorkflow carries the raw definition document. Decoding into
// models.WorkflowDefinition is the caller's concern so transport errors and
// document-shape errors stay distinct.
type DownloadedWorkflow struct {
	Raw json.RawMessage
}

// APIError is a non-2xx response from the hosting platform, kept verbatim
// so the verify phase can record the exact failure reason.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("hosting api returned %d", e.StatusCode)
	}

	return fmt.Sprintf("hosting api returned %d: %s", e.StatusCode, e.Body)
}

// HTTPClient implements Client against a hosting platform base URL with
// API-key header auth.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = timeout
	}
}

// NewHTTPClient creates a hosting API client.
func NewHTTPClient(baseURL, apiKey string, opts ...Option) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("hosting api url is required")
	}

	client := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: hostingTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// GetWorkflow downloads the current definition for a workflow id.
func (c *HTTPClient) GetWorkflow(ctx context.Context, workflowID string) (*DownloadedWorkflow, error) {
	body, err := c.do(ctx, http.MethodGet, c.workflowURL(workflowID), nil)
	if err != nil {
		return nil, err
	}

	return &DownloadedWorkflow{Raw: body}, nil
}

// UpdateWorkflow publishes an allow-listed payload for a workflow id. Any
// non-2xx response comes back as an *APIError.
func (c *HTTPClient) UpdateWorkflow(ctx context.Context, workflowID string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}

	_, err = c.do(ctx, http.MethodPut, c.workflowURL(workflowID), data)

	return err
}

func (c *HTTPClient) workflowURL(workflowID string) string {
	return c.baseURL + "/api/v1/workflows/" + workflowID
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create hosting request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hosting request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosting response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}
