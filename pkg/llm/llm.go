// Package llm provides the completion-service client used by the analyzer
// and planner. The service is stateless request/response: prompt in, text
// plus token usage out.
package llm

import "context"

// Request is one completion request.
type Request struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Usage is the token consumption reported by the service for one request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the completion text and its measured usage.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Client is implemented by completion-service providers.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
