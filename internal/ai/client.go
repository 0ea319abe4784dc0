// Package ai wraps the Anthropic API behind a small completion client with
// retry, circuit breaking, and rate limiting. The classifier layer is the
// only consumer; nothing above it knows a model is involved.
package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Model constants. Classification is a single-shot labeling task, so the
// cost-efficient model is the default; the high-end model is available for
// operators who want deeper reasoning in the audit trail.
//
// Environment overrides:
//   - PARAFLOW_MODEL: override the classification model
const (
	// ModelDefault is the cost-efficient model used for classification.
	ModelDefault = "claude-3-5-haiku-20241022"

	// ModelReasoning is the high-end model for operators who prefer richer
	// reasoning text over cost.
	ModelReasoning = "claude-sonnet-4-5-20250929"
)

// GetModel returns the classification model, checking PARAFLOW_MODEL first.
func GetModel() string {
	if model := os.Getenv("PARAFLOW_MODEL"); model != "" {
		return model
	}
	return ModelDefault
}

// Client is a resilient completion client for the Anthropic API.
// Safe for concurrent use.
type Client struct {
	api     *anthropic.Client
	model   string
	retry   RetryConfig
	breaker *CircuitBreaker
	sem     *semaphore.Weighted // caps concurrent model calls
	limiter *rate.Limiter       // caps request rate across callers
}

// NewClient creates a client using ANTHROPIC_API_KEY from the environment.
// Returns an error if the key is missing; callers that want to run without
// a model should fall back to the rule-based classifier instead.
func NewClient(model string, retryCfg RetryConfig) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	api := anthropic.NewClient(option.WithAPIKey(apiKey))

	c := &Client{
		api:   &api,
		model: model,
		retry: retryCfg,
	}
	if retryCfg.CircuitBreakerEnabled {
		c.breaker = NewCircuitBreaker(retryCfg.FailureThreshold, retryCfg.SuccessThreshold, retryCfg.OpenTimeout)
	}
	if retryCfg.MaxConcurrentCalls > 0 {
		c.sem = semaphore.NewWeighted(int64(retryCfg.MaxConcurrentCalls))
	}
	if retryCfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(retryCfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// Model returns the model this client calls.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single-turn prompt and returns the concatenated text
// blocks of the response.
func (c *Client) Complete(ctx context.Context, operation, prompt string) (string, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("failed to acquire concurrency slot for %s: %w", operation, err)
		}
		defer c.sem.Release(1)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait for %s: %w", operation, err)
		}
	}

	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.api.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", err
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%s returned no text content", operation)
	}
	return text, nil
}
