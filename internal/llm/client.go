// Package llm wraps the chat-completions API used for flashcards,
// clarification and answer synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrLLMTimeout       = errors.New("LLM_TIMEOUT")
	ErrLLMRequestFailed = errors.New("LLM_REQUEST_FAILED")
	ErrEmptyCompletion  = errors.New("LLM_EMPTY_COMPLETION")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxRetries  int
	Timeout     time.Duration // per HTTP call, 0 leaves it to ctx
}

type Client struct {
	api    *openai.Client
	config Config
	logger Logger
}

func New(cfg Config, log Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	return &Client{api: openai.NewClientWithConfig(oc), config: cfg, logger: log}
}

type Option func(*openai.ChatCompletionRequest)

// JSONObject asks the model for a single JSON object.
func JSONObject() Option {
	return func(r *openai.ChatCompletionRequest) {
		r.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
}

func Temperature(t float64) Option {
	return func(r *openai.ChatCompletionRequest) {
		r.Temperature = float32(t)
	}
}

// Complete sends one system and one user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, system, user string, opts ...Option) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(c.config.Temperature),
	}
	for _, opt := range opts {
		opt(&req)
	}

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrLLMTimeout
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", ErrEmptyCompletion
			}
			c.logger.Info("completion received", map[string]interface{}{
				"model":            c.config.Model,
				"attempt":          attempt + 1,
				"promptTokens":     resp.Usage.PromptTokens,
				"completionTokens": resp.Usage.CompletionTokens,
				"durationMs":       time.Since(start).Milliseconds(),
			})
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}

		if ctx.Err() != nil {
			return "", ErrLLMTimeout
		}

		lastErr = err
		if !retryable(err) {
			break
		}
		c.logger.Warn("completion failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err,
		})
	}

	return "", fmt.Errorf("%w: %v", ErrLLMRequestFailed, lastErr)
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	// transport level failure
	return true
}
