// Package oracle is the LLM second opinion used by the pipeline: batch and
// single-record language checks and last-resort date extraction.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/juris/internal/schema"
	"github.com/jackzampolin/juris/internal/types"
)

const (
	DefaultModel      = string(openai.ChatModelGPT4oMini)
	defaultTimeout    = 60 * time.Second
	defaultRetryDelay = time.Second
	maxRetryDelay     = 10 * time.Second
	temperature       = 0.1
)

var (
	// ErrUnavailable means the oracle is disabled or has no credentials.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrMalformedResponse means the model answered with unusable content.
	ErrMalformedResponse = errors.New("malformed oracle response")
)

// APIError is a non-success response from the completion endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("oracle API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("oracle API error (status %d)", e.StatusCode)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config holds configuration for the oracle client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string        // Optional (tests, compatible endpoints)
	Timeout    time.Duration // Per-call timeout
	MaxRetries int           // Retries after the first attempt
	RetryDelay time.Duration // Base delay for exponential backoff
	RateLimit  int           // Requests per minute, spaced evenly
	HTTPClient *http.Client  // Optional (tests)
	Logger     *slog.Logger
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client     openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	throttle   *Throttle
	logger     *slog.Logger

	languageSchema *schema.Validator
	batchSchema    *schema.Validator
}

// NewClient creates a client. A missing API key yields ErrUnavailable.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// Retries are owned by retry-go so the SDK must not retry on its own.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	languageSchema, err := schema.Compile(schema.LanguageVerdict)
	if err != nil {
		return nil, err
	}
	batchSchema, err := schema.Compile(schema.BatchVerdicts)
	if err != nil {
		return nil, err
	}

	return &Client{
		client:         openai.NewClient(opts...),
		model:          cfg.Model,
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
		throttle:       NewThrottle(cfg.RateLimit, cfg.Timeout),
		logger:         logger.With("component", "oracle", "model", cfg.Model),
		languageSchema: languageSchema,
		batchSchema:    batchSchema,
	}, nil
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.model
}

// ThrottleStatus exposes call pacing for diagnostics.
func (c *Client) ThrottleStatus() ThrottleStatus {
	return c.throttle.Status()
}

// complete sends one system+user exchange and returns the trimmed answer.
// Throttling, server errors and transport failures are retried with
// exponential backoff up to the configured count.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID)

	var content string
	err := retry.Do(
		func() error {
			if err := c.throttle.Acquire(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			resp, err := c.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(system),
					openai.UserMessage(user),
				},
				Temperature: openai.Float(temperature),
				MaxTokens:   openai.Int(maxTokens),
			})
			if err != nil {
				mapped := c.mapOpenAIError(err)
				var apiErr *APIError
				if errors.As(mapped, &apiErr) && !apiErr.retryable() {
					return retry.Unrecoverable(mapped)
				}
				return mapped
			}
			if len(resp.Choices) == 0 {
				return retry.Unrecoverable(fmt.Errorf("%w: no choices returned", ErrMalformedResponse))
			}
			content = strings.TrimSpace(resp.Choices[0].Message.Content)
			logger.Debug("oracle call completed",
				"duration", time.Since(start),
				"prompt_tokens", resp.Usage.PromptTokens,
				"completion_tokens", resp.Usage.CompletionTokens,
			)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying oracle call", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(apiErr.Response)
			c.throttle.Hold(wait)
			c.logger.Warn("oracle throttled", "retry_after", wait)
		}
		return &APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return err
}

// languageName spells out a language for prompts.
func languageName(lang types.Language) string {
	switch lang {
	case types.LanguageFR:
		return "French"
	case types.LanguageNL:
		return "Dutch"
	case types.LanguageDE:
		return "German"
	default:
		return string(lang)
	}
}
