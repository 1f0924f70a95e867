// Package llm provides chat completion and speech transcription clients
// for OpenAI-compatible providers (Groq, OpenAI, local gateways).
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultBaseURL            = "https://api.groq.com/openai/v1"
	DefaultModel              = "llama-3.1-70b-versatile"
	DefaultTranscriptionURL   = "https://api.openai.com/v1"
	DefaultTranscriptionModel = "whisper-1"

	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("llm: provider not configured")

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat.
type Message struct {
	Role    Role
	Content string
}

// CallOptions tune a single completion.
type CallOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// CallOption sets a field of CallOptions.
type CallOption func(*CallOptions)

// WithMaxTokens limits the length of the completion.
func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) { o.Temperature = t }
}

// WithTopP sets nucleus sampling.
func WithTopP(p float64) CallOption {
	return func(o *CallOptions) { o.TopP = p }
}

// Client generates chat completions.
type Client interface {
	// Chat returns the assistant reply to messages.
	Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, error)

	// Available returns true if the client is configured and ready.
	Available() bool
}

// Transcriber converts recorded speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Available() bool
}

// Config configures the chat and transcription clients.
type Config struct {
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration // first retry delay, doubled per attempt
	RateLimit  float64       // requests per second
	Burst      int
}

func (c Config) withDefaults(baseURL, model string) Config {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBaseBackoff
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	return c
}

// NoopClient is a Client that is never available.
type NoopClient struct{}

// Chat always returns ErrUnavailable.
func (NoopClient) Chat(context.Context, []Message, ...CallOption) (string, error) {
	return "", ErrUnavailable
}

// Available returns false.
func (NoopClient) Available() bool { return false }

// NoopTranscriber is a Transcriber that is never available.
type NoopTranscriber struct{}

// Transcribe always returns ErrUnavailable.
func (NoopTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return "", ErrUnavailable
}

// Available returns false.
func (NoopTranscriber) Available() bool { return false }

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// withRetries runs fn until it succeeds, returns a non-retryable error, or
// the attempts are exhausted. Backoff doubles after each failure.
func withRetries(ctx context.Context, maxRetries int, base time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := base * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
