package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// contentGenerator is the part of llms.Model used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// ChatClient sends chat completions through langchaingo's OpenAI driver,
// which also serves Groq and other OpenAI-compatible endpoints.
type ChatClient struct {
	model      contentGenerator
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

// NewChatClient creates a ChatClient. An empty API key yields ErrUnavailable.
func NewChatClient(cfg Config) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	cfg = cfg.withDefaults(DefaultBaseURL, DefaultModel)

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}
	return newChatClient(model, cfg), nil
}

func newChatClient(model contentGenerator, cfg Config) *ChatClient {
	return &ChatClient{
		model:      model,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

// Chat sends messages and returns the first choice's content.
func (c *ChatClient) Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	var callOpts []llms.CallOption
	if o.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.MaxTokens))
	}
	if o.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(o.Temperature))
	}
	if o.TopP > 0 {
		callOpts = append(callOpts, llms.WithTopP(o.TopP))
	}

	content := toMessageContent(messages)

	var reply string
	err := withRetries(ctx, c.maxRetries, c.backoff, func() error {
		resp, err := c.model.GenerateContent(ctx, content, callOpts...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return &retryableError{err: fmt.Errorf("chat completion failed: %w", err)}
		}
		if resp == nil || len(resp.Choices) == 0 {
			return fmt.Errorf("empty response from API")
		}
		reply = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Available returns true.
func (c *ChatClient) Available() bool { return true }

func toMessageContent(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextContent{Text: m.Content}},
		})
	}
	return out
}

var _ Client = (*ChatClient)(nil)
