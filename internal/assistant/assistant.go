// Package assistant implements Jia, the conversational productivity
// assistant. Each turn is answered by an LLM with the user's recent history
// and learned preferences; when the provider fails a keyword-selected
// offline reply is returned instead.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/conversation"
	"github.com/fyrsmithlabs/jipange/internal/llm"
	"github.com/fyrsmithlabs/jipange/internal/logging"
	"github.com/fyrsmithlabs/jipange/internal/secrets"
)

const (
	defaultHistoryLimit = 10
	promptMessages      = 5

	chatMaxTokens   = 500
	chatTemperature = 0.7
	chatTopP        = 0.9
)

// ErrInvalidInput is returned for requests without a message or user.
var ErrInvalidInput = errors.New("invalid chat request")

// Request is one user turn.
type Request struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	Context        string `json:"context,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Response is the assistant's answer to a Request.
type Response struct {
	Response       string    `json:"response"`
	ConversationID string    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
	ContextUsed    bool      `json:"context_used"`
	Suggestions    []string  `json:"suggestions"`
	Actions        []Action  `json:"actions"`
}

// Service answers chat requests.
type Service struct {
	store    conversation.Store
	client   llm.Client
	scrubber secrets.Scrubber
	logger   *zap.Logger
	now      func() time.Time

	historyLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScrubber redacts secrets from user messages before they are stored
// or sent to the provider.
func WithScrubber(scrubber secrets.Scrubber) Option {
	return func(s *Service) {
		if scrubber != nil {
			s.scrubber = scrubber
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHistoryLimit sets how many stored messages are loaded per turn.
// Zero keeps the default.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// NewService creates an assistant backed by store and client.
func NewService(store conversation.Store, client llm.Client, opts ...Option) *Service {
	if client == nil {
		client = llm.NoopClient{}
	}
	s := &Service{
		store:    store,
		client:   client,
		scrubber: secrets.NoopScrubber{},
		logger:   zap.NewNop(),
		now:      time.Now,

		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a user message. Provider and storage failures produce an
// offline reply rather than an error; only malformed requests fail.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" || req.UserID == "" {
		return nil, fmt.Errorf("%w: message and user_id are required", ErrInvalidInput)
	}

	ctx = logging.WithUserID(ctx, req.UserID)
	log := logging.For(ctx, s.logger)

	if result := s.scrubber.Scrub(req.Message); result.HasFindings() {
		log.Warn("redacted secrets from chat message",
			zap.String("user_id", req.UserID),
			zap.Strings("rules", result.RuleIDs()))
		req.Message = result.Scrubbed
	}

	resp, err := s.ask(ctx, req)
	if err != nil {
		log.Error("assistant chat failed, using fallback reply",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return s.fallback(req), nil
	}
	return resp, nil
}

func (s *Service) ask(ctx context.Context, req Request) (*Response, error) {
	conv, err := s.store.CreateOrGet(ctx, req.UserID, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}
	ctx = logging.WithConversationID(ctx, conv.ID)
	history, err := s.store.History(ctx, conv.ID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	userCtx, err := s.store.UserContext(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user context: %w", err)
	}

	now := s.now()
	reply, err := s.client.Chat(ctx, buildMessages(req, history, userCtx, now),
		llm.WithMaxTokens(chatMaxTokens),
		llm.WithTemperature(chatTemperature),
		llm.WithTopP(chatTopP))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	suggestions, actions := SuggestionsFor(req.Message)

	if err := s.store.AppendMessage(ctx, conv.ID, conversation.Message{
		Role: conversation.RoleUser, Content: req.Message, Timestamp: now,
	}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	if err := s.store.AppendMessage(ctx, conv.ID, conversation.Message{
		Role: conversation.RoleAssistant, Content: reply, Timestamp: s.now(),
	}); err != nil {
		return nil, fmt.Errorf("save reply: %w", err)
	}

	for contextType, data := range contextUpdates(req.Message, now) {
		if err := s.store.UpdateUserContext(ctx, req.UserID, contextType, data); err != nil {
			logging.For(ctx, s.logger).Warn("failed to update user context",
				zap.String("user_id", req.UserID),
				zap.String("context_type", contextType),
				zap.Error(err))
		}
	}

	return &Response{
		Response:       reply,
		ConversationID: conv.ID,
		Timestamp:      s.now(),
		ContextUsed:    len(history) > 0 || len(userCtx) > 0,
		Suggestions:    suggestions,
		Actions:        actions,
	}, nil
}

func (s *Service) fallback(req Request) *Response {
	id := req.ConversationID
	if id == "" {
		id = "fallback_" + req.UserID
	}
	return &Response{
		Response:       FallbackReply(req.Message),
		ConversationID: id,
		Timestamp:      s.now(),
		Suggestions:    append([]string(nil), fallbackSuggestions...),
		Actions:        []Action{},
	}
}

func buildMessages(req Request, history []conversation.Message, userCtx conversation.UserContext, now time.Time) []llm.Message {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleSystem, Content: "CONTEXT INFORMATION:\n" + contextBlock(req, history, userCtx, now)},
	}

	recent := history
	if len(recent) > promptMessages {
		recent = recent[len(recent)-promptMessages:]
	}
	for _, m := range recent {
		role := llm.RoleAssistant
		if m.Role == conversation.RoleUser {
			role = llm.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: req.Message})
}

func contextBlock(req Request, history []conversation.Message, userCtx conversation.UserContext, now time.Time) string {
	uc := "No previous context"
	if len(userCtx) > 0 {
		if b, err := json.MarshalIndent(userCtx, "", "  "); err == nil {
			uc = string(b)
		}
	}
	extra := req.Context
	if extra == "" {
		extra = "None provided"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CURRENT TIME: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "USER CONTEXT: %s\n", uc)
	fmt.Fprintf(&b, "ADDITIONAL CONTEXT: %s\n\n", extra)
	b.WriteString("CONVERSATION HISTORY:\n")
	b.WriteString(conversation.FormatHistory(history, promptMessages))
	return b.String()
}
