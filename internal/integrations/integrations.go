// Package integrations receives callbacks from Google Calendar and Slack
// and turns them into domain events. Both integrations are stubs: payloads
// are acknowledged and forwarded, never fetched back from the provider.
package integrations

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/events"
)

// Google push notification resource states.
const (
	ResourceStateSync      = "sync"
	ResourceStateExists    = "exists"
	ResourceStateNotExists = "not_exists"
)

// Webhook replies.
const (
	StatusSyncAcknowledged = "sync_acknowledged"
	StatusProcessed        = "processed"
	StatusOK               = "ok"
)

// Slack payload and event types.
const (
	SlackURLVerification = "url_verification"
	SlackEventCallback   = "event_callback"
	SlackMessage         = "message"
	SlackReactionAdded   = "reaction_added"
)

// SlackPayload is the body of a Slack Events API request.
type SlackPayload struct {
	Type      string         `json:"type"`
	Challenge string         `json:"challenge,omitempty"`
	TeamID    string         `json:"team_id,omitempty"`
	APIAppID  string         `json:"api_app_id,omitempty"`
	Event     map[string]any `json:"event,omitempty"`
}

// SlackReply is the response to a Slack payload.
type SlackReply struct {
	Challenge string `json:"challenge,omitempty"`
	Status    string `json:"status,omitempty"`
}

// CalendarView is a user's agenda.
type CalendarView struct {
	Events   []EventView `json:"events"`
	UserID   string      `json:"user_id"`
	SyncedAt time.Time   `json:"synced_at"`
}

// Service handles integration callbacks.
type Service struct {
	calendar  CalendarSource
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an integrations service. Nil dependencies fall back to
// MockCalendar, a no-op publisher and a no-op logger.
func NewService(cal CalendarSource, publisher events.Publisher, logger *zap.Logger) *Service {
	if cal == nil {
		cal = MockCalendar{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{calendar: cal, publisher: publisher, logger: logger, now: time.Now}
}

// CalendarNotification handles a Google Calendar push notification.
func (s *Service) CalendarNotification(ctx context.Context, channelID, resourceState string) (string, error) {
	switch resourceState {
	case ResourceStateSync:
		return StatusSyncAcknowledged, nil
	case ResourceStateExists, ResourceStateNotExists:
		s.logger.Info("calendar change detected",
			zap.String("channel_id", channelID),
			zap.String("resource_state", resourceState))
		err := s.publisher.Publish(ctx, events.SubjectCalendarChanged, map[string]string{
			"channel_id":     channelID,
			"resource_state": resourceState,
		})
		if err != nil {
			return "", fmt.Errorf("publish calendar change: %w", err)
		}
	}
	return StatusProcessed, nil
}

// Calendar returns the user's events.
func (s *Service) Calendar(ctx context.Context, userID string) (*CalendarView, error) {
	evs, err := s.calendar.Events(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	view := &CalendarView{Events: make([]EventView, 0, len(evs)), UserID: userID, SyncedAt: s.now()}
	for _, e := range evs {
		view.Events = append(view.Events, ViewOf(e))
	}
	return view, nil
}

// SlackEvent handles a Slack Events API payload.
func (s *Service) SlackEvent(ctx context.Context, p SlackPayload) (*SlackReply, error) {
	switch p.Type {
	case SlackURLVerification:
		return &SlackReply{Challenge: p.Challenge}, nil
	case SlackEventCallback:
		if err := s.slackCallback(ctx, p); err != nil {
			return nil, err
		}
	}
	return &SlackReply{Status: StatusOK}, nil
}

func (s *Service) slackCallback(ctx context.Context, p SlackPayload) error {
	eventType, _ := p.Event["type"].(string)
	user, _ := p.Event["user"].(string)

	var (
		subject string
		data    map[string]string
	)
	switch eventType {
	case SlackMessage:
		text, _ := p.Event["text"].(string)
		channel, _ := p.Event["channel"].(string)
		subject = events.SubjectSlackMessage
		data = map[string]string{"team_id": p.TeamID, "user": user, "channel": channel, "text": text}
	case SlackReactionAdded:
		reaction, _ := p.Event["reaction"].(string)
		subject = events.SubjectSlackReaction
		data = map[string]string{"team_id": p.TeamID, "user": user, "reaction": reaction}
	default:
		return nil
	}

	s.logger.Info("slack event received",
		zap.String("type", eventType),
		zap.String("user", user))
	if err := s.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish slack %s: %w", eventType, err)
	}
	return nil
}
