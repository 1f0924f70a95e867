package conversation

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	messages      map[string][]Message
	userContext   map[string]UserContext
	now           func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
		userContext:   make(map[string]UserContext),
		now:           time.Now,
	}
}

// NewConversationID returns the id of a conversation started at t.
func NewConversationID(userID string, t time.Time) string {
	return fmt.Sprintf("conv_%s_%d", userID, t.Unix())
}

func (s *MemoryStore) CreateOrGet(_ context.Context, userID, conversationID string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID != "" {
		if c, ok := s.conversations[conversationID]; ok && c.UserID == userID {
			return c, nil
		}
	}

	now := s.now()
	id := NewConversationID(userID, now)
	if c, ok := s.conversations[id]; ok && c.UserID == userID {
		return c, nil
	}
	c := Conversation{ID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.conversations[id] = c
	return c, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, conversationID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("append to %s: %w", conversationID, ErrNotFound)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)

	c.UpdatedAt = msg.Timestamp
	s.conversations[conversationID] = c
	return nil
}

func (s *MemoryStore) History(_ context.Context, conversationID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) UserContext(_ context.Context, userID string) (UserContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(UserContext, len(s.userContext[userID]))
	for k, v := range s.userContext[userID] {
		out[k] = maps.Clone(v)
	}
	return out, nil
}

func (s *MemoryStore) UpdateUserContext(_ context.Context, userID, contextType string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc, ok := s.userContext[userID]
	if !ok {
		uc = make(UserContext)
		s.userContext[userID] = uc
	}
	uc[contextType] = maps.Clone(data)
	return nil
}

var _ Store = (*MemoryStore)(nil)
