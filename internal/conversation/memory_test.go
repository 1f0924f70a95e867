package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(now time.Time) *MemoryStore {
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s
}

func TestMemoryStore_CreateOrGet(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	s := newTestStore(now)

	c, err := s.CreateOrGet(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "conv_u1_1700000000", c.ID)
	assert.Equal(t, "u1", c.UserID)

	again, err := s.CreateOrGet(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, again)

	// Another user's conversation id is not reused.
	other, err := s.CreateOrGet(ctx, "u2", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "conv_u2_1700000000", other.ID)

	unknown, err := s.CreateOrGet(ctx, "u1", "conv_missing")
	require.NoError(t, err)
	assert.Equal(t, c.ID, unknown.ID)
}

func TestMemoryStore_History(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Unix(1700000000, 0))
	c, err := s.CreateOrGet(ctx, "u1", "")
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		require.NoError(t, s.AppendMessage(ctx, c.ID, Message{Role: role, Content: fmt.Sprintf("m%d", i)}))
	}

	hist, err := s.History(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 10)
	assert.Equal(t, "m2", hist[0].Content)
	assert.Equal(t, "m11", hist[9].Content)
	assert.NotEmpty(t, hist[0].ID)
	assert.False(t, hist[0].Timestamp.IsZero())

	all, err := s.History(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 12)

	empty, err := s.History(ctx, "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_AppendUnknownConversation(t *testing.T) {
	s := NewMemoryStore()
	err := s.AppendMessage(context.Background(), "nope", Message{Role: RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UserContext(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	uc, err := s.UserContext(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, uc)

	require.NoError(t, s.UpdateUserContext(ctx, "u1", ContextCommunicationStyle, map[string]any{"preferred_style": "brief"}))
	require.NoError(t, s.UpdateUserContext(ctx, "u1", ContextCommunicationStyle, map[string]any{"preferred_style": "detailed"}))

	uc, err = s.UserContext(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, uc, 1)
	assert.Equal(t, "detailed", uc[ContextCommunicationStyle]["preferred_style"])

	// Returned documents are copies.
	uc[ContextCommunicationStyle]["preferred_style"] = "mutated"
	again, _ := s.UserContext(ctx, "u1")
	assert.Equal(t, "detailed", again[ContextCommunicationStyle]["preferred_style"])
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c, err := s.CreateOrGet(ctx, "u1", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.AppendMessage(ctx, c.ID, Message{Role: RoleUser, Content: fmt.Sprint(i)})
			_, _ = s.History(ctx, c.ID, 5)
		}(i)
	}
	wg.Wait()

	hist, err := s.History(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, hist, 50)
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No previous conversation", FormatHistory(nil, 5))

	hist := []Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
		{Role: RoleUser, Content: "c"},
	}
	assert.Equal(t, "User: a\nJia: b\nUser: c", FormatHistory(hist, 5))
	assert.Equal(t, "Jia: b\nUser: c", FormatHistory(hist, 2))
}
