package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps tasks in a map guarded by a RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]Task)}
}

func (s *MemoryStore) Create(_ context.Context, t Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return Task{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidInput, t.ID)
	}
	s.tasks[t.ID] = clone(t)
	return clone(t), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Task, error) {
	s.mu.RLock()
	t, ok := s.tasks[id]
	s.mu.RUnlock()

	if !ok {
		return Task{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return clone(t), nil
}

// ListByUser returns the user's tasks, oldest first.
func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0)
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return fmt.Errorf("put %s: %w", t.ID, ErrNotFound)
	}
	s.tasks[t.ID] = clone(t)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.tasks, id)
	return nil
}

func clone(t Task) Task {
	t.Tags = append([]string{}, t.Tags...)
	if t.EstimatedDuration != nil {
		d := *t.EstimatedDuration
		t.EstimatedDuration = &d
	}
	return t
}

var _ Store = (*MemoryStore)(nil)
