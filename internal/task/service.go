package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/events"
)

const defaultPriority = "medium"

// Service implements task CRUD and publishes lifecycle events.
type Service struct {
	store     Store
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a task service. A nil publisher discards events and
// a nil logger disables logging.
func NewService(store Store, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// Create validates and stores a new task, assigning id, defaults and
// timestamps.
func (s *Service) Create(ctx context.Context, t Task) (Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if t.UserID == "" {
		return Task{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if !t.Status.Valid() {
		return Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, t.Status)
	}
	if t.Priority == "" {
		t.Priority = defaultPriority
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt

	created, err := s.store.Create(ctx, t)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	s.publish(ctx, events.SubjectTaskCreated, created)
	return created, nil
}

// Get returns a task by id.
func (s *Service) Get(ctx context.Context, id string) (Task, error) {
	return s.store.Get(ctx, id)
}

// ListByUser returns every task owned by userID.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Task, error) {
	return s.store.ListByUser(ctx, userID)
}

// Update applies a partial update and refreshes UpdatedAt.
func (s *Service) Update(ctx context.Context, id string, u Update) (Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	u.apply(&t)

	if strings.TrimSpace(t.Title) == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !t.Status.Valid() {
		return Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, t.Status)
	}
	t.UpdatedAt = s.now()

	if err := s.store.Put(ctx, t); err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	s.publish(ctx, events.SubjectTaskUpdated, t)
	return t, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.SubjectTaskDeleted, map[string]string{"id": id, "user_id": t.UserID})
	return nil
}

// publish logs failures; events are best effort.
func (s *Service) publish(ctx context.Context, subject string, data any) {
	if err := s.publisher.Publish(ctx, subject, data); err != nil {
		s.logger.Warn("failed to publish task event",
			zap.String("subject", subject),
			zap.Error(err))
	}
}
