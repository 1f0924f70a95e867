// Package task manages persisted user tasks.
package task

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("task not found")
	ErrInvalidInput = errors.New("invalid task")
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Task is a stored task.
type Task struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Priority          string    `json:"priority"`
	Status            Status    `json:"status"`
	DueDate           string    `json:"due_date,omitempty"`
	EstimatedDuration *int      `json:"estimated_duration,omitempty"`
	Tags              []string  `json:"tags"`
	UserID            string    `json:"user_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Update is a partial update; nil fields are left unchanged.
type Update struct {
	Title             *string   `json:"title,omitempty"`
	Description       *string   `json:"description,omitempty"`
	Priority          *string   `json:"priority,omitempty"`
	Status            *Status   `json:"status,omitempty"`
	DueDate           *string   `json:"due_date,omitempty"`
	EstimatedDuration *int      `json:"estimated_duration,omitempty"`
	Tags              *[]string `json:"tags,omitempty"`
}

func (u Update) apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	if u.EstimatedDuration != nil {
		d := *u.EstimatedDuration
		t.EstimatedDuration = &d
	}
	if u.Tags != nil {
		t.Tags = append([]string{}, (*u.Tags)...)
	}
}

// Store persists tasks.
type Store interface {
	Create(ctx context.Context, t Task) (Task, error)
	Get(ctx context.Context, id string) (Task, error)
	ListByUser(ctx context.Context, userID string) ([]Task, error)
	Put(ctx context.Context, t Task) error
	Delete(ctx context.Context, id string) error
}
