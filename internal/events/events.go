// Package events publishes domain events (task lifecycle, integration
// callbacks) to NATS.
//
// Events are JSON envelopes published to subjects of the form:
//   - {prefix}.tasks.created
//   - {prefix}.tasks.updated
//   - {prefix}.tasks.deleted
//   - {prefix}.integrations.google.calendar_changed
//   - {prefix}.integrations.slack.message
//   - {prefix}.integrations.slack.reaction_added
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event subjects, relative to the publisher prefix.
const (
	SubjectTaskCreated     = "tasks.created"
	SubjectTaskUpdated     = "tasks.updated"
	SubjectTaskDeleted     = "tasks.deleted"
	SubjectCalendarChanged = "integrations.google.calendar_changed"
	SubjectSlackMessage    = "integrations.slack.message"
	SubjectSlackReaction   = "integrations.slack.reaction_added"
)

// DefaultPrefix is prepended to every subject.
const DefaultPrefix = "jipange"

// Envelope wraps an event payload.
type Envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// Publisher publishes events.
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher publishes envelopes on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	now    func() time.Time
}

// NewNATSPublisher creates a publisher. An empty prefix uses DefaultPrefix.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix, now: time.Now}
}

// Publish marshals data into an Envelope and publishes it to
// {prefix}.{subject}.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := NewEnvelope(subject, data, p.now())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := p.nc.Publish(p.prefix+"."+subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subject returns the fully qualified subject for subject.
func (p *NATSPublisher) Subject(subject string) string {
	return p.prefix + "." + subject
}

// NewEnvelope wraps data for subject.
func NewEnvelope(subject string, data any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return Envelope{ID: uuid.NewString(), Type: subject, Time: at.UTC(), Data: raw}, nil
}

// NopPublisher discards events. Used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, subject string, data any) error {
	env, err := NewEnvelope(subject, data, time.Now())
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.events = append(r.events, env)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded envelopes.
func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NopPublisher{}
	_ Publisher = (*Recorder)(nil)
)
