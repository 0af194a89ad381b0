// Package events defines the engagement events the services publish after a write commits.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"photofeed/internal/metrics"
)

// Type names an engagement event.
type Type string

const (
	LikeCreated    Type = "like.created"
	LikeDeleted    Type = "like.deleted"
	CommentCreated Type = "comment.created"
	CommentDeleted Type = "comment.deleted"
	PostDeleted    Type = "post.deleted"
)

// Event is the payload written to the broker. PostID doubles as the partition key
// so events for one post stay ordered.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	PostID     int64     `json:"post_id"`
	UserID     string    `json:"user_id"`
	CommentID  int64     `json:"comment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, postID int64, userID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		PostID:     postID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher hands events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit publishes e and logs a failure instead of returning it; the write it
// describes has already committed.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	err := p.Publish(ctx, e)
	metrics.EventsPublished.WithLabelValues(string(e.Type), metrics.Outcome(err)).Inc()
	if err != nil {
		slog.Warn("event publish failed", "type", e.Type, "post_id", e.PostID, "error", err)
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []Type {
	var out []Type
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}
