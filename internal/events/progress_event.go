package events

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEvent is one step notification for a ticket's pipeline run.
// Progress is a percentage in [0,100] and never decreases within one
// ticket's event sequence. Exactly one terminal event is ever published
// per ticket: Complete true on success, Error set on failure.
type ProgressEvent struct {
	ID        string    `json:"id"`
	Step      string    `json:"step"`
	Progress  int       `json:"progress"`
	Complete  bool      `json:"complete"`
	Error     string    `json:"error,omitempty"`
	PRURL     string    `json:"pr_url,omitempty"`
	Keepalive bool      `json:"keepalive,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Terminal reports whether this event ends the ticket's sequence.
// Keepalive heartbeats are never terminal.
func (e ProgressEvent) Terminal() bool {
	return !e.Keepalive && (e.Complete || e.Error != "")
}

// NewProgress creates a step notification.
func NewProgress(step string, progress int) ProgressEvent {
	return ProgressEvent{
		ID:        uuid.NewString(),
		Step:      step,
		Progress:  progress,
		Timestamp: time.Now(),
	}
}

// NewComplete creates the terminal success event.
func NewComplete(step string, prURL string) ProgressEvent {
	evt := NewProgress(step, 100)
	evt.Complete = true
	evt.PRURL = prURL
	return evt
}

// NewFailure creates the terminal failure event. The progress value should
// be the percentage of the failing stage so subscribers never observe a
// decreasing sequence.
func NewFailure(step string, progress int, errMsg string) ProgressEvent {
	evt := NewProgress(step, progress)
	evt.Error = errMsg
	return evt
}

// newKeepalive creates an idle heartbeat. Heartbeats are delivered outside
// the ordered buffer and carry no progress information.
func newKeepalive() ProgressEvent {
	return ProgressEvent{
		ID:        uuid.NewString(),
		Keepalive: true,
		Timestamp: time.Now(),
	}
}
