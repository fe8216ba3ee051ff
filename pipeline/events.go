package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coverscope/docintel/core"
)

// Event types published at stage boundaries and status transitions.
const (
	EventProcessingStarted = "document.processing"
	EventChunked           = "document.chunked"
	EventEmbedded          = "document.embedded"
	EventClassified        = "document.classified"
	EventExtracted         = "document.extracted"
	EventCompleted         = "document.completed"
	EventNeedsReview       = "document.needs_review"
	EventFailed            = "document.failed"
	EventReprocessQueued   = "document.reprocess_queued"
)

// Event is one status or progress notification.
type Event struct {
	Id         uuid.UUID
	Type       string
	DocumentId core.ID
	Payload    map[string]any
	Timestamp  time.Time
}

// newEvent stamps an event with a fresh ID and the current time.
func newEvent(eventType string, documentID core.ID, payload map[string]any) Event {
	return Event{
		Id:         uuid.New(),
		Type:       eventType,
		DocumentId: documentID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

// noopPublisher drops all events. Used when no publisher is configured.
type noopPublisher struct{}

func (noopPublisher) PublishEvent(ctx context.Context, event Event) {}
