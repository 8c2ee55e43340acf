package entities

import (
	"time"

	"github.com/google/uuid"
)

// ListEventType represents the type of list event
type ListEventType string

const (
	// ListEventTypeInvalidate marks every cached page of a list stale
	ListEventTypeInvalidate ListEventType = "invalidate"
	// ListEventTypeRowsChanged is published after rows of a list were written
	ListEventTypeRowsChanged ListEventType = "rows_changed"
)

// ListEvent tells every instance that the data behind a list changed
type ListEvent struct {
	ID        string        `json:"id"`
	ListID    string        `json:"list_id"`
	EventType ListEventType `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	Source    string        `json:"source,omitempty"`
}

// NewListEvent creates a new list event
func NewListEvent(listID string, eventType ListEventType, source string) *ListEvent {
	return &ListEvent{
		ID:        generateEventID(),
		ListID:    listID,
		EventType: eventType,
		Timestamp: time.Now(),
		Source:    source,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return uuid.NewString()
}
