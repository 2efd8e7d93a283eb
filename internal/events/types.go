// Package events provides event types and publishing infrastructure for techo.
package events

import (
	"time"
)

// EventType defines the kind of change an event describes.
type EventType string

const (
	// EventCreated indicates a record was created.
	EventCreated EventType = "created"
	// EventUpdated indicates a record was modified.
	EventUpdated EventType = "updated"
	// EventDeleted indicates a record was deleted.
	EventDeleted EventType = "deleted"
	// EventReordered indicates a list's sort order changed.
	EventReordered EventType = "reordered"
)

// Event represents a published change to one resource.
type Event struct {
	Type     EventType `json:"type"`
	Resource string    `json:"resource"`
	ID       string    `json:"id,omitempty"`
	Data     any       `json:"data,omitempty"`
	Time     time.Time `json:"time"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, resource, id string, data any) Event {
	return Event{
		Type:     eventType,
		Resource: resource,
		ID:       id,
		Data:     data,
		Time:     time.Now(),
	}
}
