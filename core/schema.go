package core

import (
	"time"
)

// Event represents a security event submitted for evaluation against rules.
// It is constructed by the boundary layer and treated as immutable once
// handed to the engine.
type Event struct {
	Type       string         `json:"type"`
	Data       map[string]any `json:"data"`
	Source     string         `json:"source"`
	Priority   string         `json:"priority"`
	ReceivedAt time.Time      `json:"received_at"`
}

// NewEvent creates an Event with boundary defaults applied: empty source
// becomes "unknown", empty priority becomes "normal", and ReceivedAt is
// stamped with the current UTC time.
func NewEvent(eventType string, data map[string]any, source, priority string) *Event {
	if source == "" {
		source = "unknown"
	}
	if priority == "" {
		priority = "normal"
	}
	return &Event{
		Type:       eventType,
		Data:       data,
		Source:     source,
		Priority:   priority,
		ReceivedAt: time.Now().UTC(),
	}
}

// Validate checks the fields required before rule matching may run.
// A missing type or missing data payload makes the event malformed.
func (e *Event) Validate() error {
	if e == nil {
		return NewValidationError("event", "event is required")
	}
	if e.Type == "" {
		return NewValidationError("type", "missing required field: type")
	}
	if e.Data == nil {
		return NewValidationError("data", "missing required field: data")
	}
	return nil
}
