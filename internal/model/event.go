package model

// EventType discriminates stream events on the wire.
type EventType string

const (
	EventStatus   EventType = "status"
	EventContent  EventType = "content"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// StreamEvent is one frame pushed to the client. Only the fields relevant to
// Type are serialized.
type StreamEvent struct {
	Type       EventType `json:"type"`
	Message    string    `json:"message,omitempty"`
	Content    string    `json:"content,omitempty"`
	IsComplete *bool     `json:"isComplete,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func StatusEvent(message string) StreamEvent {
	return StreamEvent{Type: EventStatus, Message: message}
}

func ContentEvent(content string, isComplete bool) StreamEvent {
	return StreamEvent{Type: EventContent, Content: content, IsComplete: &isComplete}
}

func CompleteEvent() StreamEvent {
	return StreamEvent{Type: EventComplete}
}

func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Error: message}
}

// IsTerminal reports whether no event may follow e.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
