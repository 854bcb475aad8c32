package host

import (
	"encoding/json"
	"fmt"
)

// Event types the plugins react to
const (
	EventSessionCreated     = "session.created"
	EventSessionDeleted     = "session.deleted"
	EventSessionIdle        = "session.idle"
	EventSessionStatus      = "session.status"
	EventMessageUpdated     = "message.updated"
	EventMessagePartUpdated = "message.part.updated"
	EventServerConnected    = "server.connected"

	// HookToolExecuteAfter names the tool completion hook
	HookToolExecuteAfter = "tool.execute.after"
)

// Event is a host bus event
type Event struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// NewEvent builds an event from a type and a properties value
func NewEvent(eventType string, properties any) (Event, error) {
	evt := Event{Type: eventType}
	if properties == nil {
		return evt, nil
	}
	data, err := json.Marshal(properties)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s properties: %w", eventType, err)
	}
	evt.Properties = data
	return evt, nil
}

// Decode unmarshals the event properties into v
func (e Event) Decode(v any) error {
	if len(e.Properties) == 0 {
		return fmt.Errorf("event %s has no properties", e.Type)
	}
	if err := json.Unmarshal(e.Properties, v); err != nil {
		return fmt.Errorf("failed to decode %s properties: %w", e.Type, err)
	}
	return nil
}

type eventPeek struct {
	SessionID string `json:"sessionID"`
	Info      *struct {
		ID        string `json:"id"`
		SessionID string `json:"sessionID"`
	} `json:"info"`
	Part *struct {
		SessionID string `json:"sessionID"`
	} `json:"part"`
	Status *struct {
		Type string `json:"type"`
	} `json:"status"`
}

func (e Event) peek() eventPeek {
	var p eventPeek
	if len(e.Properties) > 0 {
		_ = json.Unmarshal(e.Properties, &p)
	}
	return p
}

// SessionID extracts the session an event refers to, or "" when it has none.
func (e Event) SessionID() string {
	p := e.peek()
	if p.SessionID != "" {
		return p.SessionID
	}
	if p.Info != nil {
		if p.Info.SessionID != "" {
			return p.Info.SessionID
		}
		// session.* events carry the session itself as info
		if e.Type == EventSessionCreated || e.Type == EventSessionDeleted || e.Type == "session.updated" {
			return p.Info.ID
		}
	}
	if p.Part != nil {
		return p.Part.SessionID
	}
	return ""
}

// IsIdle reports whether the event signals that a session went idle, either as
// session.idle or as session.status with status type "idle".
func (e Event) IsIdle() bool {
	switch e.Type {
	case EventSessionIdle:
		return true
	case EventSessionStatus:
		p := e.peek()
		return p.Status != nil && p.Status.Type == "idle"
	default:
		return false
	}
}

// IsStatusIdle reports only the session.status form of idleness
func (e Event) IsStatusIdle() bool {
	return e.Type == EventSessionStatus && e.IsIdle()
}

// MessageUpdatedProperties is the payload of message.updated
type MessageUpdatedProperties struct {
	Info    *MessageInfo `json:"info,omitempty"`
	Message *struct {
		Model string `json:"model,omitempty"`
	} `json:"message,omitempty"`
}

// PartUpdatedProperties is the payload of message.part.updated
type PartUpdatedProperties struct {
	Part  Part   `json:"part"`
	Delta string `json:"delta,omitempty"`
}
