// Package hosttest provides an in-memory host.Client for plugin tests.
package hosttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/harun/sessionhooks/pkg/host"
)

// Client is an in-memory host.Client
type Client struct {
	mu sync.Mutex

	Sessions map[string]*host.Session
	Messages map[string][]host.Message
	Logs     []host.LogEntry
	Updates  []TitleUpdate

	// Error injection
	GetErr      error
	MessagesErr error
	UpdateErr   error
	LogErr      error

	GetCalls      int
	MessagesCalls int
}

// TitleUpdate records one UpdateSessionTitle call
type TitleUpdate struct {
	SessionID string
	Title     string
}

// NewClient creates an empty fake client
func NewClient() *Client {
	return &Client{
		Sessions: make(map[string]*host.Session),
		Messages: make(map[string][]host.Message),
	}
}

// AddSession stores a session and its messages
func (c *Client) AddSession(s host.Session, messages ...host.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := s
	c.Sessions[s.ID] = &cp
	c.Messages[s.ID] = messages
}

// UserMessage builds a user message with a single text part
func UserMessage(sessionID, text string) host.Message {
	return host.Message{
		Info:  host.MessageInfo{ID: "msg_" + sessionID, Role: host.RoleUser, SessionID: sessionID},
		Parts: []host.Part{{Type: host.PartTypeText, Text: text}},
	}
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*host.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	s, ok := c.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	cp := *s
	return &cp, nil
}

func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]host.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MessagesCalls++
	if c.MessagesErr != nil {
		return nil, c.MessagesErr
	}
	return c.Messages[sessionID], nil
}

func (c *Client) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.UpdateErr != nil {
		return c.UpdateErr
	}
	c.Updates = append(c.Updates, TitleUpdate{SessionID: sessionID, Title: title})
	if s, ok := c.Sessions[sessionID]; ok {
		s.Title = title
	}
	return nil
}

func (c *Client) Log(ctx context.Context, entry host.LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LogErr != nil {
		return c.LogErr
	}
	c.Logs = append(c.Logs, entry)
	return nil
}

// TitleUpdates returns a copy of the recorded title updates
func (c *Client) TitleUpdates() []TitleUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TitleUpdate(nil), c.Updates...)
}

// LogEntries returns a copy of the recorded log entries
func (c *Client) LogEntries() []host.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]host.LogEntry(nil), c.Logs...)
}

// Event builds a host event, failing the test helper on encode errors
func Event(eventType string, properties any) host.Event {
	evt, err := host.NewEvent(eventType, properties)
	if err != nil {
		panic(err)
	}
	return evt
}

// IdleEvent returns a session.idle event
func IdleEvent(sessionID string) host.Event {
	return Event(host.EventSessionIdle, map[string]any{"sessionID": sessionID})
}

// StatusIdleEvent returns a session.status event with status idle
func StatusIdleEvent(sessionID string) host.Event {
	return Event(host.EventSessionStatus, map[string]any{
		"sessionID": sessionID,
		"status":    map[string]any{"type": "idle"},
	})
}

// ToolPartEvent returns a message.part.updated event for a tool part
func ToolPartEvent(sessionID, callID, tool, status string, input map[string]any) host.Event {
	return Event(host.EventMessagePartUpdated, map[string]any{
		"part": host.Part{
			ID:        "prt_" + callID,
			SessionID: sessionID,
			Type:      host.PartTypeTool,
			Tool:      tool,
			CallID:    callID,
			State:     &host.ToolState{Status: status, Input: input},
		},
	})
}
