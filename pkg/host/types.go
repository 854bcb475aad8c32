package host

import "strings"

// Role values carried by MessageInfo.Role
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Part types and tool states used by the plugins
const (
	PartTypeText = "text"
	PartTypeTool = "tool"

	ToolStatusPending   = "pending"
	ToolStatusRunning   = "running"
	ToolStatusCompleted = "completed"
	ToolStatusError     = "error"
)

// Session is the host's view of a conversation
type Session struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	ParentID  string      `json:"parentID,omitempty"`
	Directory string      `json:"directory,omitempty"`
	ProjectID string      `json:"projectID,omitempty"`
	Time      SessionTime `json:"time"`
}

// SessionTime holds unix millisecond timestamps
type SessionTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

// IsSubagent reports whether the session was spawned by another session
func (s *Session) IsSubagent() bool {
	return s != nil && strings.TrimSpace(s.ParentID) != ""
}

// MessageInfo is the metadata half of a message
type MessageInfo struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	SessionID  string `json:"sessionID"`
	ModelID    string `json:"modelID,omitempty"`
	ProviderID string `json:"providerID,omitempty"`
}

// Message is a message with its parts
type Message struct {
	Info  MessageInfo `json:"info"`
	Parts []Part      `json:"parts"`
}

// Part is one piece of a message: text, tool call, file, ...
type Part struct {
	ID        string     `json:"id,omitempty"`
	SessionID string     `json:"sessionID,omitempty"`
	MessageID string     `json:"messageID,omitempty"`
	Type      string     `json:"type"`
	Text      string     `json:"text,omitempty"`
	Synthetic bool       `json:"synthetic,omitempty"`
	Tool      string     `json:"tool,omitempty"`
	CallID    string     `json:"callID,omitempty"`
	State     *ToolState `json:"state,omitempty"`
}

// ToolState is the lifecycle state of a tool part
type ToolState struct {
	Status   string         `json:"status"`
	Input    map[string]any `json:"input,omitempty"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Title    string         `json:"title,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Log levels accepted by Client.Log
const (
	LogDebug = "debug"
	LogInfo  = "info"
	LogWarn  = "warn"
	LogError = "error"
)

// LogEntry is written to the host's application log
type LogEntry struct {
	Service string         `json:"service"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// FirstUserMessage returns the first message authored by the user
func FirstUserMessage(messages []Message) (Message, bool) {
	for _, msg := range messages {
		if msg.Info.Role == RoleUser {
			return msg, true
		}
	}
	return Message{}, false
}

// TextOnly joins the non-synthetic text parts of a message with newlines
func TextOnly(parts []Part) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if part.Type != PartTypeText || part.Synthetic {
			continue
		}
		texts = append(texts, part.Text)
	}
	return strings.Join(texts, "\n")
}

// FirstUserText returns the text of the first user message, or "" when there is none
func FirstUserText(messages []Message) string {
	msg, ok := FirstUserMessage(messages)
	if !ok {
		return ""
	}
	return TextOnly(msg.Parts)
}
