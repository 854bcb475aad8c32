package host

import (
	"context"

	"github.com/rs/zerolog"
)

// Input is handed to a plugin factory when the bus starts
type Input struct {
	Client    Client
	Directory string
	Logger    zerolog.Logger
}

// ToolInput describes a finished tool call
type ToolInput struct {
	Tool      string         `json:"tool"`
	SessionID string         `json:"sessionID"`
	CallID    string         `json:"callID"`
	Args      map[string]any `json:"args,omitempty"`
}

// ToolOutput is the result of a finished tool call. Error is empty on success.
type ToolOutput struct {
	Title    string         `json:"title,omitempty"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StringArg returns the first non-empty string argument among keys
func (in ToolInput) StringArg(keys ...string) string {
	for _, key := range keys {
		if v, ok := in.Args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// EventHook handles a bus event
type EventHook func(ctx context.Context, evt Event) error

// ToolHook handles tool.execute.after
type ToolHook func(ctx context.Context, in ToolInput, out *ToolOutput) error

// Hooks are the handlers a plugin registers; nil hooks are skipped
type Hooks struct {
	Event            EventHook
	ToolExecuteAfter ToolHook
}

// Plugin is a plugin factory. It is called once when the bus starts.
type Plugin func(ctx context.Context, in Input) (*Hooks, error)
