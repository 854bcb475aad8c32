package host

import "context"

// Client is the request/response surface the host offers plugins
type Client interface {
	// GetSession returns session metadata (session.get)
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// SessionMessages returns the session's messages in order (session.messages)
	SessionMessages(ctx context.Context, sessionID string) ([]Message, error)

	// UpdateSessionTitle renames a session (session.update)
	UpdateSessionTitle(ctx context.Context, sessionID, title string) error

	// Log writes to the host's application log (app.log)
	Log(ctx context.Context, entry LogEntry) error
}
