package host

import "sync"

// ToolTracker turns terminal tool parts from message.part.updated into single
// tool completions. The host re-sends a part on every state change, so call IDs
// are remembered per session until the session is deleted.
type ToolTracker struct {
	mu   sync.Mutex
	seen map[string]map[string]struct{} // sessionID -> callIDs
}

// NewToolTracker creates an empty tracker
func NewToolTracker() *ToolTracker {
	return &ToolTracker{seen: make(map[string]map[string]struct{})}
}

// Observe inspects a message.part.updated event. It returns the tool input and
// output the first time a call ID reaches completed or error.
func (t *ToolTracker) Observe(evt Event) (ToolInput, *ToolOutput, bool) {
	if evt.Type != EventMessagePartUpdated {
		return ToolInput{}, nil, false
	}

	var props PartUpdatedProperties
	if err := evt.Decode(&props); err != nil {
		return ToolInput{}, nil, false
	}

	part := props.Part
	if part.Type != PartTypeTool || part.State == nil || part.CallID == "" {
		return ToolInput{}, nil, false
	}
	if part.State.Status != ToolStatusCompleted && part.State.Status != ToolStatusError {
		return ToolInput{}, nil, false
	}
	if !t.Claim(part.SessionID, part.CallID) {
		return ToolInput{}, nil, false
	}

	in := ToolInput{
		Tool:      part.Tool,
		SessionID: part.SessionID,
		CallID:    part.CallID,
		Args:      part.State.Input,
	}
	out := &ToolOutput{
		Title:    part.State.Title,
		Output:   part.State.Output,
		Metadata: part.State.Metadata,
	}
	if part.State.Status == ToolStatusError {
		out.Error = part.State.Error
		if out.Error == "" {
			out.Error = "tool failed"
		}
	}
	return in, out, true
}

// Claim marks a call ID as delivered. It returns false if it already was.
func (t *ToolTracker) Claim(sessionID, callID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	calls, ok := t.seen[sessionID]
	if !ok {
		calls = make(map[string]struct{})
		t.seen[sessionID] = calls
	}
	if _, dup := calls[callID]; dup {
		return false
	}
	calls[callID] = struct{}{}
	return true
}

// Forget drops the call IDs remembered for a session
func (t *ToolTracker) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, sessionID)
}

// Len returns the number of remembered call IDs
func (t *ToolTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, calls := range t.seen {
		n += len(calls)
	}
	return n
}
