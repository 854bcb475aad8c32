package attribution

import (
	"strings"
	"sync"
	"time"
)

const (
	tagSuffixLen     = 8
	unknownSessionID = "unknown"
)

// SessionTag derives the attribution tag YYYYMMDD-HHMMSS-<last 8 characters of
// the session ID>. Date and time are both taken from t in its own location.
func SessionTag(sessionID string, t time.Time) string {
	if sessionID == "" {
		sessionID = unknownSessionID
	}
	suffix := []rune(sessionID)
	if len(suffix) > tagSuffixLen {
		suffix = suffix[len(suffix)-tagSuffixLen:]
	}
	return t.Format("20060102") + "-" + t.Format("150405") + "-" + string(suffix)
}

// ModelName returns the model part of a provider/model identifier
func ModelName(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

// Tracker holds the current attribution session: its tag and the files
// modified so far, in first-touch order.
type Tracker struct {
	mu    sync.Mutex
	now   func() time.Time
	tag   string
	files []string
	seen  map[string]struct{}
}

// NewTracker creates a tracker. now defaults to time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, seen: make(map[string]struct{})}
}

// Begin starts an attribution session unless one is active. It returns the
// session tag and whether this call started it.
func (t *Tracker) Begin(sessionID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tag != "" {
		return t.tag, false
	}
	t.tag = SessionTag(sessionID, t.now())
	return t.tag, true
}

// Track records a modified file and returns the comma-joined file list
func (t *Tracker) Track(path string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[path]; !ok {
		t.seen[path] = struct{}{}
		t.files = append(t.files, path)
	}
	return strings.Join(t.files, ",")
}

// Tag returns the active session tag, or "" when none is active
func (t *Tracker) Tag() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tag
}

// Files returns the tracked files in first-touch order
func (t *Tracker) Files() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.files...)
}

// Reset clears the tag and the file list
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tag = ""
	t.files = nil
	t.seen = make(map[string]struct{})
}
