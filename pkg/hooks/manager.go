// Package hooks runs user shell scripts when plugins reach named milestones,
// for example when attribution starts for a session.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/sessionhooks/internal/config"
)

// Event names scripts can bind to
const (
	EventAttributionSessionStart = "attribution:session_start"
	EventAttributionFileTracked  = "attribution:file_tracked"
)

const envPrefix = "SESSIONHOOKS_HOOK_"

// Hook binds a script to an event.
type Hook struct {
	ID      string
	Event   string
	Script  string
	Timeout time.Duration
	Enabled bool
}

// Config configures a hook Manager.
type Config struct {
	Enabled bool
	Hooks   []Hook
	Logger  zerolog.Logger
}

// Payload is what a trigger hands to scripts: event data exposed as
// SESSIONHOOKS_HOOK_DATA_<KEY> and extra variables exported verbatim.
type Payload struct {
	Data map[string]any
	Env  map[string]string
}

// Manager executes configured hooks.
type Manager struct {
	enabled      bool
	logger       zerolog.Logger
	hooksByEvent map[string][]Hook
}

// NewManager creates a hook manager.
func NewManager(cfg Config) (*Manager, error) {
	manager := &Manager{
		enabled:      cfg.Enabled,
		logger:       cfg.Logger.With().Str("component", "hooks").Logger(),
		hooksByEvent: make(map[string][]Hook),
	}

	if !cfg.Enabled {
		return manager, nil
	}

	for _, hook := range cfg.Hooks {
		if !hook.Enabled {
			continue
		}
		event := strings.TrimSpace(hook.Event)
		if event == "" {
			return nil, fmt.Errorf("hook event is required")
		}
		if strings.TrimSpace(hook.Script) == "" {
			return nil, fmt.Errorf("hook script is required for event %q", event)
		}
		hook.Event = event
		manager.hooksByEvent[event] = append(manager.hooksByEvent[event], hook)
	}

	return manager, nil
}

// FromConfig builds a manager from the hooks section of the config file.
func FromConfig(cfg config.HooksConfig, logger zerolog.Logger) (*Manager, error) {
	hooks := make([]Hook, 0, len(cfg.Entries))
	for _, entry := range cfg.Entries {
		hooks = append(hooks, Hook{
			ID:      entry.ID,
			Event:   entry.Event,
			Script:  entry.Script,
			Timeout: time.Duration(entry.TimeoutMs) * time.Millisecond,
			Enabled: entry.Enabled,
		})
	}
	return NewManager(Config{Enabled: cfg.Enabled, Hooks: hooks, Logger: logger})
}

// Has reports whether any script is bound to event.
func (m *Manager) Has(event string) bool {
	if m == nil || !m.enabled {
		return false
	}
	return len(m.hooksByEvent[strings.TrimSpace(event)]) > 0
}

// Trigger runs every script bound to event in configuration order. Failures
// do not stop later scripts; they are joined into the returned error.
func (m *Manager) Trigger(ctx context.Context, event string, payload Payload) error {
	if m == nil || !m.enabled {
		return nil
	}
	event = strings.TrimSpace(event)
	if event == "" {
		return fmt.Errorf("event is required")
	}

	hooks := m.hooksByEvent[event]
	if len(hooks) == 0 {
		return nil
	}

	env := buildHookEnvironment(event, payload)

	var errs []error
	for _, hook := range hooks {
		if err := m.executeHook(ctx, event, hook, env); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *Manager) executeHook(ctx context.Context, event string, hook Hook, env []string) error {
	hookID := hook.ID
	if strings.TrimSpace(hookID) == "" {
		hookID = event
	}

	runCtx := ctx
	cancel := func() {}
	if hook.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, hook.Timeout)
	}
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", hook.Script)
	cmd.Env = env

	output, err := cmd.CombinedOutput()
	outputText := strings.TrimSpace(string(output))
	if err != nil {
		if outputText != "" {
			return fmt.Errorf("hook %s failed: %w: %s", hookID, err, outputText)
		}
		return fmt.Errorf("hook %s failed: %w", hookID, err)
	}

	m.logger.Debug().
		Str("event", event).
		Str("hook_id", hookID).
		Dur("duration", time.Since(start)).
		Str("output", outputText).
		Msg("Hook executed")

	return nil
}

func buildHookEnvironment(event string, payload Payload) []string {
	env := append([]string{}, os.Environ()...)
	env = append(env, envPrefix+"EVENT="+event)

	env = append(env, sortedPairs(len(payload.Data), func(yield func(string, string)) {
		for key, value := range payload.Data {
			yield(envPrefix+"DATA_"+normalizeEnvKey(key), fmt.Sprintf("%v", value))
		}
	})...)

	env = append(env, sortedPairs(len(payload.Env), func(yield func(string, string)) {
		for key, value := range payload.Env {
			yield(key, value)
		}
	})...)

	return env
}

// sortedPairs collects KEY=value pairs and sorts them so scripts see a stable order
func sortedPairs(n int, each func(yield func(string, string))) []string {
	if n == 0 {
		return nil
	}
	pairs := make([]string, 0, n)
	each(func(k, v string) {
		pairs = append(pairs, k+"="+v)
	})
	sort.Strings(pairs)
	return pairs
}

func normalizeEnvKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "UNKNOWN"
	}

	upper := strings.ToUpper(key)
	builder := strings.Builder{}
	builder.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			continue
		}
		builder.WriteRune('_')
	}
	return builder.String()
}
