package attribution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/sessionhooks/internal/metrics"
	"github.com/harun/sessionhooks/internal/tracing"
	"github.com/harun/sessionhooks/pkg/hooks"
	"github.com/harun/sessionhooks/pkg/host"
)

// ServiceName is the service reported in host log entries
const ServiceName = "ai-attribution"

// Options configures the attribution plugin
type Options struct {
	Tool         string   // AI_TOOL, default "opencode"
	Contribution string   // AI_CONTRIBUTION, default "partial"
	Tools        []string // host tools that modify files, default edit and write
	EnvFile      string   // optional dotenv mirror of the variables

	Env     Environment    // default ProcessEnv
	Hooks   *hooks.Manager // optional
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// DefaultTools are the host tools that modify files
var DefaultTools = []string{"edit", "write"}

type plugin struct {
	client  host.Client
	logger  zerolog.Logger
	tracker *Tracker
	tools   map[string]struct{}
	sinks   []Environment
	hooks   *hooks.Manager
	metrics *metrics.Metrics

	tool         string
	contribution string

	mu   sync.Mutex
	vars map[string]string
}

// NewPlugin returns the attribution plugin factory
func NewPlugin(opts Options) host.Plugin {
	return func(ctx context.Context, in host.Input) (*host.Hooks, error) {
		p := newPlugin(opts, in)
		return &host.Hooks{
			Event:            p.handleEvent,
			ToolExecuteAfter: p.handleToolAfter,
		}, nil
	}
}

func newPlugin(opts Options, in host.Input) *plugin {
	if opts.Tool == "" {
		opts.Tool = "opencode"
	}
	if opts.Contribution == "" {
		opts.Contribution = "partial"
	}
	if len(opts.Tools) == 0 {
		opts.Tools = DefaultTools
	}
	if opts.Env == nil {
		opts.Env = ProcessEnv{}
	}

	tools := make(map[string]struct{}, len(opts.Tools))
	for _, name := range opts.Tools {
		tools[name] = struct{}{}
	}

	sinks := []Environment{opts.Env}
	if f := newEnvFile(opts.EnvFile); f != nil {
		sinks = append(sinks, f)
	}

	return &plugin{
		client:       in.Client,
		logger:       in.Logger,
		tracker:      NewTracker(opts.Now),
		tools:        tools,
		sinks:        sinks,
		hooks:        opts.Hooks,
		metrics:      opts.Metrics,
		tool:         opts.Tool,
		contribution: opts.Contribution,
		vars:         make(map[string]string),
	}
}

func (p *plugin) handleEvent(ctx context.Context, evt host.Event) error {
	switch evt.Type {
	case host.EventSessionCreated, host.EventSessionDeleted:
		p.tracker.Reset()
	case host.EventMessageUpdated:
		var props host.MessageUpdatedProperties
		if err := evt.Decode(&props); err != nil {
			return nil
		}
		model := ""
		if props.Info != nil {
			model = props.Info.ModelID
		}
		if model == "" && props.Message != nil {
			model = props.Message.Model
		}
		if model != "" {
			p.setenv(ctx, VarModel, ModelName(model))
		}
	}
	return nil
}

func (p *plugin) handleToolAfter(ctx context.Context, in host.ToolInput, out *host.ToolOutput) error {
	if _, ok := p.tools[in.Tool]; !ok {
		return nil
	}
	if out != nil && out.Error != "" {
		return nil
	}

	path := in.StringArg("filePath", "path")
	if path == "" {
		return nil
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = unknownSessionID
	}

	if tag, started := p.tracker.Begin(sessionID); started {
		p.startSession(ctx, sessionID, tag)
	}

	files := p.tracker.Track(path)
	p.setenv(ctx, VarFilesTouched, files)
	if p.metrics != nil {
		p.metrics.FilesTrackedTotal.Inc()
	}

	p.hostLog(ctx, host.LogDebug, "Tracked file modification: "+path)
	p.trigger(ctx, hooks.EventAttributionFileTracked, map[string]any{
		"session_id": sessionID,
		"file_path":  path,
		"tool":       in.Tool,
	})
	return nil
}

func (p *plugin) startSession(ctx context.Context, sessionID, tag string) {
	p.setenv(ctx, VarAssisted, "1")
	p.setenv(ctx, VarTool, p.tool)
	p.setenv(ctx, VarSessionID, tag)
	p.setenv(ctx, VarContribution, p.contribution)

	p.hostLog(ctx, host.LogInfo, "AI attribution session started: "+tag)
	p.trigger(ctx, hooks.EventAttributionSessionStart, map[string]any{
		"session_id": sessionID,
		"tag":        tag,
	})
}

// setenv exports a variable to every sink; failures are logged only
func (p *plugin) setenv(ctx context.Context, key, value string) {
	p.mu.Lock()
	p.vars[key] = value
	p.mu.Unlock()

	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Setenv(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger := tracing.LoggerFromContext(ctx, p.logger)
		logger.Warn().Err(err).Str("var", key).Msg("Failed to export attribution variable")
	}
}

func (p *plugin) exported() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]string, len(p.vars))
	for k, v := range p.vars {
		out[k] = v
	}
	return out
}

func (p *plugin) trigger(ctx context.Context, event string, data map[string]any) {
	if !p.hooks.Has(event) {
		return
	}
	payload := hooks.Payload{Data: data, Env: p.exported()}
	if err := p.hooks.Trigger(ctx, event, payload); err != nil {
		logger := tracing.LoggerFromContext(ctx, p.logger)
		logger.Warn().Err(err).Str("event", event).Msg("Attribution hook failed")
	}
}

func (p *plugin) hostLog(ctx context.Context, level, message string) {
	entry := host.LogEntry{Service: ServiceName, Level: level, Message: message}
	if err := p.client.Log(ctx, entry); err != nil {
		logger := tracing.LoggerFromContext(ctx, p.logger)
		logger.Debug().Err(fmt.Errorf("app.log: %w", err)).Msg("Host log failed")
	}
}
