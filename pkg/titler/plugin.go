package titler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harun/sessionhooks/internal/metrics"
	"github.com/harun/sessionhooks/internal/tracing"
	"github.com/harun/sessionhooks/pkg/host"
	"github.com/harun/sessionhooks/pkg/sessionset"
)

// Plugin identity
const (
	PluginName  = "session-title"
	ServiceName = "session-title"
)

// Options configures the session title plugin
type Options struct {
	Generator *Generator
	Metrics   *metrics.Metrics
}

type plugin struct {
	client    host.Client
	logger    zerolog.Logger
	generator *Generator
	metrics   *metrics.Metrics
	titled    *sessionset.Set
}

// NewPlugin returns the session title plugin factory
func NewPlugin(opts Options) host.Plugin {
	return func(ctx context.Context, in host.Input) (*host.Hooks, error) {
		if opts.Generator == nil {
			return nil, fmt.Errorf("title generator is required")
		}
		p := &plugin{
			client:    in.Client,
			logger:    in.Logger,
			generator: opts.Generator,
			metrics:   opts.Metrics,
			titled:    sessionset.New(),
		}

		p.hostLog(ctx, host.LogInfo, "Session Title plugin initialized", nil)
		return &host.Hooks{Event: p.handleEvent}, nil
	}
}

func (p *plugin) handleEvent(ctx context.Context, evt host.Event) error {
	if !evt.IsIdle() {
		return nil
	}
	sessionID := evt.SessionID()
	if sessionID == "" || p.titled.Has(sessionID) {
		return nil
	}

	logger := tracing.LoggerFromContext(ctx, p.logger)

	session, err := p.client.GetSession(ctx, sessionID)
	if err != nil {
		logger.Debug().Err(err).Msg("Session lookup failed")
		return nil
	}
	if session.IsSubagent() {
		p.titled.Add(sessionID)
		return nil
	}
	if hasMeaningfulTitle(session.Title) {
		p.titled.Add(sessionID)
		return nil
	}

	messages, err := p.client.SessionMessages(ctx, sessionID)
	if err != nil {
		logger.Debug().Err(err).Msg("Message lookup failed")
		return nil
	}
	text := host.FirstUserText(messages)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	result := p.generator.Generate(ctx, text)
	if p.metrics != nil {
		p.metrics.TitleGenerationsTotal.WithLabelValues(result.Source).Inc()
	}
	if result.Err != nil {
		logger.Debug().Err(result.Err).Str("source", result.Source).Msg("Model title generation failed")
	}
	if result.Title == "" {
		return nil
	}

	if err := p.client.UpdateSessionTitle(ctx, sessionID, result.Title); err != nil {
		p.hostLog(ctx, host.LogError, "Failed to update title: "+err.Error(), nil)
		return nil
	}

	p.titled.Add(sessionID)
	if p.metrics != nil {
		p.metrics.SessionsRenamedTotal.WithLabelValues(PluginName).Inc()
	}
	p.hostLog(ctx, host.LogInfo, "Session titled: "+result.Title, map[string]any{"sessionId": sessionID})
	return nil
}

func (p *plugin) hostLog(ctx context.Context, level, message string, extra map[string]any) {
	entry := host.LogEntry{Service: ServiceName, Level: level, Message: message, Extra: extra}
	if err := p.client.Log(ctx, entry); err != nil {
		logger := tracing.LoggerFromContext(ctx, p.logger)
		logger.Debug().Err(err).Msg("Host log failed")
	}
}

// hasMeaningfulTitle reports whether a session already carries a title worth
// keeping. Only blank titles and the host's "Session..." placeholders are
// replaced.
func hasMeaningfulTitle(title string) bool {
	title = strings.TrimSpace(title)
	return title != "" && !strings.HasPrefix(title, "Session")
}
