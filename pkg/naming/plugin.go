package naming

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/harun/sessionhooks/internal/metrics"
	"github.com/harun/sessionhooks/internal/tracing"
	"github.com/harun/sessionhooks/pkg/host"
	"github.com/harun/sessionhooks/pkg/sessionset"
)

// PluginName labels this plugin in logs and metrics
const PluginName = "auto-session-name"

// minMessageLen is the shortest first message worth naming a session after
const minMessageLen = 10

// Options configures the auto-naming plugin
type Options struct {
	Metrics *metrics.Metrics
}

type plugin struct {
	client    host.Client
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	processed *sessionset.Set
}

// NewPlugin returns the auto-naming plugin factory. Each session is looked at
// once per process, the first time it goes idle.
func NewPlugin(opts Options) host.Plugin {
	return func(ctx context.Context, in host.Input) (*host.Hooks, error) {
		p := &plugin{
			client:    in.Client,
			logger:    in.Logger,
			metrics:   opts.Metrics,
			processed: sessionset.New(),
		}
		return &host.Hooks{Event: p.handleEvent}, nil
	}
}

func (p *plugin) handleEvent(ctx context.Context, evt host.Event) error {
	if !evt.IsIdle() {
		return nil
	}
	sessionID := evt.SessionID()
	if sessionID == "" {
		return nil
	}
	// marked before any lookup so failures are not retried
	if !p.processed.TryAdd(sessionID) {
		return nil
	}

	logger := tracing.LoggerFromContext(ctx, p.logger)

	session, err := p.client.GetSession(ctx, sessionID)
	if err != nil {
		logger.Debug().Err(err).Msg("Session lookup failed")
		return nil
	}
	if session.IsSubagent() || !IsDefaultTitle(session.Title) {
		return nil
	}

	messages, err := p.client.SessionMessages(ctx, sessionID)
	if err != nil {
		logger.Debug().Err(err).Msg("Message lookup failed")
		return nil
	}

	text := host.FirstUserText(messages)
	if utf8.RuneCountInString(text) < minMessageLen {
		return nil
	}

	title, ok := Generate(text)
	if !ok {
		return nil
	}

	if err := p.client.UpdateSessionTitle(ctx, sessionID, title); err != nil {
		logger.Debug().Err(err).Msg("Session rename failed")
		return nil
	}

	if p.metrics != nil {
		p.metrics.SessionsRenamedTotal.WithLabelValues(PluginName).Inc()
	}
	logger.Debug().Str("title", title).Msg("Session renamed")
	return nil
}
