package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/harun/sessionhooks/internal/metrics"
	"github.com/harun/sessionhooks/pkg/host"
	"github.com/harun/sessionhooks/pkg/opencode"
)

// EventSource streams host events until the connection ends
type EventSource interface {
	Subscribe(ctx context.Context, fn opencode.EventHandler) error
}

// Dispatcher delivers one event to the plugins
type Dispatcher interface {
	Dispatch(ctx context.Context, evt host.Event) error
}

// EventLoopConfig configures an EventLoop
type EventLoopConfig struct {
	Source        EventSource
	Bus           Dispatcher
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	EventTimeout  time.Duration
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
}

// EventLoop pumps the host event stream into the bus and reconnects when
// the stream drops. Plugins are never retried; only the connection is.
type EventLoop struct {
	source  EventSource
	bus     Dispatcher
	logger  zerolog.Logger
	metrics *metrics.Metrics

	eventTimeout  time.Duration
	reconnectBase time.Duration
	reconnectMax  time.Duration
}

// errHealthy ends a retry round after a connection that delivered events
// beyond the server.connected greeting, so the next drop starts again from the
// base delay.
var errHealthy = errors.New("stream delivered events before closing")

// NewEventLoop creates a new event loop
func NewEventLoop(cfg EventLoopConfig) *EventLoop {
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = 500 * time.Millisecond
	}
	if cfg.ReconnectMax < cfg.ReconnectBase {
		cfg.ReconnectMax = cfg.ReconnectBase
	}
	return &EventLoop{
		source:        cfg.Source,
		bus:           cfg.Bus,
		logger:        cfg.Logger.With().Str("component", "eventloop").Logger(),
		metrics:       cfg.Metrics,
		eventTimeout:  cfg.EventTimeout,
		reconnectBase: cfg.ReconnectBase,
		reconnectMax:  cfg.ReconnectMax,
	}
}

// Run subscribes to the host and dispatches events until ctx is done
func (e *EventLoop) Run(ctx context.Context) {
	e.logger.Info().Msg("Event loop started")

	for ctx.Err() == nil {
		b := retry.WithCappedDuration(e.reconnectMax, retry.NewExponential(e.reconnectBase))
		err := retry.Do(ctx, b, e.connect)
		if err != nil && !errors.Is(err, errHealthy) && ctx.Err() == nil {
			e.logger.Error().Err(err).Msg("Event stream stopped")
		}

		// a fresh round still waits the base delay before reconnecting
		select {
		case <-ctx.Done():
		case <-time.After(e.reconnectBase):
		}
	}

	e.logger.Info().Msg("Event loop stopping")
}

// connect runs one stream connection
func (e *EventLoop) connect(ctx context.Context) error {
	var delivered atomic.Int64

	err := e.source.Subscribe(ctx, func(ctx context.Context, evt host.Event) error {
		// server.connected alone does not reset the backoff
		if evt.Type != host.EventServerConnected {
			delivered.Add(1)
		}
		e.dispatch(ctx, evt)
		return nil
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = opencode.ErrStreamClosed
	}

	if e.metrics != nil {
		e.metrics.StreamReconnects.Inc()
	}
	e.logger.Warn().Err(err).Int64("events", delivered.Load()).Msg("Event stream disconnected, reconnecting")

	if delivered.Load() > 0 {
		return errHealthy
	}
	return retry.RetryableError(err)
}

func (e *EventLoop) dispatch(ctx context.Context, evt host.Event) {
	if e.eventTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.eventTimeout)
		defer cancel()
	}

	// the bus already logged and counted handler failures
	if err := e.bus.Dispatch(ctx, evt); err != nil {
		e.logger.Debug().Str("event_type", evt.Type).Msg("Event dispatched with handler errors")
	}
}
