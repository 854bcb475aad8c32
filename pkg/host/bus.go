package host

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"

	"github.com/harun/sessionhooks/internal/metrics"
	"github.com/harun/sessionhooks/internal/tracing"
)

// BusConfig configures a Bus
type BusConfig struct {
	Client    Client
	Directory string
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics // optional
}

type pluginEntry struct {
	name    string
	factory Plugin
	hooks   *Hooks
}

// Bus delivers host events to registered plugins in registration order
type Bus struct {
	client    Client
	directory string
	logger    zerolog.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	plugins []*pluginEntry
	started bool
	tools   *ToolTracker
}

// NewBus creates a new event bus
func NewBus(cfg BusConfig) (*Bus, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("host client is required")
	}

	return &Bus{
		client:    cfg.Client,
		directory: cfg.Directory,
		logger:    cfg.Logger.With().Str("component", "bus").Logger(),
		metrics:   cfg.Metrics,
		tools:     NewToolTracker(),
	}, nil
}

// Register adds a plugin factory. Plugins must be registered before Start.
func (b *Bus) Register(name string, factory Plugin) error {
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if factory == nil {
		return fmt.Errorf("plugin %s: factory is nil", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return fmt.Errorf("plugin %s: bus already started", name)
	}
	for _, p := range b.plugins {
		if p.name == name {
			return fmt.Errorf("plugin %s already registered", name)
		}
	}

	b.plugins = append(b.plugins, &pluginEntry{name: name, factory: factory})
	return nil
}

// Start calls every plugin factory once. A plugin whose factory fails stays
// inactive; the others keep running. The returned error joins factory failures.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return fmt.Errorf("bus already started")
	}
	b.started = true

	var errs []error
	for _, p := range b.plugins {
		in := Input{
			Client:    b.client,
			Directory: b.directory,
			Logger:    b.logger.With().Str("plugin", p.name).Logger(),
		}

		hooks, err := b.initPlugin(ctx, p, in)
		if err != nil {
			b.logger.Error().Err(err).Str("plugin", p.name).Msg("Plugin failed to initialize")
			errs = append(errs, fmt.Errorf("plugin %s: %w", p.name, err))
			continue
		}
		p.hooks = hooks
		b.logger.Info().Str("plugin", p.name).Msg("Plugin loaded")
	}

	return errors.Join(errs...)
}

func (b *Bus) initPlugin(ctx context.Context, p *pluginEntry, in Input) (hooks *Hooks, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during init: %v", r)
		}
	}()

	hooks, err = p.factory(ctx, in)
	if err != nil {
		return nil, err
	}
	if hooks == nil {
		hooks = &Hooks{}
	}
	return hooks, nil
}

// Plugins returns the names of the plugins that initialized successfully
func (b *Bus) Plugins() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.plugins))
	for _, p := range b.plugins {
		if p.hooks != nil {
			names = append(names, p.name)
		}
	}
	return names
}

// Dispatch delivers one host event to every plugin's event hook. A terminal
// tool part in message.part.updated is first delivered as tool.execute.after.
// The returned error joins handler failures and is meant for logging only.
func (b *Bus) Dispatch(ctx context.Context, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx = tracing.NewEventContext(ctx, evt.Type, evt.SessionID())
	ctx, span := tracing.StartSpan(ctx, "bus.dispatch", tracing.EventAttributes(evt.Type, evt.SessionID())...)
	defer span.End()

	if b.metrics != nil {
		b.metrics.EventsReceivedTotal.WithLabelValues(evt.Type).Inc()
	}

	var errs []error

	switch evt.Type {
	case EventMessagePartUpdated:
		if in, out, ok := b.tools.Observe(evt); ok {
			errs = append(errs, b.deliverToolAfter(ctx, in, out))
		}
	case EventSessionDeleted:
		b.tools.Forget(evt.SessionID())
	}

	for _, p := range b.plugins {
		if p.hooks == nil || p.hooks.Event == nil {
			continue
		}
		hook := p.hooks.Event
		errs = append(errs, b.invoke(ctx, p.name, "event", func() error {
			return hook(ctx, evt)
		}))
	}

	err := errors.Join(errs...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// DispatchToolAfter delivers a tool completion directly, for hosts that
// report tool calls outside the event stream.
func (b *Bus) DispatchToolAfter(ctx context.Context, in ToolInput, out *ToolOutput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx = tracing.NewEventContext(ctx, HookToolExecuteAfter, in.SessionID)
	ctx, span := tracing.StartSpan(ctx, "bus.tool_after",
		append(tracing.EventAttributes(HookToolExecuteAfter, in.SessionID), tracing.AttrTool.String(in.Tool))...)
	defer span.End()

	if in.CallID != "" && !b.tools.Claim(in.SessionID, in.CallID) {
		return nil
	}
	return b.deliverToolAfter(ctx, in, out)
}

func (b *Bus) deliverToolAfter(ctx context.Context, in ToolInput, out *ToolOutput) error {
	if out == nil {
		out = &ToolOutput{}
	}
	if b.metrics != nil {
		b.metrics.EventsReceivedTotal.WithLabelValues(HookToolExecuteAfter).Inc()
	}

	var errs []error
	for _, p := range b.plugins {
		if p.hooks == nil || p.hooks.ToolExecuteAfter == nil {
			continue
		}
		hook := p.hooks.ToolExecuteAfter
		errs = append(errs, b.invoke(ctx, p.name, HookToolExecuteAfter, func() error {
			return hook(ctx, in, out)
		}))
	}
	return errors.Join(errs...)
}

// invoke runs one hook, converting panics to errors and recording metrics
func (b *Bus) invoke(ctx context.Context, plugin, hook string, fn func() error) (err error) {
	start := time.Now()
	logger := tracing.LoggerFromContext(ctx, b.logger)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			logger.Error().
				Str("plugin", plugin).
				Str("stack", string(debug.Stack())).
				Msg("Plugin hook panicked")
		}

		if b.metrics != nil {
			b.metrics.HandlerDuration.WithLabelValues(plugin, hook).Observe(time.Since(start).Seconds())
		}

		if err != nil {
			if b.metrics != nil {
				b.metrics.HandlerErrorsTotal.WithLabelValues(plugin).Inc()
			}
			logger.Warn().Err(err).Str("plugin", plugin).Str("hook", hook).Msg("Plugin hook failed")
			err = fmt.Errorf("%s %s: %w", plugin, hook, err)
		}
	}()

	return fn()
}
