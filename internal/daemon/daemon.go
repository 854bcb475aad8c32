package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/sessionhooks/internal/config"
	"github.com/harun/sessionhooks/internal/logger"
	"github.com/harun/sessionhooks/internal/metrics"
	"github.com/harun/sessionhooks/internal/tracing"
	"github.com/harun/sessionhooks/pkg/attribution"
	"github.com/harun/sessionhooks/pkg/hooks"
	"github.com/harun/sessionhooks/pkg/host"
	"github.com/harun/sessionhooks/pkg/llm"
	"github.com/harun/sessionhooks/pkg/naming"
	"github.com/harun/sessionhooks/pkg/opencode"
	"github.com/harun/sessionhooks/pkg/titler"
)

// Daemon connects to the host and runs the plugins against its event stream
type Daemon struct {
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics

	client      *opencode.Client
	bus         *host.Bus
	hookManager *hooks.Manager
	credentials *llm.Credentials
	credWatcher *llm.CredentialWatcher

	eventLoop     *EventLoop
	lifecycle     *LifecycleManager
	metricsServer *http.Server
	metricsAddr   string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startTime time.Time
	running   bool
	mu        sync.RWMutex

	tracingEnabled bool
}

// Status describes a running daemon
type Status struct {
	Running   bool
	Uptime    time.Duration
	StartTime time.Time
	Plugins   []string
}

// New creates a new daemon instance
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewMetrics(),
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := tracing.InitOpenTelemetry("sessionhooks"); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
	} else {
		d.tracingEnabled = true
	}

	if err := d.initialize(); err != nil {
		cancel()
		d.shutdownTracing()
		return nil, err
	}

	return d, nil
}

func (d *Daemon) initialize() error {
	cfg := d.config
	zl := d.logger.GetZerolog()

	client, err := opencode.NewClient(opencode.Config{
		BaseURL:   cfg.Server.URL,
		Directory: cfg.Server.Directory,
		Password:  cfg.Server.Password,
		Timeout:   time.Duration(cfg.Server.RequestTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("failed to create host client: %w", err)
	}
	d.client = client

	d.hookManager, err = hooks.FromConfig(cfg.Hooks, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize hooks: %w", err)
	}

	d.bus, err = host.NewBus(host.BusConfig{
		Client:    client,
		Directory: cfg.Server.Directory,
		Logger:    zl,
		Metrics:   d.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}

	if err := d.registerPlugins(); err != nil {
		return err
	}

	d.eventLoop = NewEventLoop(EventLoopConfig{
		Source:        client,
		Bus:           d.bus,
		Logger:        zl,
		Metrics:       d.metrics,
		EventTimeout:  time.Duration(cfg.Server.EventTimeoutMs) * time.Millisecond,
		ReconnectBase: time.Duration(cfg.Server.ReconnectBaseMs) * time.Millisecond,
		ReconnectMax:  time.Duration(cfg.Server.ReconnectMaxMs) * time.Millisecond,
	})
	d.lifecycle = NewLifecycleManager(cfg.DataDir, zl)

	return nil
}

// registerPlugins adds the enabled plugins to the bus in a fixed order
func (d *Daemon) registerPlugins() error {
	plugins := d.config.Plugins

	if plugins.Attribution.Enabled {
		err := d.bus.Register(attribution.ServiceName, attribution.NewPlugin(attribution.Options{
			Tool:         plugins.Attribution.Tool,
			Contribution: plugins.Attribution.Contribution,
			Tools:        plugins.Attribution.Tools,
			EnvFile:      plugins.Attribution.EnvFile,
			Hooks:        d.hookManager,
			Metrics:      d.metrics,
		}))
		if err != nil {
			return err
		}
	}

	if plugins.AutoSessionName.Enabled {
		if err := d.bus.Register(naming.PluginName, naming.NewPlugin(naming.Options{Metrics: d.metrics})); err != nil {
			return err
		}
	}

	if plugins.SessionTitle.Enabled {
		title := plugins.SessionTitle
		creds, err := llm.NewCredentials(llm.CredentialsConfig{
			Profiles: d.config.AI.Profiles,
			AuthFile: title.AuthFile,
		})
		if err != nil {
			return fmt.Errorf("failed to load model credentials: %w", err)
		}
		d.credentials = creds

		if title.WatchAuthFile {
			watcher, err := llm.NewCredentialWatcher(creds, d.logger.GetZerolog())
			if err != nil {
				d.logger.Warn().Err(err).Msg("Credential file watching disabled")
			} else {
				d.credWatcher = watcher
			}
		}

		selector := llm.NewSelector(creds, title.ProviderPriority, title.Models, nil)
		generator := titler.NewGenerator(selector, title.MaxMessageChars, title.MaxTokens)
		if err := d.bus.Register(titler.PluginName, titler.NewPlugin(titler.Options{Generator: generator, Metrics: d.metrics})); err != nil {
			return err
		}
	}

	return nil
}

// Start starts the daemon service
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	logger := d.logger.GetZerolog().With().Str("trace_id", tracing.NewTraceID()).Logger()
	logger.Info().Str("server", d.config.Server.URL).Msg("Starting sessionhooks daemon")

	if err := d.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	if d.config.Metrics.Enabled {
		if err := d.startMetricsServer(logger); err != nil {
			return err
		}
	}

	if d.credWatcher != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.credWatcher.Run(d.ctx); err != nil {
				logger.Warn().Err(err).Msg("Credential watcher stopped")
			}
		}()
	}

	// a plugin that fails to initialize stays inactive
	if err := d.bus.Start(d.ctx); err != nil {
		logger.Warn().Err(err).Msg("Some plugins failed to initialize")
	}
	logger.Info().Strs("plugins", d.bus.Plugins()).Msg("Plugins active")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.eventLoop.Run(d.ctx)
	}()

	logger.Info().Msg("Daemon started successfully")
	return nil
}

func (d *Daemon) startMetricsServer(logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())

	listener, err := net.Listen("tcp", d.config.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics address: %w", err)
	}

	d.metricsAddr = listener.Addr().String()
	d.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	logger.Info().Str("addr", d.metricsAddr).Msg("Metrics server started")
	return nil
}

// Stop stops the daemon service gracefully
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	logger := d.logger.GetZerolog().With().Str("trace_id", tracing.NewTraceID()).Logger()
	logger.Info().Msg("Stopping sessionhooks daemon")

	if d.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to stop metrics server")
		}
		cancel()
	}

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("All goroutines stopped")
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("Timeout waiting for goroutines to stop")
	}

	if err := d.lifecycle.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
	}

	d.shutdownTracing()

	logger.Info().Msg("Daemon stopped successfully")
	return nil
}

func (d *Daemon) shutdownTracing() {
	if !d.tracingEnabled {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.ShutdownOpenTelemetry(shutdownCtx); err != nil {
		d.logger.Error().Err(err).Msg("Failed to shutdown tracing")
	}
	d.tracingEnabled = false
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{Running: d.running}
	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
		status.Plugins = d.bus.Plugins()
	}
	return status
}

// Wait blocks until SIGINT or SIGTERM, then stops the daemon
func (d *Daemon) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	d.logger.Info().Str("signal", sig.String()).Msg("Received signal")

	if err := d.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop daemon")
	}
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}

// GetBus returns the event bus
func (d *Daemon) GetBus() *host.Bus {
	return d.bus
}

// GetMetrics returns the metrics registry wrapper
func (d *Daemon) GetMetrics() *metrics.Metrics {
	return d.metrics
}

// MetricsAddr returns the bound metrics address, or "" when disabled
func (d *Daemon) MetricsAddr() string {
	return d.metricsAddr
}
