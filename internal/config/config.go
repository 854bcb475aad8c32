package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Config represents the sessionhooks configuration
type Config struct {
	// Host server connection
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Plugins
	Plugins PluginsConfig `json:"plugins" mapstructure:"plugins"`

	// AI credentials for the session title plugin
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Hook scripts
	Hooks HooksConfig `json:"hooks" mapstructure:"hooks"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds the host server connection settings
type ServerConfig struct {
	URL              string `json:"url" mapstructure:"url"`
	Directory        string `json:"directory" mapstructure:"directory"`
	Password         string `json:"password" mapstructure:"password"`
	EventTimeoutMs   int    `json:"event_timeout_ms" mapstructure:"event_timeout_ms"`
	ReconnectBaseMs  int    `json:"reconnect_base_ms" mapstructure:"reconnect_base_ms"`
	ReconnectMaxMs   int    `json:"reconnect_max_ms" mapstructure:"reconnect_max_ms"`
	RequestTimeoutMs int    `json:"request_timeout_ms" mapstructure:"request_timeout_ms"`
}

// PluginsConfig toggles and tunes the three plugins
type PluginsConfig struct {
	Attribution     AttributionConfig  `json:"attribution" mapstructure:"attribution"`
	AutoSessionName ToggleConfig       `json:"auto_session_name" mapstructure:"auto_session_name"`
	SessionTitle    SessionTitleConfig `json:"session_title" mapstructure:"session_title"`
}

// ToggleConfig is a plugin with nothing to tune beyond on/off
type ToggleConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// AttributionConfig holds AI attribution settings
type AttributionConfig struct {
	Enabled      bool     `json:"enabled" mapstructure:"enabled"`
	Tool         string   `json:"tool" mapstructure:"tool"`                 // AI_TOOL value
	Contribution string   `json:"contribution" mapstructure:"contribution"` // AI_CONTRIBUTION value
	Tools        []string `json:"tools" mapstructure:"tools"`               // host tools that modify files
	EnvFile      string   `json:"env_file" mapstructure:"env_file"`         // optional mirror of AI_* for git hooks
}

// SessionTitleConfig holds model-based title settings
type SessionTitleConfig struct {
	Enabled          bool              `json:"enabled" mapstructure:"enabled"`
	ProviderPriority []string          `json:"provider_priority" mapstructure:"provider_priority"`
	Models           map[string]string `json:"models" mapstructure:"models"`
	MaxMessageChars  int               `json:"max_message_chars" mapstructure:"max_message_chars"`
	MaxTokens        int               `json:"max_tokens" mapstructure:"max_tokens"`
	AuthFile         string            `json:"auth_file" mapstructure:"auth_file"`
	WatchAuthFile    bool              `json:"watch_auth_file" mapstructure:"watch_auth_file"`
}

// AIConfig holds AI provider credentials
type AIConfig struct {
	Profiles []AIProfile `json:"profiles" mapstructure:"profiles"`
}

// AIProfile represents an AI provider credential
type AIProfile struct {
	ID       string `json:"id" mapstructure:"id"`
	Provider string `json:"provider" mapstructure:"provider"` // openai, anthropic, google, deepseek, opencode
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
}

// HooksConfig holds hook script configuration
type HooksConfig struct {
	Enabled bool        `json:"enabled" mapstructure:"enabled"`
	Entries []HookEntry `json:"entries" mapstructure:"entries"`
}

// HookEntry is one script bound to an event
type HookEntry struct {
	ID        string `json:"id" mapstructure:"id"`
	Event     string `json:"event" mapstructure:"event"`
	Script    string `json:"script" mapstructure:"script"`
	TimeoutMs int    `json:"timeout_ms" mapstructure:"timeout_ms"`
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// KnownProviders lists the providers the session title plugin can call
var KnownProviders = []string{"openai", "anthropic", "google", "deepseek", "opencode"}

// HookEvents lists the events hook scripts can bind to
var HookEvents = []string{"attribution:session_start", "attribution:file_tracked"}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:              "http://127.0.0.1:4096",
			EventTimeoutMs:   60000,
			ReconnectBaseMs:  500,
			ReconnectMaxMs:   30000,
			RequestTimeoutMs: 30000,
		},
		Plugins: PluginsConfig{
			Attribution: AttributionConfig{
				Enabled:      true,
				Tool:         "opencode",
				Contribution: "partial",
				Tools:        []string{"edit", "write"},
			},
			AutoSessionName: ToggleConfig{Enabled: true},
			SessionTitle: SessionTitleConfig{
				Enabled:          false,
				ProviderPriority: []string{"openai", "anthropic", "google", "deepseek", "opencode"},
				Models: map[string]string{
					"openai":    "gpt-4o-mini",
					"anthropic": "claude-haiku-4-5",
					"google":    "gemini-2.0-flash",
					"deepseek":  "deepseek-chat",
					"opencode":  "big-pickle",
				},
				MaxMessageChars: 1000,
				MaxTokens:       50,
				WatchAuthFile:   true,
			},
		},
		Hooks: HooksConfig{
			Enabled: false,
			Entries: []HookEntry{},
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		AI: AIConfig{
			Profiles: []AIProfile{},
		},
	}
}

// String returns a JSON representation of the config with secrets masked
func (c *Config) String() string {
	masked := *c
	masked.Server.Password = mask(c.Server.Password)
	masked.AI.Profiles = make([]AIProfile, len(c.AI.Profiles))
	for i, p := range c.AI.Profiles {
		p.APIKey = mask(p.APIKey)
		masked.AI.Profiles[i] = p
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.url must be an http(s) URL, got %q", c.Server.URL))
	}
	if c.Server.EventTimeoutMs < 0 || c.Server.RequestTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("server timeouts must be >= 0"))
	}
	if c.Server.ReconnectBaseMs <= 0 {
		errs = append(errs, fmt.Errorf("server.reconnect_base_ms must be > 0"))
	}
	if c.Server.ReconnectMaxMs < c.Server.ReconnectBaseMs {
		errs = append(errs, fmt.Errorf("server.reconnect_max_ms must be >= reconnect_base_ms"))
	}

	if c.Plugins.Attribution.Enabled {
		if strings.TrimSpace(c.Plugins.Attribution.Tool) == "" {
			errs = append(errs, fmt.Errorf("plugins.attribution.tool is required"))
		}
		if len(c.Plugins.Attribution.Tools) == 0 {
			errs = append(errs, fmt.Errorf("plugins.attribution.tools must name at least one tool"))
		}
	}

	title := c.Plugins.SessionTitle
	if title.Enabled {
		if len(title.ProviderPriority) == 0 {
			errs = append(errs, fmt.Errorf("plugins.session_title.provider_priority must not be empty"))
		}
		for _, provider := range title.ProviderPriority {
			if !isKnownProvider(provider) {
				errs = append(errs, fmt.Errorf("plugins.session_title: unknown provider %q", provider))
			}
		}
		if title.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("plugins.session_title.max_tokens must be > 0"))
		}
		if title.MaxMessageChars <= 0 {
			errs = append(errs, fmt.Errorf("plugins.session_title.max_message_chars must be > 0"))
		}
	}

	for i, profile := range c.AI.Profiles {
		if profile.ID == "" {
			errs = append(errs, fmt.Errorf("AI profile %d: ID is required", i))
		}
		if !isKnownProvider(profile.Provider) {
			errs = append(errs, fmt.Errorf("AI profile %s: invalid provider %q", profile.ID, profile.Provider))
		}
		if profile.APIKey == "" {
			errs = append(errs, fmt.Errorf("AI profile %s: api_key is required", profile.ID))
		}
	}

	if c.Hooks.Enabled {
		for i, entry := range c.Hooks.Entries {
			if !entry.Enabled {
				continue
			}
			if !contains(HookEvents, entry.Event) {
				errs = append(errs, fmt.Errorf("hook %d: unknown event %q", i, entry.Event))
			}
			if strings.TrimSpace(entry.Script) == "" {
				errs = append(errs, fmt.Errorf("hook %d: script is required", i))
			}
		}
	}

	if !contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		errs = append(errs, fmt.Errorf("metrics.addr is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}

func isKnownProvider(provider string) bool {
	return contains(KnownProviders, provider)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
