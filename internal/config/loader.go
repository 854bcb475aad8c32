package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SESSIONHOOKS"

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load reads the config file (if present), applies SESSIONHOOKS_* environment
// overrides and fills derived paths.
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.resolvePath()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerEnvKeys(v)

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := ValidateSchema(data); err != nil {
			return nil, err
		}
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	case os.IsNotExist(err):
		// defaults plus environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Dir(configPath)
	}

	return cfg, nil
}

// registerEnvKeys seeds viper with the keys that may be overridden from the
// environment even when the config file does not mention them.
func registerEnvKeys(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("server.url", defaults.Server.URL)
	v.SetDefault("server.directory", defaults.Server.Directory)
	v.SetDefault("server.password", defaults.Server.Password)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("plugins.attribution.enabled", defaults.Plugins.Attribution.Enabled)
	v.SetDefault("plugins.auto_session_name.enabled", defaults.Plugins.AutoSessionName.Enabled)
	v.SetDefault("plugins.session_title.enabled", defaults.Plugins.SessionTitle.Enabled)
	v.SetDefault("plugins.attribution.env_file", defaults.Plugins.Attribution.EnvFile)
	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
}

// Save writes the configuration to file
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.resolvePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("server", cfg.Server)
	v.Set("plugins", cfg.Plugins)
	v.Set("ai", cfg.AI)
	v.Set("hooks", cfg.Hooks)
	v.Set("logging", cfg.Logging)
	v.Set("metrics", cfg.Metrics)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	path, err := l.resolvePath()
	if err != nil {
		return ""
	}
	return path
}

func (l *Loader) resolvePath() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".sessionhooks", "config.json"), nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
