package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harun/sessionhooks/internal/config"
)

// Credential sources, in lookup order
const (
	SourceProfile  = "profile"
	SourceAuthFile = "auth.json"
	SourceEnv      = "env"
)

// envKeys lists the environment variables consulted per provider
var envKeys = map[string][]string{
	ProviderOpenAI:    {"OPENAI_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ProviderGoogle:    {"GOOGLE_GENERATIVE_AI_API_KEY", "GEMINI_API_KEY"},
	ProviderDeepSeek:  {"DEEPSEEK_API_KEY"},
	ProviderOpenCode:  {"OPENCODE_API_KEY"},
}

// Credential is an API key for one provider
type Credential struct {
	Provider string
	APIKey   string
	BaseURL  string
	Source   string
}

// CredentialsConfig configures a credential store
type CredentialsConfig struct {
	Profiles []config.AIProfile
	AuthFile string              // OpenCode auth.json; "" uses DefaultAuthFile
	Getenv   func(string) string // default os.Getenv
}

// Credentials resolves API keys from config profiles, the OpenCode auth.json
// and environment variables, in that order.
type Credentials struct {
	profiles map[string]Credential
	authFile string
	getenv   func(string) string

	mu   sync.RWMutex
	auth map[string]Credential
}

// authEntry is one provider entry in auth.json
type authEntry struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// DefaultAuthFile returns the OpenCode auth.json location
func DefaultAuthFile() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "opencode", "auth.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "opencode", "auth.json")
}

// NewCredentials creates a credential store and loads auth.json if present
func NewCredentials(cfg CredentialsConfig) (*Credentials, error) {
	if cfg.Getenv == nil {
		cfg.Getenv = os.Getenv
	}
	if cfg.AuthFile == "" {
		cfg.AuthFile = DefaultAuthFile()
	}

	profiles := make(map[string]Credential, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		if p.APIKey == "" {
			continue
		}
		// first profile per provider wins
		if _, exists := profiles[p.Provider]; exists {
			continue
		}
		profiles[p.Provider] = Credential{
			Provider: p.Provider,
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Source:   SourceProfile,
		}
	}

	c := &Credentials{
		profiles: profiles,
		authFile: cfg.AuthFile,
		getenv:   cfg.Getenv,
		auth:     make(map[string]Credential),
	}

	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// AuthFile returns the auth.json path in use
func (c *Credentials) AuthFile() string {
	return c.authFile
}

// Reload re-reads auth.json. A missing file clears the auth entries.
func (c *Credentials) Reload() error {
	auth, err := readAuthFile(c.authFile)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.auth = auth
	c.mu.Unlock()
	return nil
}

func readAuthFile(path string) (map[string]Credential, error) {
	auth := make(map[string]Credential)
	if path == "" {
		return auth, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return auth, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	var entries map[string]authEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse auth file %s: %w", path, err)
	}

	for provider, entry := range entries {
		// oauth and wellknown entries cannot be used as API keys
		if entry.Type != "api" || entry.Key == "" {
			continue
		}
		auth[provider] = Credential{Provider: provider, APIKey: entry.Key, Source: SourceAuthFile}
	}
	return auth, nil
}

// Lookup returns the credential for a provider
func (c *Credentials) Lookup(provider string) (Credential, bool) {
	if cred, ok := c.profiles[provider]; ok {
		return cred, true
	}

	c.mu.RLock()
	cred, ok := c.auth[provider]
	c.mu.RUnlock()
	if ok {
		return cred, true
	}

	for _, key := range envKeys[provider] {
		if v := c.getenv(key); v != "" {
			return Credential{Provider: provider, APIKey: v, Source: SourceEnv}, true
		}
	}
	return Credential{}, false
}
