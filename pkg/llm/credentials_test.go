package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/sessionhooks/internal/config"
)

func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeAuthFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestCredentialsLookupOrder(t *testing.T) {
	authFile := filepath.Join(t.TempDir(), "auth.json")
	writeAuthFile(t, authFile, `{
		"anthropic": {"type": "api", "key": "sk-ant-file"},
		"openai": {"type": "oauth", "refresh": "r", "access": "a", "expires": 1},
		"deepseek": {"type": "api", "key": "ds-file"}
	}`)

	creds, err := NewCredentials(CredentialsConfig{
		Profiles: []config.AIProfile{
			{ID: "main", Provider: ProviderDeepSeek, APIKey: "ds-profile", BaseURL: "https://proxy.local/v1/"},
			{ID: "second", Provider: ProviderDeepSeek, APIKey: "ds-ignored"},
		},
		AuthFile: authFile,
		Getenv: envMap(map[string]string{
			"OPENAI_API_KEY":    "sk-env",
			"ANTHROPIC_API_KEY": "sk-ant-env",
			"GEMINI_API_KEY":    "gem-env",
		}),
	})
	require.NoError(t, err)

	cred, ok := creds.Lookup(ProviderDeepSeek)
	require.True(t, ok)
	assert.Equal(t, Credential{Provider: ProviderDeepSeek, APIKey: "ds-profile", BaseURL: "https://proxy.local/v1/", Source: SourceProfile}, cred)

	cred, ok = creds.Lookup(ProviderAnthropic)
	require.True(t, ok)
	assert.Equal(t, "sk-ant-file", cred.APIKey)
	assert.Equal(t, SourceAuthFile, cred.Source)

	cred, ok = creds.Lookup(ProviderOpenAI)
	require.True(t, ok, "oauth entries fall through to the environment")
	assert.Equal(t, "sk-env", cred.APIKey)
	assert.Equal(t, SourceEnv, cred.Source)

	cred, ok = creds.Lookup(ProviderGoogle)
	require.True(t, ok)
	assert.Equal(t, "gem-env", cred.APIKey)

	_, ok = creds.Lookup(ProviderOpenCode)
	assert.False(t, ok)
}

func TestCredentialsMissingAuthFile(t *testing.T) {
	creds, err := NewCredentials(CredentialsConfig{
		AuthFile: filepath.Join(t.TempDir(), "missing", "auth.json"),
		Getenv:   envMap(nil),
	})
	require.NoError(t, err)

	_, ok := creds.Lookup(ProviderAnthropic)
	assert.False(t, ok)
}

func TestCredentialsInvalidAuthFile(t *testing.T) {
	authFile := filepath.Join(t.TempDir(), "auth.json")
	writeAuthFile(t, authFile, `{not json`)

	_, err := NewCredentials(CredentialsConfig{AuthFile: authFile, Getenv: envMap(nil)})
	assert.Error(t, err)
}

func TestCredentialsReload(t *testing.T) {
	authFile := filepath.Join(t.TempDir(), "auth.json")
	creds, err := NewCredentials(CredentialsConfig{AuthFile: authFile, Getenv: envMap(nil)})
	require.NoError(t, err)

	_, ok := creds.Lookup(ProviderOpenCode)
	assert.False(t, ok)

	writeAuthFile(t, authFile, `{"opencode": {"type": "api", "key": "zen-key"}}`)
	require.NoError(t, creds.Reload())

	cred, ok := creds.Lookup(ProviderOpenCode)
	require.True(t, ok)
	assert.Equal(t, "zen-key", cred.APIKey)

	require.NoError(t, os.Remove(authFile))
	require.NoError(t, creds.Reload())
	_, ok = creds.Lookup(ProviderOpenCode)
	assert.False(t, ok)
}

func TestDefaultAuthFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	assert.Equal(t, filepath.Join("/data", "opencode", "auth.json"), DefaultAuthFile())
}
