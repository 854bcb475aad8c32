package llm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialWatcherReloadsOnChange(t *testing.T) {
	authFile := filepath.Join(t.TempDir(), "auth.json")
	creds, err := NewCredentials(CredentialsConfig{AuthFile: authFile, Getenv: envMap(nil)})
	require.NoError(t, err)

	watcher, err := NewCredentialWatcher(creds, zerolog.Nop())
	require.NoError(t, err)
	watcher.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	writeAuthFile(t, authFile, `{"anthropic": {"type": "api", "key": "sk-ant-new"}}`)

	select {
	case <-watcher.reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("credentials were not reloaded")
	}

	cred, ok := creds.Lookup(ProviderAnthropic)
	require.True(t, ok)
	assert.Equal(t, "sk-ant-new", cred.APIKey)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestCredentialWatcherMissingDirectory(t *testing.T) {
	creds, err := NewCredentials(CredentialsConfig{
		AuthFile: filepath.Join(t.TempDir(), "absent", "auth.json"),
		Getenv:   envMap(nil),
	})
	require.NoError(t, err)

	_, err = NewCredentialWatcher(creds, zerolog.Nop())
	assert.Error(t, err)
}
