package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Complete(ctx context.Context, request Request) (*Response, error) {
	return &Response{Content: s.name}, nil
}

func stubFactory(cfg ProviderConfig) (Provider, error) {
	return stubProvider{name: cfg.Name}, nil
}

func newTestCredentials(t *testing.T, env map[string]string) *Credentials {
	t.Helper()
	creds, err := NewCredentials(CredentialsConfig{
		AuthFile: filepath.Join(t.TempDir(), "auth.json"),
		Getenv:   envMap(env),
	})
	require.NoError(t, err)
	return creds
}

func TestSelectorPriority(t *testing.T) {
	creds := newTestCredentials(t, map[string]string{
		"ANTHROPIC_API_KEY": "a",
		"DEEPSEEK_API_KEY":  "d",
	})

	sel, err := NewSelector(creds, nil, nil, stubFactory).Select()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, sel.Provider.Name(), "openai has no key, anthropic is next")
	assert.Equal(t, "claude-haiku-4-5", sel.Model)
	assert.Equal(t, SourceEnv, sel.Source)

	sel, err = NewSelector(creds, []string{ProviderDeepSeek, ProviderAnthropic}, map[string]string{ProviderDeepSeek: "deepseek-reasoner"}, stubFactory).Select()
	require.NoError(t, err)
	assert.Equal(t, ProviderDeepSeek, sel.Provider.Name())
	assert.Equal(t, "deepseek-reasoner", sel.Model)
}

func TestSelectorNoProvider(t *testing.T) {
	_, err := NewSelector(newTestCredentials(t, nil), nil, nil, stubFactory).Select()
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestSelectorSkipsBrokenFactories(t *testing.T) {
	creds := newTestCredentials(t, map[string]string{
		"OPENAI_API_KEY":    "o",
		"ANTHROPIC_API_KEY": "a",
	})
	factory := func(cfg ProviderConfig) (Provider, error) {
		if cfg.Name == ProviderOpenAI {
			return nil, errors.New("bad base url")
		}
		return stubFactory(cfg)
	}

	sel, err := NewSelector(creds, nil, nil, factory).Select()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, sel.Provider.Name())

	_, err = NewSelector(creds, []string{ProviderOpenAI}, nil, factory).Select()
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.Contains(t, err.Error(), "bad base url")
}

func TestSelectorDefaultFactory(t *testing.T) {
	creds := newTestCredentials(t, map[string]string{"OPENCODE_API_KEY": "zen"})

	sel, err := NewSelector(creds, []string{ProviderOpenCode}, nil, nil).Select()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenCode, sel.Provider.Name())
	assert.Equal(t, "big-pickle", sel.Model)
}
