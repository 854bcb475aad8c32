package titler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/sessionhooks/pkg/llm"
)

type fakeProvider struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply}, nil
}

type fakeSelector struct {
	provider llm.Provider
	err      error
}

func (f fakeSelector) Select() (*llm.Selection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Selection{Provider: f.provider, Model: "tiny-model"}, nil
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "fix(input): type error", "fix(input): type error"},
		{"think block", "<think>\nthe user wants a fix\n</think>\n\nfix(auth): token refresh", "fix(auth): token refresh"},
		{"first non-empty line", "\n\n  feat(ui): dark mode  \nexplanation follows", "feat(ui): dark mode"},
		{"quotes", `"docs(api): update endpoints"`, "docs(api): update endpoints"},
		{"single quotes", "'chore(deps): update packages'", "chore(deps): update packages"},
		{"empty", "   \n  ", "Untitled"},
		{"only thinking", "<think>hmm</think>", "Untitled"},
		{"long", strings.Repeat("a", 60), strings.Repeat("a", 47) + "..."},
		{"exactly max", strings.Repeat("b", 50), strings.Repeat("b", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTitle(tt.raw))
		})
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		message string
		want    string
		ok      bool
	}{
		{"please look at PR #42", "review PR #42", true},
		{"pr 7 needs eyes", "review PR #7", true},
		{"check pull request 100", "review PR #100", true},
		{"check pullrequest #5", "review PR #5", true},
		{"fix the login page", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, ok := Fallback(tt.message)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateWithModel(t *testing.T) {
	provider := &fakeProvider{reply: "<think>x</think>fix(input): type error"}
	gen := NewGenerator(fakeSelector{provider: provider}, 0, 0)

	message := strings.Repeat("x", 1500)
	result := gen.Generate(context.Background(), message)

	assert.Equal(t, Result{Title: "fix(input): type error", Source: SourceModel}, result)
	require.Len(t, provider.requests, 1)

	req := provider.requests[0]
	assert.Equal(t, "tiny-model", req.Model)
	assert.Equal(t, DefaultMaxTok, req.MaxTokens)
	assert.True(t, strings.HasPrefix(req.Prompt, TitlePrompt+"\n\n<user_message>\n"))
	assert.True(t, strings.HasSuffix(req.Prompt, "\n</user_message>\n\nOutput the title now:"))
	assert.Contains(t, req.Prompt, strings.Repeat("x", DefaultMaxChars)+"\n</user_message>")
	assert.NotContains(t, req.Prompt, strings.Repeat("x", DefaultMaxChars+1))
}

func TestGenerateFallsBack(t *testing.T) {
	providerErr := errors.New("rate limited")

	gen := NewGenerator(fakeSelector{provider: &fakeProvider{err: providerErr}}, 0, 0)
	result := gen.Generate(context.Background(), "can you review PR #88")
	assert.Equal(t, "review PR #88", result.Title)
	assert.Equal(t, SourceFallback, result.Source)
	assert.ErrorIs(t, result.Err, providerErr)

	gen = NewGenerator(fakeSelector{err: llm.ErrNoProvider}, 0, 0)
	result = gen.Generate(context.Background(), "fix the login page")
	assert.Equal(t, "", result.Title)
	assert.Equal(t, SourceNone, result.Source)
	assert.ErrorIs(t, result.Err, llm.ErrNoProvider)

	gen = NewGenerator(nil, 0, 0)
	result = gen.Generate(context.Background(), "pull request 3")
	assert.Equal(t, "review PR #3", result.Title)
}
