// Package titler asks a small hosted model for a conventional-commit style
// session title, falling back to PR detection when no model is reachable.
package titler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/harun/sessionhooks/pkg/llm"
)

// Limits applied to titles and requests
const (
	MaxTitleLen     = 50
	DefaultMaxChars = 1000
	DefaultMaxTok   = 50
	untitled        = "Untitled"
)

// Title generation outcomes, used as metric labels
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
	SourceNone     = "none"
)

// Selector picks a provider and model
type Selector interface {
	Select() (*llm.Selection, error)
}

// Generator produces titles with a model
type Generator struct {
	selector  Selector
	maxChars  int
	maxTokens int
}

// NewGenerator creates a title generator. Zero limits use the defaults.
func NewGenerator(selector Selector, maxChars, maxTokens int) *Generator {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTok
	}
	return &Generator{selector: selector, maxChars: maxChars, maxTokens: maxTokens}
}

// Result is a generated title and how it was obtained
type Result struct {
	Title  string
	Source string
	Err    error // model failure that led to the fallback, if any
}

// Generate returns a title for message. Model failures fall back to PR
// detection; Source is SourceNone when neither produced a title.
func (g *Generator) Generate(ctx context.Context, message string) Result {
	title, err := g.fromModel(ctx, message)
	if err == nil {
		return Result{Title: title, Source: SourceModel}
	}

	if fb, ok := Fallback(message); ok {
		return Result{Title: fb, Source: SourceFallback, Err: err}
	}
	return Result{Source: SourceNone, Err: err}
}

func (g *Generator) fromModel(ctx context.Context, message string) (string, error) {
	if g.selector == nil {
		return "", llm.ErrNoProvider
	}
	sel, err := g.selector.Select()
	if err != nil {
		return "", err
	}

	resp, err := sel.Provider.Complete(ctx, llm.Request{
		Model:     sel.Model,
		Prompt:    buildPrompt(message, g.maxChars),
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", sel.Provider.Name(), sel.Model, err)
	}
	return CleanTitle(resp.Content), nil
}

var (
	thinkBlock   = regexp.MustCompile(`<think>[\s\S]*?</think>\s*`)
	edgeQuotes   = regexp.MustCompile(`^["']|["']$`)
	prReferences = regexp.MustCompile(`(?i)PR\s*#?(\d+)|pull\s*request\s*#?(\d+)`)
)

// CleanTitle turns raw model output into a single-line title
func CleanTitle(raw string) string {
	text := thinkBlock.ReplaceAllString(raw, "")

	title := untitled
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			title = line
			break
		}
	}

	title = edgeQuotes.ReplaceAllString(title, "")
	if utf8.RuneCountInString(title) > MaxTitleLen {
		title = truncate(title, MaxTitleLen-3) + "..."
	}
	return title
}

// Fallback returns "review PR #<n>" when message references a pull request
func Fallback(message string) (string, bool) {
	m := prReferences.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	n := m[1]
	if n == "" {
		n = m[2]
	}
	return "review PR #" + n, true
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
