// Package naming derives short session titles from the first user message
// using a fixed list of phrase patterns, without calling a model.
package naming

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTitleLen is the longest title Generate returns, in characters
const MaxTitleLen = 50

type pattern struct {
	re *regexp.Regexp
	// format builds the title from the first capture group
	format func(capture string) string
}

func numbered(prefix string) func(string) string {
	return func(n string) string { return prefix + n }
}

func described(prefix string, limit int) func(string) string {
	return func(s string) string {
		return prefix + strings.ToLower(truncate(strings.TrimSpace(s), limit))
	}
}

// patterns are tried in order; the first match wins
var patterns = []pattern{
	{regexp.MustCompile(`(?i)github\.com/[\w-]+/[\w-]+/pull/(\d+)`), numbered("review PR #")},
	{regexp.MustCompile(`(?i)(?:review|check|look at).*?(?:pr|pull request)\s*#?(\d+)`), numbered("review PR #")},
	{regexp.MustCompile(`(?i)github\.com/[\w-]+/[\w-]+/issues/(\d+)`), numbered("issue #")},
	{regexp.MustCompile(`(?i)(?:fix|bug|broken|error|issue with|problem with)\s+(?:the\s+)?(.{10,40})`), described("fix: ", 35)},
	{regexp.MustCompile(`(?i)(?:add|create|implement|build|make)\s+(?:a\s+)?(?:new\s+)?(.{10,40})`), described("feat: ", 35)},
	{regexp.MustCompile(`(?i)(?:refactor|clean up|reorganize|restructure)\s+(.{10,40})`), described("refactor: ", 30)},
	{regexp.MustCompile(`(?i)(?:test|write tests?|add tests?)\s+(?:for\s+)?(.{10,40})`), described("test: ", 35)},
	{regexp.MustCompile(`(?i)(?:document|update docs?|write docs?)\s+(?:for\s+)?(.{10,40})`), described("docs: ", 35)},
	{regexp.MustCompile(`(?i)(?:debug|investigate|figure out|why)\s+(.{10,40})`), described("debug: ", 35)},
	{regexp.MustCompile(`(?i)(?:how does?|explain|what is|explore|understand)\s+(.{10,40})`), described("explore: ", 32)},
}

var whitespace = regexp.MustCompile(`\s+`)

// Generate returns a title for message, or false when no pattern matches.
func Generate(message string) (string, bool) {
	text := normalize(message)
	if text == "" {
		return "", false
	}

	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		title := normalize(p.format(m[1]))
		return truncate(title, MaxTitleLen), true
	}
	return "", false
}

func normalize(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var (
	datePrefix       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	newSessionPrefix = regexp.MustCompile(`(?i)^New Session`)
)

// minMeaningfulTitle is the shortest title treated as user-chosen
const minMeaningfulTitle = 5

// IsDefaultTitle reports whether title looks host-generated or empty, meaning
// it may be replaced.
func IsDefaultTitle(title string) bool {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return true
	case datePrefix.MatchString(title):
		return true
	case newSessionPrefix.MatchString(title):
		return true
	case utf8.RuneCountInString(title) < minMeaningfulTitle:
		return true
	}
	return false
}
