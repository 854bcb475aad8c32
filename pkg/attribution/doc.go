// Package attribution marks work done with an AI assistant.
//
// When a file-modifying tool call succeeds, the plugin starts an attribution
// session and exports AI_* variables so commit tooling can record that the
// change was AI assisted:
//
//	AI_ASSISTED=1
//	AI_TOOL=opencode
//	AI_SESSION_ID=20250101-093000-abcdefgh
//	AI_CONTRIBUTION=partial
//	AI_FILES_TOUCHED=/repo/a.go,/repo/b.go
//	AI_MODEL=claude-sonnet-4
//
// The variables can also be mirrored into an env file and handed to hook
// scripts, since git hooks do not inherit this process's environment.
package attribution
