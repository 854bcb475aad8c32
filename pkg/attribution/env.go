package attribution

import (
	"fmt"
	"os"
	"sync"
)

// Variable names exported by the plugin
const (
	VarAssisted     = "AI_ASSISTED"
	VarTool         = "AI_TOOL"
	VarSessionID    = "AI_SESSION_ID"
	VarContribution = "AI_CONTRIBUTION"
	VarFilesTouched = "AI_FILES_TOUCHED"
	VarModel        = "AI_MODEL"
)

// Environment receives the exported variables
type Environment interface {
	Setenv(key, value string) error
}

// ProcessEnv writes to the current process environment
type ProcessEnv struct{}

// Setenv sets a process environment variable
func (ProcessEnv) Setenv(key, value string) error {
	if err := os.Setenv(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// MapEnv keeps variables in memory
type MapEnv struct {
	mu   sync.Mutex
	vars map[string]string
}

// NewMapEnv creates an empty in-memory environment
func NewMapEnv() *MapEnv {
	return &MapEnv{vars: make(map[string]string)}
}

// Setenv stores a variable
func (e *MapEnv) Setenv(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[key] = value
	return nil
}

// Get returns a variable and whether it is set
func (e *MapEnv) Get(key string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vars[key]
	return v, ok
}
