package attribution

import (
	"fmt"
	"sync"

	"github.com/subosito/gotenv"
)

// envFile mirrors exported variables into a dotenv file
type envFile struct {
	path string

	mu   sync.Mutex
	vars gotenv.Env
}

func newEnvFile(path string) *envFile {
	if path == "" {
		return nil
	}
	return &envFile{path: path, vars: make(gotenv.Env)}
}

// Setenv records a variable and rewrites the file
func (f *envFile) Setenv(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.vars[key] = value
	if err := gotenv.Write(f.vars, f.path); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", f.path, err)
	}
	return nil
}
