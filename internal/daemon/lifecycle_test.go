package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleManager(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	lm := NewLifecycleManager(dataDir, zerolog.Nop())

	require.NoError(t, lm.Start())
	assert.Equal(t, filepath.Join(dataDir, PIDFileName), lm.PIDFile())

	pid, err := ReadPID(dataDir)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, lm.Stop())
	_, err = ReadPID(dataDir)
	assert.True(t, os.IsNotExist(err))

	// stopping twice is fine
	assert.NoError(t, lm.Stop())
}

func TestLifecycleManagerStalePIDFile(t *testing.T) {
	dataDir := t.TempDir()
	// PIDs this large are not handed out on Linux
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, PIDFileName), []byte("99999999"), 0644))

	lm := NewLifecycleManager(dataDir, zerolog.Nop())
	require.NoError(t, lm.Start())
	defer lm.Stop()

	pid, err := ReadPID(dataDir)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestLifecycleManagerRefusesLiveDaemon(t *testing.T) {
	dataDir := t.TempDir()
	// the parent of the test binary is alive for the whole test
	ppid := os.Getppid()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, PIDFileName), []byte(strconv.Itoa(ppid)), 0644))

	err := NewLifecycleManager(dataDir, zerolog.Nop()).Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestReadPIDInvalid(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, PIDFileName), []byte("abc"), 0644))

	_, err := ReadPID(dataDir)
	assert.Error(t, err)
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, ProcessAlive(os.Getpid()))
	assert.False(t, ProcessAlive(0))
	assert.False(t, ProcessAlive(-1))
}
