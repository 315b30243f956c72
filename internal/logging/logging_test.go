package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	assert.Equal(t,
		filepath.Join("pearllogs", "pearl_calculator.20260212_213836.log"),
		LogFilePath("./pearllogs", ExtensionName, start))
	assert.Equal(t,
		filepath.Join("/var", "log", "pearl", "calc.20260212_213836.log"),
		LogFilePath(filepath.Join("/var", "log", "pearl"), "calc", start))
}

func TestOpenLogFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs", "a.log")

	f, err := OpenLogFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	_, err = f.WriteString("hello\n")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestOpenLogFile_KeepsPreviousAsOld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	f, err := OpenLogFile(path)
	require.NoError(t, err)
	f.Close()

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(old))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, current)
}
