package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	dl.Debug("handling event", "command", ":SOLVE:", "args", 1)
	entry := lastEntry(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "handling event", entry["message"])
	assert.Equal(t, ":SOLVE:", entry["command"])
	assert.Equal(t, float64(1), entry["args"])

	dl.Info("ready")
	assert.Equal(t, "info", lastEntry(t, &buf)["level"])

	dl.Error("event failed", "error", errors.New("boom"))
	entry = lastEntry(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestDispatcherLogger_TypedFields(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("event complete", "duration", 1500*time.Millisecond, "result", []int{3, 4}, 7, "seven")

	entry := lastEntry(t, &buf)
	assert.Equal(t, float64(1500), entry["duration"])
	assert.Equal(t, []any{float64(3), float64(4)}, entry["result"])
	assert.Equal(t, "seven", entry["7"])
}

func TestDispatcherLogger_DanglingKey(t *testing.T) {
	var buf bytes.Buffer
	NewDispatcherLogger(zerolog.New(&buf)).Info("odd", "command")

	assert.Equal(t, "command", lastEntry(t, &buf)["!BADKEY"])
}

func TestDispatcherLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden", "k", "v")
	assert.Zero(t, buf.Len())
}
