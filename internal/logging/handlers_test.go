package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textHandler(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanout(t *testing.T) {
	var a, b bytes.Buffer
	fan := NewFanout(nil, textHandler(&a, slog.LevelInfo), nil, textHandler(&b, slog.LevelDebug))
	require.Len(t, fan, 2)

	ctx := context.Background()
	assert.True(t, fan.Enabled(ctx, slog.LevelDebug), "one debug handler enables debug")
	assert.False(t, NewFanout().Enabled(ctx, slog.LevelError))

	logger := slog.New(fan).With("component", "solver").WithGroup("req")
	logger.Debug("candidates", "n", 12)
	logger.Info("done", "results", 3)

	assert.NotContains(t, a.String(), "candidates")
	assert.Contains(t, a.String(), "component=solver")
	assert.Contains(t, a.String(), "req.results=3")
	assert.Contains(t, b.String(), "req.n=12")
}

func TestFanout_JoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	fan := NewFanout(failingHandler{}, textHandler(&buf, slog.LevelInfo))

	err := fan.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still written", 0))

	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "still written")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	failures := 0
	h := WithContext(textHandler(&buf, slog.LevelInfo), func() []slog.Attr {
		return []slog.Attr{slog.Int("failures", failures)}
	})
	logger := slog.New(h).With("component", "worker")

	logger.Info("first")
	failures = 2
	logger.Info("second")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "failures=0")
	assert.Contains(t, string(lines[1]), "failures=2")
	assert.Contains(t, string(lines[1]), "component=worker")

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestWithContext_NilProvider(t *testing.T) {
	inner := textHandler(&bytes.Buffer{}, slog.LevelInfo)
	assert.Equal(t, inner, WithContext(inner, nil))
}
