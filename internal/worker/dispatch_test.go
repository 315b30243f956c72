package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PearlCalc/extension/internal/bits"
	"github.com/PearlCalc/extension/internal/bridge"
	"github.com/PearlCalc/extension/internal/cache"
	"github.com/PearlCalc/extension/internal/config"
	"github.com/PearlCalc/extension/internal/dispatcher"
	"github.com/PearlCalc/extension/internal/storage/memory"
	"github.com/PearlCalc/extension/pkg/core"
)

// mockLogger implements dispatcher.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Debug(msg string, keysAndValues ...any) { l.add(msg) }
func (l *mockLogger) Info(msg string, keysAndValues ...any)  { l.add(msg) }
func (l *mockLogger) Error(msg string, keysAndValues ...any) { l.add(msg) }

func (l *mockLogger) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// mockBackend records what it is given and reports a fake write queue.
type mockBackend struct {
	mu     sync.Mutex
	solves []*core.SolveRecord
	traces []*core.TraceRecord
}

func (b *mockBackend) Init() error  { return nil }
func (b *mockBackend) Close() error { return nil }

func (b *mockBackend) RecordSolve(r *core.SolveRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.solves = append(b.solves, r)
	r.ID = uint(len(b.solves))
	return nil
}

func (b *mockBackend) RecordTrace(r *core.TraceRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.traces = append(b.traces, r)
	r.ID = uint(len(b.traces))
	return nil
}

func (b *mockBackend) QueueLengths() map[string]int     { return map[string]int{"calculations": 3} }
func (b *mockBackend) LastWriteDuration() time.Duration { return 1500 * time.Microsecond }

func (b *mockBackend) solveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.solves)
}

const cannonFields = `
	""pearlX"": 0, ""pearlY"": 0, ""pearlZ"": 0,
	""pearlMotionX"": 0, ""pearlMotionY"": 0, ""pearlMotionZ"": 0,
	""offsetX"": 0, ""offsetZ"": 0, ""cannonY"": 0,
	""northWestTnt"": {""x"": -1, ""y"": 0, ""z"": -1},
	""northEastTnt"": {""x"": 1, ""y"": 0, ""z"": -1},
	""southWestTnt"": {""x"": -1, ""y"": 0, ""z"": 1},
	""southEastTnt"": {""x"": 1, ""y"": 0, ""z"": 1},
	""defaultRedDirection"": ""NorthWest"",
	""defaultBlueDirection"": ""NorthEast""`

// solveArg is a calculation request quoted the way the game sends it.
var solveArg = `"{` + cannonFields + `,
	""destinationX"": 100, ""destinationZ"": 100,
	""maxTnt"": 500, ""maxTicks"": 200, ""maxDistance"": 10,
	""version"": ""Post1212""}"`

func newTestManager(t *testing.T, backend *mockBackend) (*Manager, *dispatcher.Dispatcher) {
	t.Helper()
	d, err := dispatcher.New(&mockLogger{})
	require.NoError(t, err)

	deps := Dependencies{
		Calculator:       bridge.NewCalculator(2),
		Cache:            cache.NewResultCache(8),
		ExtensionVersion: "9.9.9",
	}
	if backend != nil {
		deps.Backend = backend
	}
	m, err := NewManager(deps)
	require.NoError(t, err)
	m.RegisterHandlers(d, time.Minute)
	return m, d
}

func dispatch(t *testing.T, d *dispatcher.Dispatcher, cmd string, args ...string) (any, error) {
	t.Helper()
	return d.Dispatch(context.Background(), dispatcher.Event{Command: cmd, Args: args, Timestamp: time.Now()})
}

func TestRegisterHandlers(t *testing.T) {
	_, d := newTestManager(t, nil)
	assert.Equal(t, []string{
		":BITS:", ":HISTORY:", ":SOLVE:", ":SOLVE:ASYNC:", ":STATUS:", ":TRACE:", ":TRACE:RAW:", ":VERSION:",
	}, d.Commands())
}

func TestHandleVersion(t *testing.T) {
	_, d := newTestManager(t, nil)
	got, err := dispatch(t, d, ":VERSION:")
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", got)
}

func TestHandleSolve_StoresAndCaches(t *testing.T) {
	backend := &mockBackend{}
	m, d := newTestManager(t, backend)

	got, err := dispatch(t, d, ":SOLVE:", solveArg)
	require.NoError(t, err)
	outs, ok := got.([]bridge.TNTResultOutput)
	require.True(t, ok)
	require.NotEmpty(t, outs)
	assert.Equal(t, 1, backend.solveCount())

	again, err := dispatch(t, d, ":SOLVE:", solveArg)
	require.NoError(t, err)
	assert.Equal(t, outs, again)
	assert.Equal(t, 1, backend.solveCount(), "cache hits are not stored again")

	s := m.Status()
	assert.Equal(t, 2, s.Requests)
	assert.Equal(t, 0, s.Failures)
	assert.Equal(t, 1, s.CacheEntries)
	assert.Equal(t, 1, s.CacheHits)
}

func TestHandleSolve_Errors(t *testing.T) {
	m, d := newTestManager(t, nil)

	_, err := dispatch(t, d, ":SOLVE:")
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = dispatch(t, d, ":SOLVE:", `"{""version"": 12}"`)
	assert.ErrorContains(t, err, "failed to parse calculation")

	_, err = dispatch(t, d, ":SOLVE:", `"{""version"": ""Beta""}"`)
	assert.ErrorIs(t, err, bridge.ErrUnknownVersion)

	assert.Equal(t, 3, m.Status().Failures)
	assert.Equal(t, []logAttr{{"requests", 3}, {"failures", 3}}, attrs(m))
}

func TestHandleSolveAsync(t *testing.T) {
	backend := &mockBackend{}
	_, d := newTestManager(t, backend)

	got, err := dispatch(t, d, ":SOLVE:ASYNC:", solveArg)
	require.NoError(t, err)
	assert.Equal(t, "queued", got)

	assert.Eventually(t, func() bool { return backend.solveCount() == 1 }, 30*time.Second, 20*time.Millisecond)
}

func TestHandleTrace(t *testing.T) {
	backend := &mockBackend{}
	_, d := newTestManager(t, backend)

	arg := `"{` + cannonFields + `,
		""redTnt"": 4, ""blueTnt"": 0,
		""destinationX"": 40, ""destinationZ"": 40,
		""direction"": ""South"", ""version"": ""Post1205""}"`
	got, err := dispatch(t, d, ":TRACE:", arg)
	require.NoError(t, err)
	out, ok := got.(bridge.PearlTraceOutput)
	require.True(t, ok)
	assert.NotEmpty(t, out.PearlTrace)
	require.Len(t, backend.traces, 1)
	assert.Equal(t, core.TraceKindCannon, backend.traces[0].Kind)
}

func TestHandleRawTrace(t *testing.T) {
	backend := &mockBackend{}
	_, d := newTestManager(t, backend)

	arg := `"{""pearlX"": 0, ""pearlY"": 0, ""pearlZ"": 0,
		""pearlMotionX"": 0, ""pearlMotionY"": 0, ""pearlMotionZ"": 0,
		""tntGroups"": [{""x"": -1, ""y"": 0, ""z"": -1, ""amount"": 10}],
		""version"": ""Legacy""}"`
	got, err := dispatch(t, d, ":TRACE:RAW:", arg)
	require.NoError(t, err)
	out := got.(bridge.PearlTraceOutput)
	assert.Nil(t, out.ClosestApproach)
	require.Len(t, backend.traces, 1)
	assert.Equal(t, core.TraceKindRaw, backend.traces[0].Kind)
}

func TestHandleBits(t *testing.T) {
	_, d := newTestManager(t, nil)

	req := BitsRequest{
		Template: bits.Template{
			Values:         []uint32{1, 2, 4, 8},
			DirectionMasks: map[string]string{"00": "North", "01": "East", "10": "South", "11": "West"},
		},
		Red:       5,
		Blue:      8,
		Direction: "South",
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	got, err := dispatch(t, d, ":BITS:", string(raw))
	require.NoError(t, err)
	layout := got.(bits.Layout)
	assert.Equal(t, []int{2, 0}, layout.Red)
	assert.Equal(t, []int{3}, layout.Blue)
	assert.Equal(t, [2]bool{true, false}, layout.Direction)

	req.Direction = "Up"
	raw, _ = json.Marshal(req)
	_, err = dispatch(t, d, ":BITS:", string(raw))
	assert.ErrorIs(t, err, bridge.ErrUnknownHeading)
}

func TestHandleStatus(t *testing.T) {
	_, d := newTestManager(t, &mockBackend{})

	got, err := dispatch(t, d, ":STATUS:")
	require.NoError(t, err)
	s := got.(Status)
	assert.Equal(t, "9.9.9", s.Version)
	assert.Equal(t, map[string]int{"calculations": 3}, s.WriteQueues)
	assert.Equal(t, 1.5, s.LastWriteMs)
	assert.Contains(t, s.DispatchQueues, ":SOLVE:ASYNC:")
}

func TestHandleHistory(t *testing.T) {
	d, err := dispatcher.New(&mockLogger{})
	require.NoError(t, err)

	backend := memory.New(config.MemoryConfig{}, "test")
	require.NoError(t, backend.Init())
	m, err := NewManager(Dependencies{Backend: backend, Cache: cache.NewResultCache(4)})
	require.NoError(t, err)
	m.RegisterHandlers(d, 0)

	for i := range 3 {
		require.NoError(t, backend.RecordSolve(&core.SolveRecord{
			Version: core.Legacy,
			Results: []core.SolveResult{{Total: uint32(i + 1), Heading: core.North}},
		}))
	}

	got, err := dispatch(t, d, ":HISTORY:", `"2"`)
	require.NoError(t, err)
	entries := got.([]HistoryEntry)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(3), entries[0].ID)
	assert.Equal(t, "Legacy", entries[0].Version)

	_, err = dispatch(t, d, ":HISTORY:", "zero")
	assert.ErrorContains(t, err, "invalid history count")
}

func TestHandleHistory_NoReader(t *testing.T) {
	_, d := newTestManager(t, &mockBackend{})
	_, err := dispatch(t, d, ":HISTORY:")
	assert.ErrorIs(t, err, ErrNoHistory)
}

type logAttr struct {
	Key   string
	Value int64
}

func attrs(m *Manager) []logAttr {
	var out []logAttr
	for _, a := range m.LogContext() {
		out = append(out, logAttr{a.Key, a.Value.Int64()})
	}
	return out
}
