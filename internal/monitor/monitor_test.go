package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PearlCalc/extension/internal/database"
	"github.com/PearlCalc/extension/internal/model"
	"github.com/PearlCalc/extension/internal/worker"
)

type fixedStatus struct{ s worker.Status }

func (f fixedStatus) Status() worker.Status { return f.s }

func testStatus() fixedStatus {
	return fixedStatus{worker.Status{
		Version:        "1.0.0",
		Requests:       12,
		Failures:       2,
		CacheEntries:   5,
		DispatchQueues: map[string]int{":SOLVE:ASYNC:": 1},
		WriteQueues:    map[string]int{"calculations": 4},
		LastWriteMs:    2.5,
	}}
}

func TestSample(t *testing.T) {
	s := NewService(Dependencies{Source: testStatus()})

	lines, sample := s.Sample()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"requests": 12`)

	assert.Equal(t, uint64(12), sample.Requests)
	assert.Equal(t, uint64(2), sample.Failures)
	assert.Equal(t, 5, sample.CacheEntries)
	assert.Equal(t, float32(2.5), sample.LastWriteDurationMs)

	var queues map[string]int
	require.NoError(t, json.Unmarshal(sample.QueueLengths, &queues))
	assert.Equal(t, map[string]int{":SOLVE:ASYNC:": 1, "calculations": 4}, queues)
}

func TestStartStop_WritesStatusAndSamples(t *testing.T) {
	dir := t.TempDir()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, database.Setup(db, "test"))

	s := NewService(Dependencies{
		Source:    testStatus(),
		DB:        db,
		OutputDir: dir,
		Interval:  10 * time.Millisecond,
	})
	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&model.PerformanceSample{}).Count(&n)
		return n >= 2
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())

	data, err := os.ReadFile(filepath.Join(dir, StatusFileName))
	require.NoError(t, err)
	var st worker.Status
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "1.0.0", st.Version)
}

func TestStart_BadOutputDir(t *testing.T) {
	s := NewService(Dependencies{Source: testStatus(), OutputDir: "/nonexistent/dir"})
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}
