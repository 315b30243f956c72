// internal/storage/memory/memory_test.go
package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PearlCalc/extension/internal/config"
	"github.com/PearlCalc/extension/internal/storage"
	"github.com/PearlCalc/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend  = (*Backend)(nil)
	_ storage.Reader   = (*Backend)(nil)
	_ storage.Exporter = (*Backend)(nil)
)

func solve(distance float64) *core.SolveRecord {
	return &core.SolveRecord{
		RequestedAt: time.Now(),
		Version:     core.Post1212,
		Destination: core.Vec(100, 0, 100),
		Results: []core.SolveResult{
			{Red: 3, Blue: 4, Total: 7, Tick: 20, Distance: distance, Heading: core.South},
		},
	}
}

func trace() *core.TraceRecord {
	return &core.TraceRecord{
		Kind:    core.TraceKindRaw,
		Version: core.Legacy,
		Result: core.TraceResult{
			PositionTrace: []core.Vector3{core.Vec(0, 0, 0), core.Vec(1, 0, 1)},
			MotionTrace:   []core.Vector3{core.Vec(1, 0, 1), core.Vec(0, 0, 0)},
		},
	}
}

func TestRecord_AssignsSequentialIDs(t *testing.T) {
	b := New(config.MemoryConfig{}, "dev")
	require.NoError(t, b.Init())

	s1, tr, s2 := solve(0.1), trace(), solve(0.2)
	require.NoError(t, b.RecordSolve(s1))
	require.NoError(t, b.RecordTrace(tr))
	require.NoError(t, b.RecordSolve(s2))

	assert.Equal(t, uint(1), s1.ID)
	assert.Equal(t, uint(2), tr.ID)
	assert.Equal(t, uint(3), s2.ID)
}

func TestRecentSolves_NewestFirst(t *testing.T) {
	b := New(config.MemoryConfig{}, "dev")
	require.NoError(t, b.Init())
	for _, d := range []float64{0.1, 0.2, 0.3} {
		require.NoError(t, b.RecordSolve(solve(d)))
	}

	all, err := b.RecentSolves(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 0.3, all[0].Results[0].Distance)
	assert.Equal(t, 0.1, all[2].Results[0].Distance)

	two, err := b.RecentSolves(2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, uint(3), two[0].ID)
}

func TestRecordSolve_CopiesResults(t *testing.T) {
	b := New(config.MemoryConfig{}, "dev")
	require.NoError(t, b.Init())

	rec := solve(0.1)
	require.NoError(t, b.RecordSolve(rec))
	rec.Results[0].Red = 99

	stored, err := b.RecentSolves(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), stored[0].Results[0].Red)
}

func TestInit_ResetsSession(t *testing.T) {
	b := New(config.MemoryConfig{}, "dev")
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordTrace(trace()))
	require.NoError(t, b.Init())

	traces, err := b.RecentTraces(0)
	require.NoError(t, err)
	assert.Empty(t, traces)
}

func TestClose_NothingToExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := New(config.MemoryConfig{OutputDir: dir}, "dev")
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())

	assert.Empty(t, b.ExportedFilePath())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestClose_ExportsSession(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: compress}, "1.0.0")
		require.NoError(t, b.Init())
		require.NoError(t, b.RecordSolve(solve(0.25)))
		require.NoError(t, b.RecordTrace(trace()))
		require.NoError(t, b.Close())

		path := b.ExportedFilePath()
		require.NotEmpty(t, path)
		if compress {
			assert.Equal(t, ".gz", filepath.Ext(path))
		} else {
			assert.Equal(t, ".json", filepath.Ext(path))
		}

		export, err := ReadExport(path)
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", export.ExtensionVersion)
		require.Len(t, export.Calculations, 1)
		require.Len(t, export.Traces, 1)
		assert.Equal(t, "Post1212", export.Calculations[0].Version)
		require.Len(t, export.Calculations[0].Results, 1)
		assert.Equal(t, "South", export.Calculations[0].Results[0].Direction)
		assert.Equal(t, "raw", export.Traces[0].Kind)
		assert.Contains(t, export.Traces[0].Path, "LINESTRING Z")
	}
}
