package gormstorage

import (
	"testing"
	"time"

	"github.com/PearlCalc/extension/internal/database"
	"github.com/PearlCalc/extension/internal/storage"
	"github.com/PearlCalc/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var (
	_ storage.Backend = (*Backend)(nil)
	_ storage.Reader  = (*Backend)(nil)
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	b := New(Dependencies{DB: db, ExtensionVersion: "test"})
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func TestInit_NoDB(t *testing.T) {
	assert.ErrorIs(t, New(Dependencies{}).Init(), ErrNoDB)
	assert.NoError(t, New(Dependencies{}).Close())
}

func TestRecordSolve_RoundTrip(t *testing.T) {
	b := newTestBackend(t)

	rec := &core.SolveRecord{
		RequestedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:    3 * time.Millisecond,
		Version:     core.Post1205,
		Start:       core.Vec(0.5, 64, 0.5),
		Destination: core.Vec(100, 0, 100),
		MaxTicks:    200,
		MaxDistance: 10,
		Candidates:  50,
		Results: []core.SolveResult{
			{Red: 7, Blue: 3, Total: 10, Tick: 60, Distance: 0.01, Heading: core.North},
			{Red: 8, Blue: 3, Total: 11, Tick: 60, Distance: 0.7, Heading: core.North},
		},
	}
	require.NoError(t, b.RecordSolve(rec))
	assert.NotZero(t, rec.ID)

	got, err := b.RecentSolves(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.Results, got[0].Results)
	assert.Equal(t, rec.Destination, got[0].Destination)
	assert.True(t, rec.RequestedAt.Equal(got[0].RequestedAt))
}

func TestRecentSolves_NewestFirstWithLimit(t *testing.T) {
	b := newTestBackend(t)
	for i := 1; i <= 3; i++ {
		require.NoError(t, b.RecordSolve(&core.SolveRecord{Version: core.Legacy, Candidates: i}))
	}

	got, err := b.RecentSolves(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Candidates)
	assert.Equal(t, 2, got[1].Candidates)
}

func TestRecordTrace_RoundTrip(t *testing.T) {
	b := newTestBackend(t)
	dest := core.Vec(10, 0, 10)
	rec := &core.TraceRecord{
		Kind:        core.TraceKindCannon,
		Version:     core.Post1212,
		Red:         2,
		Blue:        5,
		Destination: &dest,
		Result: core.TraceResult{
			LandingPosition: core.Vec(9.9, 0, 10),
			PositionTrace:   []core.Vector3{core.Vec(0, 0, 0), core.Vec(9.9, 0, 10)},
			MotionTrace:     []core.Vector3{core.Vec(1, 0, 1), core.Vec(0, 0, 0)},
			ReachedTick:     100,
			Success:         true,
			Distance:        0.1,
		},
	}
	require.NoError(t, b.RecordTrace(rec))
	assert.NotZero(t, rec.ID)

	got, err := b.RecentTraces(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.Result.PositionTrace, got[0].Result.PositionTrace)
	assert.True(t, got[0].Result.Success)
	require.NotNil(t, got[0].Destination)
	assert.Equal(t, dest, *got[0].Destination)
}
