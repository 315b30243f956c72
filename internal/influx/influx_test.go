package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PearlCalc/extension/internal/config"
	"github.com/PearlCalc/extension/pkg/core"
)

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, filepath.Join(t.TempDir(), "backup.gz"))
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, "")
	err := m.WritePoint(influxdb2_write.NewPointWithMeasurement("x"))
	assert.Error(t, err)
}

func TestWritePoint_Backup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.lp.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, path)
	require.NoError(t, m.openBackup())

	rec := &core.SolveRecord{
		RequestedAt: time.Unix(1700000000, 0),
		Duration:    1500 * time.Microsecond,
		Version:     core.Post1212,
		Mode:        core.Standard,
		MaxTicks:    200,
		Candidates:  12,
		Results:     []core.SolveResult{{Distance: 0.5, Tick: 33}},
	}
	require.NoError(t, m.WritePoint(SolvePoint(rec)))
	require.NoError(t, m.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	line := string(raw)
	assert.Contains(t, line, "solve,mode=Standard,version=Post1212")
	assert.Contains(t, line, "candidates=12i")
	assert.Contains(t, line, "best_tick=33i")
	assert.Contains(t, line, "duration_ms=1.5")
}

func TestSolvePoint_NoResults(t *testing.T) {
	line := influxdb2_write.PointToLineProtocol(SolvePoint(&core.SolveRecord{Version: core.Legacy}), time.Nanosecond)
	assert.Contains(t, line, "results=0i")
	assert.NotContains(t, line, "best_distance")
}

func TestTracePoint(t *testing.T) {
	rec := &core.TraceRecord{
		Kind:    core.TraceKindRaw,
		Version: core.Post1205,
		Result: core.TraceResult{
			PositionTrace: make([]core.Vector3, 7),
			ReachedTick:   100,
		},
	}
	line := influxdb2_write.PointToLineProtocol(TracePoint(rec), time.Nanosecond)
	assert.Contains(t, line, "trace,kind=raw,version=Post1205")
	assert.Contains(t, line, "points=7i")
	assert.Contains(t, line, "ticks=100i")
}
