package simulation

import (
	"testing"

	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_StaticPearlCollapsesTrace(t *testing.T) {
	for _, version := range []core.Version{core.Legacy, core.Post1205, core.Post1212} {
		t.Run(version.String(), func(t *testing.T) {
			res := Run(RunInput{
				Movement:  physics.ForVersion(version),
				Position:  core.Vec(1, 2, 3),
				MaxTicks:  50,
				NoGravity: true,
			})

			assert.Equal(t, core.Vec(1, 2, 3), res.LandingPosition)
			assert.Len(t, res.PositionTrace, 1)
			assert.Len(t, res.MotionTrace, 1)
			assert.Equal(t, uint32(50), res.ReachedTick)
			assert.False(t, res.Success)
			assert.Equal(t, 0.0, res.Distance)
		})
	}
}

func TestRun_ChargeFiresAtFuse(t *testing.T) {
	in := RunInput{
		Movement: physics.ForVersion(core.Post1212),
		Charges:  []core.ChargeSource{{Position: core.Vec(-1, 0, 0), Fuse: 3}},
		MaxTicks: 10,
	}
	res := Run(in)

	require.GreaterOrEqual(t, len(res.MotionTrace), 5)
	// The pearl falls from tick 1, so no trace point is collapsed.
	for i := 0; i <= 3; i++ {
		assert.Equal(t, 0.0, res.PositionTrace[i].X, "tick %d", i)
	}
	assert.Greater(t, res.PositionTrace[4].X, 0.0)
}

func TestRun_DestinationAndOffset(t *testing.T) {
	dest := core.Vec(0, 0, 0)
	offset := core.Vec(100, 0, -100)
	res := Run(RunInput{
		Movement:    physics.ForVersion(core.Post1212),
		MaxTicks:    5,
		Destination: &dest,
		Offset:      &offset,
	})

	assert.True(t, res.Success)
	assert.InDelta(t, 0.0, res.Distance, 1e-12)
	assert.Equal(t, 100.0, res.LandingPosition.X)
	for _, p := range res.PositionTrace {
		assert.Equal(t, -100.0, p.Z)
	}
}

func TestRun_Idempotent(t *testing.T) {
	in := RunInput{
		Movement: physics.ForVersion(core.Legacy),
		Motion:   core.Vec(0.3, 0.5, -0.2),
		Charges:  []core.ChargeSource{{Position: core.Vec(0.5, -0.5, 0.5)}},
		MaxTicks: 200,
	}
	assert.Equal(t, Run(in), Run(in))
}

func TestScan_RecordsOnlyEligibleTicks(t *testing.T) {
	movement := physics.ForVersion(core.Post1205)
	eligible := make([]bool, 21)
	eligible[5] = true
	eligible[10] = true

	hits := Scan(ScanInput{
		Movement:      movement,
		Motion:        core.Vec(1, 0, 0),
		Destination:   core.Vec(5, 0, 0),
		MaxTick:       20,
		Eligible:      eligible,
		MaxDistanceSq: 1e6,
	})

	require.Len(t, hits, 2)
	assert.Equal(t, uint32(5), hits[0].Tick)
	assert.Equal(t, uint32(10), hits[1].Tick)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestScan_MatchesRun(t *testing.T) {
	movement := physics.ForVersion(core.Post1212)
	motion := core.Vec(0.7, 0.4, -0.3)
	offset := core.Vec(10, 0, 20)

	trace := Run(RunInput{Movement: movement, Motion: motion, MaxTicks: 30, Offset: &offset})

	eligible := make([]bool, 31)
	eligible[30] = true
	hits := Scan(ScanInput{
		Movement:      movement,
		Motion:        motion,
		Offset:        offset,
		Destination:   trace.LandingPosition,
		MaxTick:       30,
		Eligible:      eligible,
		MaxDistanceSq: 1,
	})

	require.Len(t, hits, 1)
	assert.Equal(t, trace.LandingPosition, hits[0].Position)
	assert.Equal(t, trace.FinalMotion, hits[0].Motion)
	assert.Equal(t, 0.0, hits[0].Distance)
}

func TestScan_MaxDistanceFilters(t *testing.T) {
	eligible := []bool{false, true, true}
	hits := Scan(ScanInput{
		Movement:      physics.ForVersion(core.Post1205),
		Destination:   core.Vec(50, 0, 0),
		MaxTick:       2,
		Eligible:      eligible,
		MaxDistanceSq: 100,
	})
	assert.Empty(t, hits)
}

func TestScan_FloorHoldsPearl(t *testing.T) {
	floor := []core.AABB{{Min: core.Vec(-50, -1, -50), Max: core.Vec(50, 0, 50)}}
	eligible := make([]bool, 101)
	for i := range eligible {
		eligible[i] = true
	}

	hits := Scan(ScanInput{
		Movement:      physics.ForVersion(core.Post1212),
		Boxes:         floor,
		MaxTick:       100,
		Eligible:      eligible,
		MaxDistanceSq: 1,
	})

	require.Len(t, hits, 100)
	assert.Equal(t, 0.0, hits[len(hits)-1].Position.Y)
}

func TestBest_PrefersEarlierTickOnTie(t *testing.T) {
	hits := []Hit{
		{Tick: 40, Distance: 0.5},
		{Tick: 12, Distance: 0.5},
		{Tick: 30, Distance: 0.7},
	}
	best, ok := Best(hits)
	require.True(t, ok)
	assert.Equal(t, uint32(12), best.Tick)

	hits = append(hits, Hit{Tick: 90, Distance: 0.1})
	best, _ = Best(hits)
	assert.Equal(t, uint32(90), best.Tick)

	_, ok = Best(nil)
	assert.False(t, ok)
}
