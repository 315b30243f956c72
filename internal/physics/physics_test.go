package physics

import (
	"math"
	"testing"

	"github.com/PearlCalc/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVersions = []core.Version{core.Legacy, core.Post1205, core.Post1212}

func TestImpulse_OutOfRangeIsZero(t *testing.T) {
	charge := core.Vec(0, 0, 0)
	center := core.Vec(0, ChargeYOffset, 0)

	for _, p := range []core.Vector3{
		center.Add(core.Vec(ExplosionRadius, 0, 0)),
		center.Add(core.Vec(0, 0, -ExplosionRadius)),
		core.Vec(20, 5, -3),
	} {
		assert.Equal(t, core.Vector3{}, Impulse(p, charge), "position %+v", p)
	}
}

func TestImpulse_DecreasesWithDistance(t *testing.T) {
	charge := core.Vec(0, 0, 0)
	prev := math.Inf(1)
	for x := 0.5; x < ExplosionRadius; x += 0.5 {
		m := Impulse(core.Vec(x, 0, 0), charge).Length()
		assert.Less(t, m, prev, "magnitude at x=%v", x)
		prev = m
	}
}

func TestImpulse_DegenerateDirectionIsZero(t *testing.T) {
	// Pearl placed so that the direction vector collapses to zero length.
	pos := core.Vec(0, ChargeYOffset-ExplosionYFactor*PearlHeight, 0)
	v := Impulse(pos, core.Vec(0, 0, 0))

	assert.False(t, math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z))
	assert.Equal(t, core.Vector3{}, v)
}

func TestImpulse_PointsAwayFromCharge(t *testing.T) {
	v := Impulse(core.Vec(0, 0, 0), core.Vec(-1, 0, -1))
	assert.Greater(t, v.X, 0.0)
	assert.Greater(t, v.Z, 0.0)
	assert.InDelta(t, v.X, v.Z, 1e-12)
}

func TestMovement_StaticWithoutGravity(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version.String(), func(t *testing.T) {
			m := ForVersion(version)
			state := core.EntityState{Position: core.Vec(3.5, 64, -12.25)}
			for i := 0; i < 500; i++ {
				m.Tick(&state, nil)
			}
			assert.Equal(t, core.Vec(3.5, 64, -12.25), state.Position)
			assert.Equal(t, core.Vector3{}, state.Motion)
		})
	}
}

func TestMovement_Ordering(t *testing.T) {
	start := core.EntityState{Motion: core.Vec(1, 0, 0), Gravity: true}

	s := start
	ForVersion(core.Post1205).Tick(&s, nil)
	assert.Equal(t, 1.0, s.Position.X, "moves before drag")
	assert.InDelta(t, 0.99, s.Motion.X, 1e-15)
	assert.InDelta(t, -Gravity, s.Motion.Y, 1e-15)
	assert.Equal(t, 0.0, s.Position.Y)

	s = start
	ForVersion(core.Post1212).Tick(&s, nil)
	assert.InDelta(t, 0.99, s.Position.X, 1e-15, "drags before moving")
	assert.InDelta(t, -Gravity*Drag, s.Position.Y, 1e-15)

	s = start
	ForVersion(core.Legacy).Tick(&s, nil)
	assert.Equal(t, float64(float32(0.99)), s.Motion.X, "single precision drag")
}

func TestMovement_FallMatchesTick(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version.String(), func(t *testing.T) {
			m := ForVersion(version)
			state := core.EntityState{Gravity: true}
			var v, p float64
			for i := 0; i < 100; i++ {
				m.Tick(&state, nil)
				v, p = m.Fall(v, p)
				require.InDelta(t, state.Position.Y, p, 1e-9, "tick %d", i)
				require.InDelta(t, state.Motion.Y, v, 1e-9, "tick %d", i)
			}
		})
	}
}

func TestMovement_Projection(t *testing.T) {
	assert.Equal(t, 1.0, ForVersion(core.Legacy).Projection())
	assert.Equal(t, 1.0, ForVersion(core.Post1205).Projection())
	assert.Equal(t, Drag, ForVersion(core.Post1212).Projection())
}

func TestForVersion_UnknownPanics(t *testing.T) {
	assert.Panics(t, func() { ForVersion(core.Version(42)) })
}

func TestCollide_NoBoxes(t *testing.T) {
	d := core.Vec(1.5, -2, 0.25)
	assert.Equal(t, d, Collide(core.Vec(0, 10, 0), d, nil))
}

func TestCollide_Floor(t *testing.T) {
	floor := []core.AABB{{Min: core.Vec(-10, 0, -10), Max: core.Vec(10, 1, 10)}}
	state := core.EntityState{Position: core.Vec(0, 1.5, 0), Motion: core.Vec(0.2, -1, 0)}

	Move(&state, floor)

	assert.InDelta(t, 1.0, state.Position.Y, 1e-12, "lands on top of the box")
	assert.InDelta(t, 0.2, state.Position.X, 1e-12, "horizontal motion unaffected")
}

func TestCollide_Wall(t *testing.T) {
	wall := []core.AABB{{Min: core.Vec(2, 0, -5), Max: core.Vec(3, 5, 5)}}
	moved := Collide(core.Vec(0, 1, 0), core.Vec(5, 0, 0), wall)

	assert.InDelta(t, 2-PearlHalfWidth, moved.X, 1e-12)
	assert.Equal(t, 0.0, moved.Y)
}

func TestCollide_MissesBoxOnOtherAxis(t *testing.T) {
	box := []core.AABB{{Min: core.Vec(2, 10, -5), Max: core.Vec(3, 11, 5)}}
	d := core.Vec(5, 0, 0)
	assert.Equal(t, d, Collide(core.Vec(0, 1, 0), d, box))
}
