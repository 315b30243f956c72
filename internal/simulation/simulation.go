// Package simulation runs pearls forward tick by tick.
package simulation

import (
	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/pkg/core"
)

// RunInput describes a full forward trace.
type RunInput struct {
	Movement physics.Movement
	Position core.Vector3
	Motion   core.Vector3
	Charges  []core.ChargeSource
	MaxTicks uint32
	Boxes    []core.AABB
	// NoGravity disables gravity for the whole run.
	NoGravity bool

	// Destination, when set, is compared in internal coordinates.
	Destination *core.Vector3
	// Offset, when set, is added to the landing position and every trace point.
	Offset *core.Vector3
}

// Run simulates MaxTicks ticks. Charges fire before the tick whose index
// equals their fuse. Tick 0 is recorded before any impulse.
func Run(in RunInput) core.TraceResult {
	state := core.EntityState{Position: in.Position, Motion: in.Motion, Gravity: !in.NoGravity}

	positions := make([]core.Vector3, 0, in.MaxTicks+1)
	motions := make([]core.Vector3, 0, in.MaxTicks+1)
	positions = append(positions, state.Position)
	motions = append(motions, state.Motion)

	for tick := uint32(0); tick < in.MaxTicks; tick++ {
		fire(&state, in.Charges, tick)
		in.Movement.Tick(&state, in.Boxes)

		positions = append(positions, state.Position)
		motions = append(motions, state.Motion)
	}

	result := core.TraceResult{
		LandingPosition: state.Position,
		FinalMotion:     state.Motion,
		PositionTrace:   dedup(positions),
		MotionTrace:     dedup(motions),
		ReachedTick:     in.MaxTicks,
	}

	if in.Destination != nil {
		result.Distance = state.Position.Distance2D(*in.Destination)
		result.Success = result.Distance <= physics.SuccessRadius
	}

	if in.Offset != nil {
		result.LandingPosition = result.LandingPosition.Add(*in.Offset)
		for i := range result.PositionTrace {
			result.PositionTrace[i] = result.PositionTrace[i].Add(*in.Offset)
		}
	}

	return result
}

// fire adds the impulse of every charge with the given fuse to the pearl.
func fire(state *core.EntityState, charges []core.ChargeSource, tick uint32) {
	for _, c := range charges {
		if c.Fuse == tick {
			state.Motion = state.Motion.Add(physics.Impulse(state.Position, c.Position))
		}
	}
}

// dedup collapses consecutive identical points in place.
func dedup(points []core.Vector3) []core.Vector3 {
	if len(points) < 2 {
		return points
	}
	out := points[:1]
	for _, p := range points[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
