package physics

import (
	"fmt"

	"github.com/PearlCalc/extension/pkg/core"
)

// Movement is one tick of pearl physics. Implementations are stateless.
type Movement interface {
	// Tick applies one tick of movement, drag and gravity to state.
	Tick(state *core.EntityState, boxes []core.AABB)

	// Fall advances a scalar vertical (velocity, position) pair through one
	// impulse-free tick using the same ordering and precision as Tick.
	Fall(velocity, position float64) (float64, float64)

	// Projection is the factor applied to the geometric drag series when
	// converting one unit of start motion into displacement.
	Projection() float64
}

var (
	legacyMovement   = movementLegacy{}
	post1205Movement = movementPost1205{}
	post1212Movement = movementPost1212{}
)

// ForVersion returns the movement rules of v. It is the only place in the
// module that branches on the version.
func ForVersion(v core.Version) Movement {
	switch v {
	case core.Legacy:
		return legacyMovement
	case core.Post1205:
		return post1205Movement
	case core.Post1212:
		return post1212Movement
	default:
		panic(fmt.Sprintf("physics: unknown version %d", uint8(v)))
	}
}

// movementLegacy moves, then drags, then applies gravity in float32.
type movementLegacy struct{}

func (movementLegacy) Tick(state *core.EntityState, boxes []core.AABB) {
	Move(state, boxes)

	mx := float32(state.Motion.X) * float32(Drag)
	my := float32(state.Motion.Y) * float32(Drag)
	mz := float32(state.Motion.Z) * float32(Drag)
	if state.Gravity {
		my -= float32(Gravity)
	}
	state.Motion = core.Vector3{X: float64(mx), Y: float64(my), Z: float64(mz)}
}

func (movementLegacy) Fall(velocity, position float64) (float64, float64) {
	position += velocity
	v := float32(velocity) * float32(Drag)
	v -= float32(Gravity)
	return float64(v), position
}

func (movementLegacy) Projection() float64 { return 1 }

// movementPost1205 keeps the legacy ordering in float64.
type movementPost1205 struct{}

func (movementPost1205) Tick(state *core.EntityState, boxes []core.AABB) {
	Move(state, boxes)

	state.Motion = state.Motion.Scale(Drag)
	if state.Gravity {
		state.Motion.Y -= Gravity
	}
}

func (movementPost1205) Fall(velocity, position float64) (float64, float64) {
	position += velocity
	velocity = velocity*Drag - Gravity
	return velocity, position
}

func (movementPost1205) Projection() float64 { return 1 }

// movementPost1212 applies gravity, then drag, then moves.
type movementPost1212 struct{}

func (movementPost1212) Tick(state *core.EntityState, boxes []core.AABB) {
	if state.Gravity {
		state.Motion.Y -= Gravity
	}
	state.Motion = state.Motion.Scale(Drag)

	Move(state, boxes)
}

func (movementPost1212) Fall(velocity, position float64) (float64, float64) {
	velocity = (velocity - Gravity) * Drag
	position += velocity
	return velocity, position
}

func (movementPost1212) Projection() float64 { return Drag }
