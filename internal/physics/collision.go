package physics

import (
	"math"

	"github.com/PearlCalc/extension/pkg/core"
)

type axis int

const (
	axisX axis = iota
	axisY
	axisZ
)

func component(v core.Vector3, a axis) float64 {
	switch a {
	case axisX:
		return v.X
	case axisY:
		return v.Y
	default:
		return v.Z
	}
}

func withComponent(v core.Vector3, a axis, value float64) core.Vector3 {
	switch a {
	case axisX:
		v.X = value
	case axisY:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// pearlBox returns the pearl's bounding box for a feet position.
func pearlBox(pos core.Vector3) core.AABB {
	return core.AABB{
		Min: core.Vector3{X: pos.X - PearlHalfWidth, Y: pos.Y, Z: pos.Z - PearlHalfWidth},
		Max: core.Vector3{X: pos.X + PearlHalfWidth, Y: pos.Y + PearlHeight, Z: pos.Z + PearlHalfWidth},
	}
}

// overlapsOn reports whether a and b overlap on both axes other than skip.
func overlapsOn(a, b core.AABB, skip axis) bool {
	for _, ax := range [3]axis{axisX, axisY, axisZ} {
		if ax == skip {
			continue
		}
		if component(a.Max, ax) <= component(b.Min, ax) || component(a.Min, ax) >= component(b.Max, ax) {
			return false
		}
	}
	return true
}

// clipAxis shortens delta along ax so that box does not enter any of boxes.
func clipAxis(box core.AABB, boxes []core.AABB, ax axis, delta float64) float64 {
	if delta == 0 {
		return 0
	}
	for _, b := range boxes {
		if !overlapsOn(box, b, ax) {
			continue
		}
		if delta > 0 && component(box.Max, ax) <= component(b.Min, ax) {
			delta = math.Min(delta, component(b.Min, ax)-component(box.Max, ax))
		} else if delta < 0 && component(box.Min, ax) >= component(b.Max, ax) {
			delta = math.Max(delta, component(b.Max, ax)-component(box.Min, ax))
		}
	}
	return delta
}

// Collide returns the displacement actually travelled from pos along delta,
// clamped against boxes. Y is resolved first, then the horizontal axis with
// the smaller magnitude, then the other one.
func Collide(pos, delta core.Vector3, boxes []core.AABB) core.Vector3 {
	if len(boxes) == 0 {
		return delta
	}
	order := [3]axis{axisY, axisX, axisZ}
	if math.Abs(delta.X) < math.Abs(delta.Z) {
		order = [3]axis{axisY, axisZ, axisX}
	}

	box := pearlBox(pos)
	var moved core.Vector3
	for _, ax := range order {
		d := clipAxis(box, boxes, ax, component(delta, ax))
		moved = withComponent(moved, ax, d)
		box.Min = withComponent(box.Min, ax, component(box.Min, ax)+d)
		box.Max = withComponent(box.Max, ax, component(box.Max, ax)+d)
	}
	return moved
}

// Move advances state by its motion, clamped against boxes.
func Move(state *core.EntityState, boxes []core.AABB) {
	state.Position = state.Position.Add(Collide(state.Position, state.Motion, boxes))
}
