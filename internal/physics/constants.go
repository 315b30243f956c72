// Package physics holds the per-tick pearl movement rules and the explosion
// impulse model. Everything here is stateless.
package physics

import "github.com/PearlCalc/extension/pkg/core"

// Physical constants shared by every movement variant.
const (
	Drag    = 0.99
	Gravity = 0.03

	ExplosionRadius = 8.0
	// ChargeYOffset lifts the explosion centre above the charge entity's feet.
	ChargeYOffset = 0.06125

	PearlHeight      = 0.25
	PearlHalfWidth   = 0.125
	ExplosionYFactor = 0.85

	// SuccessRadius is the horizontal distance at which a trace counts as a hit.
	SuccessRadius = 0.25

	Epsilon = core.Epsilon
)
