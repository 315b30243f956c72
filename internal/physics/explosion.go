package physics

import (
	"math"

	"github.com/PearlCalc/extension/pkg/core"
)

// Impulse returns the motion delta one charge at chargePos gives a pearl at
// entityPos. Charges at or beyond ExplosionRadius have no effect, and the
// strength falls off linearly to zero at the radius.
func Impulse(entityPos, chargePos core.Vector3) core.Vector3 {
	center := chargePos
	center.Y += ChargeYOffset

	d := entityPos.Sub(center)
	dist := d.Length()
	if dist >= ExplosionRadius {
		return core.Vector3{}
	}

	dir := core.Vector3{
		X: d.X,
		Y: entityPos.Y + ExplosionYFactor*PearlHeight - center.Y,
		Z: d.Z,
	}
	length := dir.Length()
	if math.Abs(length) < Epsilon {
		return core.Vector3{}
	}

	strength := 1.0 - dist/ExplosionRadius
	return dir.Div(length).Scale(strength)
}
