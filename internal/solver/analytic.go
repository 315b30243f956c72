package solver

import (
	"math"

	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/pkg/core"
)

// center is a rounded analytic charge triple. Components may be negative
// only transiently while solving.
type center struct {
	red, blue, vertical int32
}

// analyticInput is what the closed form needs to back-solve charge counts.
type analyticInput struct {
	sources      Sources
	displacement core.Vector3
	startMotion  core.Vector3
	maxTicks     uint32
	movement     physics.Movement
}

// solveAnalytic back-solves ideal charge counts for every tick in
// 1..maxTicks and buckets the ticks under their rounded triple.
func solveAnalytic(in analyticInput) (map[center][]uint32, error) {
	buckets := make(map[center][]uint32)

	var fallVelocity, fall float64
	dragPow := 1.0
	for tick := uint32(1); tick <= in.maxTicks; tick++ {
		fallVelocity, fall = in.movement.Fall(fallVelocity, fall)
		dragPow *= physics.Drag

		compensated := in.displacement
		compensated.Y -= fall

		divider := in.movement.Projection() * (1 - dragPow) / (1 - physics.Drag)
		required := compensated.Div(divider).Sub(in.startMotion)

		var r, b, v float64
		if in.sources.HasVertical {
			var ok bool
			r, b, v, ok = solve3(in.sources.Red, in.sources.Blue, in.sources.Vertical, required)
			if !ok {
				continue
			}
		} else {
			var err error
			r, b, err = solve2(in.sources.Red, in.sources.Blue, required)
			if err != nil {
				return nil, err
			}
		}

		c := center{
			red:      int32(math.Round(r)),
			blue:     int32(math.Round(b)),
			vertical: int32(math.Round(v)),
		}
		if c.red < 0 || c.blue < 0 || c.vertical < 0 {
			continue
		}
		buckets[c] = append(buckets[c], tick)
	}
	return buckets, nil
}

// solve2 solves red*R + blue*B = D on the horizontal plane.
func solve2(red, blue, d core.Vector3) (float64, float64, error) {
	det := red.X*blue.Z - blue.X*red.Z
	if math.Abs(det) < physics.Epsilon {
		return 0, 0, ErrCollinearSources
	}
	r := (d.X*blue.Z - blue.X*d.Z) / det
	b := (red.X*d.Z - d.X*red.Z) / det
	return r, b, nil
}

// solve3 solves red*R + blue*B + vert*V = D by Cramer's rule.
func solve3(red, blue, vert, d core.Vector3) (float64, float64, float64, bool) {
	bv := blue.Cross(vert)
	det := red.Dot(bv)
	if math.Abs(det) < physics.Epsilon {
		return 0, 0, 0, false
	}
	r := d.Dot(bv) / det
	b := red.Dot(d.Cross(vert)) / det
	v := red.Dot(blue.Cross(d)) / det
	return r, b, v, true
}
