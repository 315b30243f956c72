package simulation

import (
	"math"

	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/pkg/core"
)

// ScanInput describes a candidate scan.
type ScanInput struct {
	Movement physics.Movement
	Position core.Vector3
	Motion   core.Vector3
	Charges  []core.ChargeSource
	Boxes    []core.AABB

	// Offset is added to the pearl position before any comparison.
	Offset      core.Vector3
	Destination core.Vector3

	MaxTick uint32
	// Eligible is indexed by tick. Ticks beyond its length are never recorded.
	Eligible      []bool
	MaxDistanceSq float64
}

// Hit is the pearl state at an eligible tick within range of the destination.
type Hit struct {
	Tick     uint32
	Position core.Vector3
	Motion   core.Vector3
	Distance float64
}

// Scan ticks the pearl from 1 to MaxTick and records a Hit at every eligible
// tick within MaxDistanceSq of the destination. It stops as soon as the pearl
// has come to rest.
func Scan(in ScanInput) []Hit {
	state := core.EntityState{Position: in.Position, Motion: in.Motion, Gravity: true}

	var hits []Hit
	for tick := uint32(1); tick <= in.MaxTick; tick++ {
		fire(&state, in.Charges, tick-1)
		in.Movement.Tick(&state, in.Boxes)

		pos := state.Position.Add(in.Offset)
		if int(tick) < len(in.Eligible) && in.Eligible[tick] {
			if d := pos.Distance2DSq(in.Destination); d <= in.MaxDistanceSq {
				hits = append(hits, Hit{
					Tick:     tick,
					Position: pos,
					Motion:   state.Motion,
					Distance: math.Sqrt(d),
				})
			}
		}

		if state.Motion.LengthSq() < physics.Epsilon {
			break
		}
	}
	return hits
}

// Best returns the closest hit, preferring the earlier tick when distances
// are equal within Epsilon.
func Best(hits []Hit) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if Closer(h.Distance, h.Tick, best.Distance, best.Tick) {
			best = h
		}
	}
	return best, true
}

// Closer orders (distance, tick) pairs: smaller distance first, then the
// smaller tick when the distances are equal within Epsilon.
func Closer(d1 float64, t1 uint32, d2 float64, t2 uint32) bool {
	if math.Abs(d1-d2) < physics.Epsilon {
		return t1 < t2
	}
	return d1 < d2
}
