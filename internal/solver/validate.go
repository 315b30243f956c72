package solver

import (
	"cmp"
	"slices"

	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/internal/simulation"
	"github.com/PearlCalc/extension/pkg/core"
)

// validation is shared by every candidate of one solve.
type validation struct {
	sources       Sources
	position      core.Vector3
	motion        core.Vector3
	offset        core.Vector3
	start         core.Vector3 // pearl start in world coordinates
	destination   core.Vector3
	maxDistanceSq float64
	movement      physics.Movement
	boxes         []core.AABB
}

// validate re-simulates one candidate and returns its closest eligible hit.
func (v *validation) validate(c Candidate) (core.SolveResult, bool) {
	k := c.Key
	motion := v.motion.
		Add(v.sources.Red.Scale(float64(k.Red))).
		Add(v.sources.Blue.Scale(float64(k.Blue))).
		Add(v.sources.Vertical.Scale(float64(k.Vertical)))

	hits := simulation.Scan(simulation.ScanInput{
		Movement:      v.movement,
		Position:      v.position,
		Motion:        motion,
		Boxes:         v.boxes,
		Offset:        v.offset,
		Destination:   v.destination,
		MaxTick:       c.MaxTick(),
		Eligible:      c.Eligible(),
		MaxDistanceSq: v.maxDistanceSq,
	})
	best, ok := simulation.Best(hits)
	if !ok {
		return core.SolveResult{}, false
	}

	yaw := v.start.YawTo(best.Position)
	return core.SolveResult{
		Red:         k.Red,
		Blue:        k.Blue,
		Vertical:    k.Vertical,
		Total:       k.Red + k.Blue + k.Vertical,
		Tick:        best.Tick,
		Distance:    best.Distance,
		EndPosition: best.Position,
		EndMotion:   best.Motion,
		Heading:     core.HeadingFromAngle(yaw),
		Yaw:         yaw,
		Pitch:       v.start.PitchTo(best.Position),
	}, true
}

// reduce keeps the best result per key and sorts the survivors by distance,
// tick, total, red and blue.
func reduce(results []core.SolveResult) []core.SolveResult {
	best := make(map[core.CandidateKey]core.SolveResult, len(results))
	for _, r := range results {
		prev, seen := best[r.Key()]
		if !seen || simulation.Closer(r.Distance, r.Tick, prev.Distance, prev.Tick) {
			best[r.Key()] = r
		}
	}

	out := make([]core.SolveResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	slices.SortFunc(out, compareResults)
	return out
}

func compareResults(a, b core.SolveResult) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Tick, b.Tick); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Total, b.Total); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Red, b.Red); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Blue, b.Blue); c != 0 {
		return c
	}
	return cmp.Compare(a.Vertical, b.Vertical)
}
