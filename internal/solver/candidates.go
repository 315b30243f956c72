package solver

import (
	"cmp"
	"slices"

	"github.com/PearlCalc/extension/pkg/core"
)

// Candidate is an integer charge combination and the ticks at which it may
// land near the destination.
type Candidate struct {
	Key   core.CandidateKey
	Ticks []uint32 // ascending, unique
}

// MaxTick returns the last eligible tick.
func (c Candidate) MaxTick() uint32 {
	if len(c.Ticks) == 0 {
		return 0
	}
	return c.Ticks[len(c.Ticks)-1]
}

// Eligible returns a tick-indexed mask of the candidate's ticks.
func (c Candidate) Eligible() []bool {
	mask := make([]bool, c.MaxTick()+1)
	for _, t := range c.Ticks {
		mask[t] = true
	}
	return mask
}

// expandCandidates enumerates the integer neighbourhood of every analytic
// center and merges the tick lists of overlapping neighbourhoods. The result
// is sorted by key.
func expandCandidates(centers map[center][]uint32, sc core.SearchConstraints) []Candidate {
	var vLow, vHigh int32
	if sc.HasVertical {
		vLow, vHigh = -1, 1
	}
	capSides := sc.MaxTotalPerSide > 0 && sc.Mode != core.Accumulation && !sc.HasVertical

	merged := make(map[core.CandidateKey][]uint32)
	for c, ticks := range centers {
		for dr := -sc.SearchRadius; dr <= sc.SearchRadius; dr++ {
			for db := -sc.SearchRadius; db <= sc.SearchRadius; db++ {
				for dv := vLow; dv <= vHigh; dv++ {
					r, b, v := c.red+dr, c.blue+db, c.vertical+dv
					if r < 0 || b < 0 || v < 0 {
						continue
					}
					key := core.CandidateKey{Red: uint32(r), Blue: uint32(b), Vertical: uint32(v)}

					if capSides && max(key.Red, key.Blue) > sc.MaxTotalPerSide {
						continue
					}
					if sc.MaxVertical != nil && key.Vertical > *sc.MaxVertical {
						continue
					}
					merged[key] = append(merged[key], ticks...)
				}
			}
		}
	}

	out := make([]Candidate, 0, len(merged))
	for key, ticks := range merged {
		slices.Sort(ticks)
		out = append(out, Candidate{Key: key, Ticks: slices.Compact(ticks)})
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		return compareKeys(a.Key, b.Key)
	})
	return out
}

func compareKeys(a, b core.CandidateKey) int {
	if c := cmp.Compare(a.Red, b.Red); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Blue, b.Blue); c != 0 {
		return c
	}
	return cmp.Compare(a.Vertical, b.Vertical)
}
