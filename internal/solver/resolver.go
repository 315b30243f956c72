package solver

import (
	"fmt"

	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/pkg/core"
)

// partner[h][c] is the corner paired with c when flying towards h. It is
// filled once from the cardinal bit encoding and checked for completeness.
var partner = buildPartnerTable()

func buildPartnerTable() map[core.Heading][4]core.Corner {
	table := make(map[core.Heading][4]core.Corner, len(core.Headings))
	for _, h := range core.Headings {
		var row [4]core.Corner
		for _, c := range core.Corners {
			bits := (^(h | c.Bits()) & 0xF) | h.Invert()
			p, ok := core.CornerFromBits(bits)
			if !ok {
				panic(fmt.Sprintf("solver: no corner for heading %s and corner %s (bits %04b)", h, c, bits))
			}
			row[c] = p
		}
		table[h] = row
	}
	return table
}

// Sources holds the per unit charge impulse of each group.
type Sources struct {
	Red      core.Vector3
	Blue     core.Vector3
	Vertical core.Vector3

	RedCorner   *core.Corner
	BlueCorner  *core.Corner
	HasVertical bool
}

// ResolveCorners picks the red and blue corners for a heading. If the
// default blue corner does not face h it is kept and red is derived from it,
// otherwise red is kept and blue is derived.
func ResolveCorners(defaultRed, defaultBlue *core.Corner, h core.Heading) (red, blue core.Corner, err error) {
	if defaultBlue == nil {
		return 0, 0, fmt.Errorf("%w: blue", ErrMissingDefaultCorner)
	}
	if defaultBlue.Bits()&h == 0 {
		return partner[h][*defaultBlue], *defaultBlue, nil
	}
	if defaultRed == nil {
		return 0, 0, fmt.Errorf("%w: red", ErrMissingDefaultCorner)
	}
	return *defaultRed, partner[h][*defaultRed], nil
}

// ResolveSources returns the unit impulse vectors of the red, blue and
// vertical groups for a heading. Overrides bypass corner resolution.
func ResolveSources(cannon core.CannonConfig, h core.Heading) (Sources, error) {
	redPos, bluePos := cannon.RedOverride, cannon.BlueOverride
	var s Sources

	if redPos == nil || bluePos == nil {
		red, blue, err := ResolveCorners(cannon.DefaultRed, cannon.DefaultBlue, h)
		if err != nil {
			return Sources{}, err
		}
		if redPos == nil {
			redPos = &cannon.Corners[red]
			s.RedCorner = &red
		}
		if bluePos == nil {
			bluePos = &cannon.Corners[blue]
			s.BlueCorner = &blue
		}
	}

	at := core.Vector3{X: cannon.Offset.X, Y: cannon.PearlPosition.Y, Z: cannon.Offset.Z}
	s.Red = physics.Impulse(at, *redPos)
	s.Blue = physics.Impulse(at, *bluePos)
	if cannon.Vertical != nil {
		s.Vertical = physics.Impulse(at, *cannon.Vertical)
		s.HasVertical = true
	}
	return s, nil
}
