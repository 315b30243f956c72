// Package solver finds the charge counts that carry a pearl to a destination
// and traces single cannon configurations.
package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/internal/simulation"
	"github.com/PearlCalc/extension/pkg/core"
)

// DefaultSearchRadius is the red/blue neighbourhood explored around every
// analytic center.
const DefaultSearchRadius int32 = 5

// SolveInput is one charge search.
type SolveInput struct {
	Cannon      core.CannonConfig
	Destination core.Vector3 // world coordinates

	MaxTotalPerSide uint32 // 0 means unlimited
	MaxVertical     *uint32
	MaxTicks        uint32
	MaxDistance     float64
	Version         core.Version

	SearchRadius int32 // 0 means DefaultSearchRadius
	Workers      int   // <= 1 validates sequentially
	Boxes        []core.AABB
}

// Outcome is a solve with the bookkeeping callers report on.
type Outcome struct {
	Results    []core.SolveResult
	Heading    core.Heading
	Centers    int
	Candidates int
}

// Solve returns the verified charge combinations sorted by distance. An empty
// result is not an error: the destination may coincide with the start, the
// sources may be collinear or no candidate may come close enough.
func Solve(ctx context.Context, in SolveInput) ([]core.SolveResult, error) {
	out, err := SolveDetailed(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SolveDetailed is Solve with the intermediate counts.
func SolveDetailed(ctx context.Context, in SolveInput) (Outcome, error) {
	if in.MaxTicks == 0 {
		return Outcome{}, ErrInvalidMaxTicks
	}

	start := in.Cannon.PearlStart()
	displacement := in.Destination.Sub(start)
	if displacement.LengthSq() < physics.Epsilon {
		return Outcome{}, nil
	}

	heading := core.HeadingFromAngle(start.YawTo(in.Destination))
	sources, err := ResolveSources(in.Cannon, heading)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve sources for %s: %w", heading, err)
	}

	movement := physics.ForVersion(in.Version)
	centers, err := solveAnalytic(analyticInput{
		sources:      sources,
		displacement: displacement,
		startMotion:  in.Cannon.PearlMotion,
		maxTicks:     in.MaxTicks,
		movement:     movement,
	})
	if errors.Is(err, ErrCollinearSources) {
		return Outcome{Heading: heading}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	radius := in.SearchRadius
	if radius <= 0 {
		radius = DefaultSearchRadius
	}
	candidates := expandCandidates(centers, core.SearchConstraints{
		MaxTotalPerSide: in.MaxTotalPerSide,
		MaxVertical:     in.MaxVertical,
		SearchRadius:    radius,
		HasVertical:     sources.HasVertical,
		Mode:            in.Cannon.Mode,
	})

	v := &validation{
		sources:       sources,
		position:      in.Cannon.PearlPosition,
		motion:        in.Cannon.PearlMotion,
		offset:        in.Cannon.HorizontalOffset(),
		start:         start,
		destination:   in.Destination,
		maxDistanceSq: in.MaxDistance * in.MaxDistance,
		movement:      movement,
		boxes:         in.Boxes,
	}
	results, err := validateAll(ctx, v, candidates, in.Workers)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Results:    reduce(results),
		Heading:    heading,
		Centers:    len(centers),
		Candidates: len(candidates),
	}, nil
}

// TraceInput is a full trace of one cannon configuration.
type TraceInput struct {
	Cannon   core.CannonConfig
	Red      uint32
	Blue     uint32
	Vertical uint32
	Heading  core.Heading
	MaxTicks uint32
	Boxes    []core.AABB
	Version  core.Version
}

// TraceWithCounts resolves the sources for Heading, scales them by the
// counts and traces the pearl. Positions are reported in world coordinates.
func TraceWithCounts(in TraceInput) (*core.TraceResult, error) {
	sources, err := ResolveSources(in.Cannon, in.Heading)
	if err != nil {
		return nil, fmt.Errorf("resolve sources for %s: %w", in.Heading, err)
	}

	motion := in.Cannon.PearlMotion.
		Add(sources.Red.Scale(float64(in.Red))).
		Add(sources.Blue.Scale(float64(in.Blue)))
	if sources.HasVertical {
		motion = motion.Add(sources.Vertical.Scale(float64(in.Vertical)))
	}

	offset := in.Cannon.HorizontalOffset()
	res := simulation.Run(simulation.RunInput{
		Movement: physics.ForVersion(in.Version),
		Position: in.Cannon.PearlPosition,
		Motion:   motion,
		MaxTicks: in.MaxTicks,
		Boxes:    in.Boxes,
		Offset:   &offset,
	})
	return &res, nil
}

// RawTraceInput is a trace of a pearl pushed by free standing charge groups.
type RawTraceInput struct {
	Position core.Vector3
	Motion   core.Vector3
	Groups   []core.ChargeGroup
	MaxTicks uint32
	Boxes    []core.AABB
	Version  core.Version
}

// TraceRaw fires every group at tick 0 and traces the pearl.
func TraceRaw(in RawTraceInput) (*core.TraceResult, error) {
	motion := in.Motion
	for _, g := range in.Groups {
		motion = motion.Add(physics.Impulse(in.Position, g.Position).Scale(float64(g.Count)))
	}

	res := simulation.Run(simulation.RunInput{
		Movement: physics.ForVersion(in.Version),
		Position: in.Position,
		Motion:   motion,
		MaxTicks: in.MaxTicks,
		Boxes:    in.Boxes,
	})
	return &res, nil
}
