package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/PearlCalc/extension/internal/solver"
	"github.com/PearlCalc/extension/pkg/core"
)

// DefaultTraceTicks bounds trace requests, which carry no tick limit of their own.
const DefaultTraceTicks uint32 = 10000

// Calculator runs bridge requests against the solver. MaxTicks and
// MaxDistance fill in requests that leave them at zero.
type Calculator struct {
	Workers      int
	SearchRadius int32
	TraceTicks   uint32
	MaxTicks     uint32
	MaxDistance  float64
}

// NewCalculator returns a calculator with the default trace length.
func NewCalculator(workers int) *Calculator {
	return &Calculator{Workers: workers, TraceTicks: DefaultTraceTicks}
}

func (c *Calculator) traceTicks() uint32 {
	if c.TraceTicks == 0 {
		return DefaultTraceTicks
	}
	return c.TraceTicks
}

// CalculateTNTAmount searches the charge counts for a request. The version is
// checked before anything is simulated.
func (c *Calculator) CalculateTNTAmount(ctx context.Context, in CalculationInput) (*core.SolveRecord, error) {
	version, err := ParseVersion(in.Version)
	if err != nil {
		return nil, err
	}
	if in.MaxTicks == 0 {
		in.MaxTicks = c.MaxTicks
	}
	if in.MaxDistance == 0 {
		in.MaxDistance = c.MaxDistance
	}
	cannon := in.Cannon()
	destination := in.Destination()

	started := time.Now()
	out, err := solver.SolveDetailed(ctx, solver.SolveInput{
		Cannon:          cannon,
		Destination:     destination,
		MaxTotalPerSide: in.MaxTnt,
		MaxVertical:     in.MaxVerticalTnt,
		MaxTicks:        in.MaxTicks,
		MaxDistance:     in.MaxDistance,
		Version:         version,
		SearchRadius:    c.SearchRadius,
		Workers:         c.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	return &core.SolveRecord{
		RequestedAt: started,
		Duration:    time.Since(started),
		Version:     version,
		Mode:        cannon.Mode,
		Start:       cannon.PearlStart(),
		Destination: destination,
		MaxTicks:    in.MaxTicks,
		MaxDistance: in.MaxDistance,
		Candidates:  out.Candidates,
		Results:     out.Results,
	}, nil
}

// CalculatePearlTrace traces one charge combination of a cannon.
func (c *Calculator) CalculatePearlTrace(in PearlTraceInput) (*core.TraceRecord, error) {
	version, err := ParseVersion(in.Version)
	if err != nil {
		return nil, err
	}
	heading, err := in.Heading()
	if err != nil {
		return nil, err
	}

	var vertical uint32
	if in.VerticalTntAmount != nil {
		vertical = *in.VerticalTntAmount
	}

	started := time.Now()
	res, err := solver.TraceWithCounts(solver.TraceInput{
		Cannon:   in.Cannon(),
		Red:      in.RedTnt,
		Blue:     in.BlueTnt,
		Vertical: vertical,
		Heading:  heading,
		MaxTicks: c.traceTicks(),
		Version:  version,
	})
	if err != nil {
		return nil, fmt.Errorf("pearl trace: %w", err)
	}

	dest := core.Vector3{X: in.DestinationX, Z: in.DestinationZ}
	if in.DestinationY != nil {
		dest.Y = *in.DestinationY
	}
	return &core.TraceRecord{
		RequestedAt: started,
		Kind:        core.TraceKindCannon,
		Version:     version,
		Red:         in.RedTnt,
		Blue:        in.BlueTnt,
		Vertical:    vertical,
		Destination: &dest,
		Result:      *res,
	}, nil
}

// CalculateRawTrace traces a pearl pushed by free standing charge groups.
func (c *Calculator) CalculateRawTrace(in RawTraceInput) (*core.TraceRecord, error) {
	version, err := ParseVersion(in.Version)
	if err != nil {
		return nil, err
	}

	groups := make([]core.ChargeGroup, len(in.TntGroups))
	for i, g := range in.TntGroups {
		groups[i] = core.ChargeGroup{Position: core.Vector3{X: g.X, Y: g.Y, Z: g.Z}, Count: g.Amount}
	}

	started := time.Now()
	res, err := solver.TraceRaw(solver.RawTraceInput{
		Position: core.Vector3{X: in.PearlX, Y: in.PearlY, Z: in.PearlZ},
		Motion:   core.Vector3{X: in.PearlMotionX, Y: in.PearlMotionY, Z: in.PearlMotionZ},
		Groups:   groups,
		MaxTicks: c.traceTicks(),
		Version:  version,
	})
	if err != nil {
		return nil, fmt.Errorf("raw trace: %w", err)
	}

	return &core.TraceRecord{
		RequestedAt: started,
		Kind:        core.TraceKindRaw,
		Version:     version,
		Result:      *res,
	}, nil
}

// SolveOutputs converts a solve record into its JSON result list.
func SolveOutputs(rec *core.SolveRecord) []TNTResultOutput {
	out := make([]TNTResultOutput, len(rec.Results))
	for i, r := range rec.Results {
		out[i] = NewTNTResultOutput(r)
	}
	return out
}

// TraceOutput converts a trace record into its JSON shape.
func TraceOutput(rec *core.TraceRecord) PearlTraceOutput {
	return NewPearlTraceOutput(rec.Result, rec.Destination)
}
