package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/PearlCalc/extension/internal/model"
	"github.com/PearlCalc/extension/pkg/core"
)

func vector(v model.Vec3) core.Vector3 {
	return core.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

func jsonToVectors(data []byte) ([]core.Vector3, error) {
	var vs []model.Vec3
	if err := json.Unmarshal(data, &vs); err != nil {
		return nil, err
	}
	out := make([]core.Vector3, len(vs))
	for i, v := range vs {
		out[i] = vector(v)
	}
	return out, nil
}

func parseVersion(s string) (core.Version, error) {
	for _, v := range core.Versions {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown version %q", s)
}

func parseHeading(s string) (core.Heading, error) {
	for _, h := range core.Headings {
		if h.String() == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// CalculationToCore converts a stored calculation. Results are expected in
// rank order.
func CalculationToCore(c model.Calculation) (core.SolveRecord, error) {
	version, err := parseVersion(c.Version)
	if err != nil {
		return core.SolveRecord{}, err
	}
	mode := core.Standard
	if c.Mode == core.Accumulation.String() {
		mode = core.Accumulation
	}

	r := core.SolveRecord{
		ID:          c.ID,
		RequestedAt: c.Time,
		Duration:    time.Duration(c.DurationMs * float64(time.Millisecond)),
		Version:     version,
		Mode:        mode,
		Start:       vector(c.Start),
		Destination: vector(c.Destination),
		MaxTicks:    c.MaxTicks,
		MaxDistance: c.MaxDistance,
		Candidates:  c.Candidates,
		Results:     make([]core.SolveResult, len(c.Results)),
	}
	for i, res := range c.Results {
		if r.Results[i], err = CalculationResultToCore(res); err != nil {
			return core.SolveRecord{}, fmt.Errorf("result %d: %w", res.ID, err)
		}
	}
	return r, nil
}

func CalculationResultToCore(r model.CalculationResult) (core.SolveResult, error) {
	heading, err := parseHeading(r.Direction)
	if err != nil {
		return core.SolveResult{}, err
	}
	return core.SolveResult{
		Red:         r.Red,
		Blue:        r.Blue,
		Vertical:    r.Vertical,
		Total:       r.Total,
		Tick:        r.Tick,
		Distance:    r.Distance,
		EndPosition: vector(r.EndPosition),
		EndMotion:   vector(r.EndMotion),
		Heading:     heading,
		Yaw:         r.Yaw,
		Pitch:       r.Pitch,
	}, nil
}

// TraceToCore converts a stored trace back into a record.
func TraceToCore(t model.Trace) (core.TraceRecord, error) {
	version, err := parseVersion(t.Version)
	if err != nil {
		return core.TraceRecord{}, err
	}
	positions, err := jsonToVectors(t.Positions)
	if err != nil {
		return core.TraceRecord{}, fmt.Errorf("positions: %w", err)
	}
	motions, err := jsonToVectors(t.Motions)
	if err != nil {
		return core.TraceRecord{}, fmt.Errorf("motions: %w", err)
	}

	r := core.TraceRecord{
		ID:          t.ID,
		RequestedAt: t.Time,
		Kind:        core.TraceKind(t.Kind),
		Version:     version,
		Red:         t.Red,
		Blue:        t.Blue,
		Vertical:    t.Vertical,
		Result: core.TraceResult{
			LandingPosition: vector(t.Landing),
			FinalMotion:     vector(t.FinalMotion),
			PositionTrace:   positions,
			MotionTrace:     motions,
			ReachedTick:     t.ReachedTick,
			Success:         t.Success,
			Distance:        t.Distance,
		},
	}
	if len(t.Destination) > 0 && string(t.Destination) != "null" {
		var d model.Vec3
		if err := json.Unmarshal(t.Destination, &d); err != nil {
			return core.TraceRecord{}, fmt.Errorf("destination: %w", err)
		}
		dest := vector(d)
		r.Destination = &dest
	}
	return r, nil
}
