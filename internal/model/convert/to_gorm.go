// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/PearlCalc/extension/internal/geo"
	"github.com/PearlCalc/extension/internal/model"
	"github.com/PearlCalc/extension/pkg/core"
	"gorm.io/datatypes"
)

func vec3(v core.Vector3) model.Vec3 {
	return model.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// vectorsToJSON converts a trace to datatypes.JSON for DB storage.
func vectorsToJSON(vs []core.Vector3) datatypes.JSON {
	out := make([]model.Vec3, len(vs))
	for i, v := range vs {
		out[i] = vec3(v)
	}
	data, _ := json.Marshal(out)
	return datatypes.JSON(data)
}

// CoreToCalculation converts a solve record and its ranked results.
func CoreToCalculation(r core.SolveRecord) model.Calculation {
	c := model.Calculation{
		ID:          r.ID,
		Time:        r.RequestedAt,
		DurationMs:  float64(r.Duration.Microseconds()) / 1000,
		Version:     r.Version.String(),
		Mode:        r.Mode.String(),
		Start:       vec3(r.Start),
		Destination: vec3(r.Destination),
		MaxTicks:    r.MaxTicks,
		MaxDistance: r.MaxDistance,
		Candidates:  r.Candidates,
		ResultCount: len(r.Results),
		Results:     make([]model.CalculationResult, len(r.Results)),
	}
	for i, res := range r.Results {
		c.Results[i] = CoreToCalculationResult(res, i)
	}
	return c
}

// CoreToCalculationResult converts one result at the given rank.
func CoreToCalculationResult(r core.SolveResult, rank int) model.CalculationResult {
	return model.CalculationResult{
		Rank:        rank,
		Red:         r.Red,
		Blue:        r.Blue,
		Vertical:    r.Vertical,
		Total:       r.Total,
		Tick:        r.Tick,
		Distance:    r.Distance,
		EndPosition: vec3(r.EndPosition),
		EndMotion:   vec3(r.EndMotion),
		Direction:   r.Heading.String(),
		Yaw:         r.Yaw,
		Pitch:       r.Pitch,
	}
}

// CoreToTrace converts a trace record. The path is stored both as JSON and
// as WKT.
func CoreToTrace(r core.TraceRecord) model.Trace {
	t := model.Trace{
		ID:          r.ID,
		Time:        r.RequestedAt,
		Kind:        string(r.Kind),
		Version:     r.Version.String(),
		Red:         r.Red,
		Blue:        r.Blue,
		Vertical:    r.Vertical,
		Landing:     vec3(r.Result.LandingPosition),
		FinalMotion: vec3(r.Result.FinalMotion),
		ReachedTick: r.Result.ReachedTick,
		Success:     r.Result.Success,
		Distance:    r.Result.Distance,
		Destination: datatypes.JSON("null"),
		Positions:   vectorsToJSON(r.Result.PositionTrace),
		Motions:     vectorsToJSON(r.Result.MotionTrace),
		Path:        geo.WKT(r.Result.PositionTrace),
		PathLength:  geo.HorizontalLength(r.Result.PositionTrace),
	}
	if r.Destination != nil {
		data, _ := json.Marshal(vec3(*r.Destination))
		t.Destination = datatypes.JSON(data)
	}
	return t
}
