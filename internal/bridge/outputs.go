package bridge

import (
	"math"

	"github.com/PearlCalc/extension/internal/physics"
	"github.com/PearlCalc/extension/pkg/core"
)

// Vec3Output serialises a vector with upper case keys.
type Vec3Output struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
	Z float64 `json:"Z"`
}

func vec3(v core.Vector3) Vec3Output {
	return Vec3Output{X: v.X, Y: v.Y, Z: v.Z}
}

// TNTResultOutput is one solve result.
type TNTResultOutput struct {
	Distance       float64    `json:"distance"`
	Tick           uint32     `json:"tick"`
	Blue           uint32     `json:"blue"`
	Red            uint32     `json:"red"`
	Vertical       uint32     `json:"vertical"`
	Total          uint32     `json:"total"`
	Yaw            float64    `json:"yaw"`
	Pitch          float64    `json:"pitch"`
	PearlEndPos    Vec3Output `json:"pearl_end_pos"`
	PearlEndMotion Vec3Output `json:"pearl_end_motion"`
	Direction      string     `json:"direction"`
}

// NewTNTResultOutput converts a solve result.
func NewTNTResultOutput(r core.SolveResult) TNTResultOutput {
	return TNTResultOutput{
		Distance:       r.Distance,
		Tick:           r.Tick,
		Blue:           r.Blue,
		Red:            r.Red,
		Vertical:       r.Vertical,
		Total:          r.Total,
		Yaw:            r.Yaw,
		Pitch:          r.Pitch,
		PearlEndPos:    vec3(r.EndPosition),
		PearlEndMotion: vec3(r.EndMotion),
		Direction:      r.Heading.String(),
	}
}

// ClosestApproachOutput is the trace point nearest a 2D destination.
type ClosestApproachOutput struct {
	Tick     uint32     `json:"tick"`
	Point    Vec3Output `json:"point"`
	Distance float64    `json:"distance"`
}

// PearlTraceOutput is a full trace.
type PearlTraceOutput struct {
	LandingPosition  Vec3Output             `json:"landing_position"`
	PearlTrace       []Vec3Output           `json:"pearl_trace"`
	PearlMotionTrace []Vec3Output           `json:"pearl_motion_trace"`
	IsSuccessful     bool                   `json:"is_successful"`
	Tick             uint32                 `json:"tick"`
	FinalMotion      Vec3Output             `json:"final_motion"`
	Distance         float64                `json:"distance"`
	ClosestApproach  *ClosestApproachOutput `json:"closest_approach"`
}

// NewPearlTraceOutput converts a trace. When destination is set, the landing
// distance, success flag and closest approach are measured against it on the
// horizontal plane.
func NewPearlTraceOutput(res core.TraceResult, destination *core.Vector3) PearlTraceOutput {
	out := PearlTraceOutput{
		LandingPosition:  vec3(res.LandingPosition),
		PearlTrace:       make([]Vec3Output, len(res.PositionTrace)),
		PearlMotionTrace: make([]Vec3Output, len(res.MotionTrace)),
		Tick:             res.ReachedTick,
		FinalMotion:      vec3(res.FinalMotion),
	}
	for i, p := range res.PositionTrace {
		out.PearlTrace[i] = vec3(p)
	}
	for i, m := range res.MotionTrace {
		out.PearlMotionTrace[i] = vec3(m)
	}

	if destination != nil {
		out.Distance = res.LandingPosition.Distance2D(*destination)
		out.IsSuccessful = out.Distance <= physics.SuccessRadius
		out.ClosestApproach = closestApproach(res.PositionTrace, *destination)
	}
	return out
}

// closestApproach returns the first trace point with the smallest 2D
// distance to destination. The tick is the index into the collapsed trace.
func closestApproach(trace []core.Vector3, destination core.Vector3) *ClosestApproachOutput {
	best := &ClosestApproachOutput{Distance: math.Inf(1)}
	for i, p := range trace {
		if d := p.Distance2D(destination); d < best.Distance {
			best.Distance = d
			best.Tick = uint32(i)
			best.Point = vec3(p)
		}
	}
	return best
}
