// Package geo converts pearl traces to simple-features geometries. Block
// coordinates map onto the plane as X to X and Z to Y, with height kept as
// the Z ordinate.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PearlCalc/extension/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

var (
	// ErrInvalidCoordinates is returned when the coordinates are invalid
	ErrInvalidCoordinates = errors.New("invalid coordinates provided")
	ErrTooFewPoints       = errors.New("trace needs at least 2 distinct points")
	ErrNotLineString      = errors.New("geometry is not a line string")
)

// VectorFromString parses "x,z" or "x,y,z" into a vector. The two value
// form leaves Y at 0.
func VectorFromString(coords string) (core.Vector3, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return core.Vector3{}, ErrInvalidCoordinates
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Vector3{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	if len(vals) == 2 {
		return core.Vector3{X: vals[0], Z: vals[1]}, nil
	}
	return core.Vector3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// Point converts one block position. Non-finite coordinates are rejected.
func Point(v core.Vector3) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X, Y: v.Z},
		Z:    v.Y,
		Type: geom.DimXYZ,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return pt, nil
}

// LineString converts a position trace. The trace must cover at least two
// distinct ground positions.
func LineString(trace []core.Vector3) (geom.LineString, error) {
	if len(trace) < 2 {
		return geom.LineString{}, ErrTooFewPoints
	}
	ls, err := geom.NewLineString(sequence(trace))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("%w: %v", ErrTooFewPoints, err)
	}
	return ls, nil
}

func sequence(trace []core.Vector3) geom.Sequence {
	flat := make([]float64, 0, len(trace)*3)
	for _, p := range trace {
		flat = append(flat, p.X, p.Z, p.Y)
	}
	return geom.NewSequence(flat, geom.DimXYZ)
}

// WKT renders a trace as well-known text. A single position renders as a
// POINT. A pearl moving straight up or down keeps its LINESTRING even though
// every vertex shares one ground position. Non-finite traces render as an
// empty point.
func WKT(trace []core.Vector3) string {
	empty := geom.NewEmptyPoint(geom.DimXYZ).AsText()
	if len(trace) == 0 {
		return empty
	}
	if ls, err := LineString(trace); err == nil {
		return ls.AsText()
	}
	for _, p := range trace {
		if _, err := Point(p); err != nil {
			return empty
		}
	}
	if len(trace) == 1 {
		pt, _ := Point(trace[0])
		return pt.AsText()
	}
	ls, _ := geom.NewLineString(sequence(trace), geom.DisableAllValidations)
	return ls.AsText()
}

// ParseWKT reads a trace written by WKT back into block positions.
func ParseWKT(wkt string) ([]core.Vector3, error) {
	g, err := geom.UnmarshalWKT(wkt, geom.DisableAllValidations)
	if err != nil {
		return nil, fmt.Errorf("parse trace geometry: %w", err)
	}
	switch g.Type() {
	case geom.TypePoint:
		pt, _ := g.AsPoint()
		xy, ok := pt.Coordinates()
		if !ok {
			return nil, nil
		}
		return []core.Vector3{{X: xy.X, Y: xy.Z, Z: xy.Y}}, nil
	case geom.TypeLineString:
		ls, _ := g.AsLineString()
		seq := ls.Coordinates()
		out := make([]core.Vector3, seq.Length())
		for i := range out {
			c := seq.Get(i)
			out[i] = core.Vector3{X: c.X, Y: c.Z, Z: c.Y}
		}
		return out, nil
	default:
		return nil, ErrNotLineString
	}
}

// HorizontalLength is the length of the trace projected on the ground plane.
func HorizontalLength(trace []core.Vector3) float64 {
	ls, err := LineString(trace)
	if err != nil {
		return 0
	}
	return ls.Length()
}

// Bounds returns the ground plane bounding box of a trace as min and max
// corners with Y left at 0.
func Bounds(trace []core.Vector3) (core.Vector3, core.Vector3, bool) {
	if len(trace) == 0 {
		return core.Vector3{}, core.Vector3{}, false
	}
	xys := make([]geom.XY, len(trace))
	for i, p := range trace {
		xys[i] = geom.XY{X: p.X, Y: p.Z}
	}
	env, err := geom.NewEnvelope(xys)
	if err != nil {
		return core.Vector3{}, core.Vector3{}, false
	}
	lo, hi, ok := env.MinMaxXYs()
	if !ok {
		return core.Vector3{}, core.Vector3{}, false
	}
	return core.Vector3{X: lo.X, Z: lo.Y}, core.Vector3{X: hi.X, Z: hi.Y}, true
}
