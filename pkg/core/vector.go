// pkg/core/vector.go
package core

import "math"

// Epsilon is the tolerance shared by every "is zero" and "is equal" comparison.
const Epsilon = 1e-9

// Vector3 is a 3D double precision vector. Values are never mutated in place.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec creates a new Vector3.
func Vec(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Div returns v / s.
func (v Vector3) Div(s float64) Vector3 {
	return Vector3{v.X / s, v.Y / s, v.Z / s}
}

// Negate returns -v.
func (v Vector3) Negate() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product.
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v × o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// LengthSq returns the squared length.
func (v Vector3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length returns the euclidean length.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// Distance2DSq returns the squared distance on the horizontal (x, z) plane.
func (v Vector3) Distance2DSq(o Vector3) float64 {
	dx := v.X - o.X
	dz := v.Z - o.Z
	return dx*dx + dz*dz
}

// Distance2D returns the distance on the horizontal (x, z) plane.
func (v Vector3) Distance2D(o Vector3) float64 {
	return math.Sqrt(v.Distance2DSq(o))
}

// IsZero reports whether the squared length is below Epsilon.
func (v Vector3) IsZero() bool {
	return v.LengthSq() < Epsilon
}

// YawTo returns the yaw in degrees pointing from v towards o.
// South (+Z) is 0, West (-X) is 90, North is ±180 and East (+X) is -90.
func (v Vector3) YawTo(o Vector3) float64 {
	d := o.Sub(v)
	return -math.Atan2(d.X, d.Z) * 180.0 / math.Pi
}

// PitchTo returns the pitch in degrees pointing from v towards o. Upward is negative.
func (v Vector3) PitchTo(o Vector3) float64 {
	d := o.Sub(v)
	horizontal := math.Sqrt(d.X*d.X + d.Z*d.Z)
	return -math.Atan2(d.Y, horizontal) * 180.0 / math.Pi
}
