// pkg/core/types.go
package core

import (
	"fmt"
	"math"
)

// Version selects one of the historical pearl movement rule sets.
type Version uint8

const (
	// Legacy is <= 1.20.4: float arithmetic, move then drag then gravity.
	Legacy Version = iota
	// Post1205 is 1.20.5 - 1.21.1: double arithmetic, move then drag then gravity.
	Post1205
	// Post1212 is >= 1.21.2: double arithmetic, gravity then drag then move.
	Post1212
)

// Versions lists every movement rule set in release order.
var Versions = [3]Version{Legacy, Post1205, Post1212}

func (v Version) String() string {
	switch v {
	case Legacy:
		return "Legacy"
	case Post1205:
		return "Post1205"
	case Post1212:
		return "Post1212"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// Mode changes how the per-side charge cap is enforced.
type Mode uint8

const (
	Standard Mode = iota
	// Accumulation lets either side exceed the configured per-side cap.
	Accumulation
)

func (m Mode) String() string {
	if m == Accumulation {
		return "Accumulation"
	}
	return "Standard"
}

// Heading is one of the four cardinal flight directions. The values are
// single bits so that corners can be expressed as the union of two headings.
type Heading uint8

const (
	North Heading = 1 << iota
	East
	South
	West
)

// Headings lists every heading in a stable order.
var Headings = [4]Heading{North, East, South, West}

func (h Heading) String() string {
	switch h {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return fmt.Sprintf("Heading(%d)", uint8(h))
	}
}

// Invert returns the opposite heading.
func (h Heading) Invert() Heading {
	switch h {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		panic(fmt.Sprintf("invert of invalid heading %d", uint8(h)))
	}
}

// HeadingFromAngle quantizes a yaw in degrees to the nearest cardinal heading.
// Yaw 0 faces South, 90 West, 180 North and -90 East. A yaw exactly on a
// diagonal goes to the neighbour with the lower encoding, so North and East
// win their ties (45 is South, 135 and -135 are North, -45 is East).
func HeadingFromAngle(yaw float64) Heading {
	q := yaw / 90.0
	lo := math.Floor(q)
	if q-lo == 0.5 {
		return min(quarterHeading(int(lo)), quarterHeading(int(lo)+1))
	}
	return quarterHeading(int(math.Floor(q + 0.5)))
}

// quarterHeading maps a count of quarter turns from South to a heading.
func quarterHeading(n int) Heading {
	switch n & 3 {
	case 0:
		return South
	case 1:
		return West
	case 2:
		return North
	default:
		return East
	}
}

// Corner is one of the four charge positions surrounding the launch point.
type Corner uint8

const (
	NorthWest Corner = iota
	NorthEast
	SouthWest
	SouthEast
)

// Corners lists every corner in index order.
var Corners = [4]Corner{NorthWest, NorthEast, SouthWest, SouthEast}

func (c Corner) String() string {
	switch c {
	case NorthWest:
		return "NorthWest"
	case NorthEast:
		return "NorthEast"
	case SouthWest:
		return "SouthWest"
	case SouthEast:
		return "SouthEast"
	default:
		return fmt.Sprintf("Corner(%d)", uint8(c))
	}
}

// Bits returns the union of the two cardinal headings forming the corner.
func (c Corner) Bits() Heading {
	switch c {
	case NorthWest:
		return North | West
	case NorthEast:
		return North | East
	case SouthWest:
		return South | West
	case SouthEast:
		return South | East
	default:
		panic(fmt.Sprintf("bits of invalid corner %d", uint8(c)))
	}
}

// CornerFromBits returns the corner whose bits equal b.
func CornerFromBits(b Heading) (Corner, bool) {
	for _, c := range Corners {
		if c.Bits() == b {
			return c, true
		}
	}
	return 0, false
}

// EntityState is the mutable state of one simulated pearl.
type EntityState struct {
	Position Vector3
	Motion   Vector3
	Gravity  bool
}

// ChargeSource is a fixed position impulse emitter firing at Fuse.
type ChargeSource struct {
	Position Vector3
	Fuse     uint32
}

// ChargeGroup is Count charges stacked at the same position, fired at tick 0.
type ChargeGroup struct {
	Position Vector3
	Count    uint32
}

// AABB is an axis aligned static collision box.
type AABB struct {
	Min Vector3
	Max Vector3
}

// CannonConfig describes a pearl cannon. All source Y coordinates are already
// normalised so that they match the pearl's actual spawn height.
type CannonConfig struct {
	PearlPosition Vector3
	PearlMotion   Vector3
	// Offset converts internal coordinates into world coordinates; only X and Z are used.
	Offset   Vector3
	Corners  [4]Vector3
	Vertical *Vector3

	DefaultRed  *Corner
	DefaultBlue *Corner

	// RedOverride and BlueOverride bypass directional resolution when set.
	RedOverride  *Vector3
	BlueOverride *Vector3

	Mode Mode
}

// PearlStart returns the pearl start position in world coordinates.
func (c CannonConfig) PearlStart() Vector3 {
	return c.PearlPosition.Add(Vector3{X: c.Offset.X, Z: c.Offset.Z})
}

// HorizontalOffset returns Offset with its Y component dropped.
func (c CannonConfig) HorizontalOffset() Vector3 {
	return Vector3{X: c.Offset.X, Z: c.Offset.Z}
}

// SearchConstraints bounds the candidate neighbourhood.
type SearchConstraints struct {
	MaxTotalPerSide uint32 // 0 means unlimited
	MaxVertical     *uint32
	SearchRadius    int32
	HasVertical     bool
	Mode            Mode
}

// SolveResult is one verified charge combination.
type SolveResult struct {
	Red         uint32
	Blue        uint32
	Vertical    uint32
	Total       uint32
	Tick        uint32
	Distance    float64
	EndPosition Vector3
	EndMotion   Vector3
	Heading     Heading
	Yaw         float64
	Pitch       float64
}

// Key returns the (red, blue, vertical) identity of the result.
func (r SolveResult) Key() CandidateKey {
	return CandidateKey{Red: r.Red, Blue: r.Blue, Vertical: r.Vertical}
}

// CandidateKey identifies an integer charge combination.
type CandidateKey struct {
	Red      uint32
	Blue     uint32
	Vertical uint32
}

// TraceResult is the outcome of a full forward simulation.
type TraceResult struct {
	LandingPosition Vector3
	FinalMotion     Vector3
	PositionTrace   []Vector3
	MotionTrace     []Vector3
	ReachedTick     uint32
	Success         bool
	Distance        float64
}
