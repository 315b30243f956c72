// Package bridge converts external JSON requests into solver calls and the
// solver's results back into the JSON shapes callers expect.
package bridge

import (
	"errors"
	"fmt"
	"math"

	"github.com/PearlCalc/extension/pkg/core"
)

var (
	ErrUnknownVersion = errors.New("invalid pearl version")
	ErrUnknownCorner  = errors.New("invalid corner")
	ErrUnknownHeading = errors.New("invalid direction")
)

// Vec3Input is a plain {x, y, z} object.
type Vec3Input struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3Input) vector() core.Vector3 {
	return core.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// CannonInput is the cannon description shared by solve and trace requests.
type CannonInput struct {
	PearlX       float64 `json:"pearlX"`
	PearlY       float64 `json:"pearlY"`
	PearlZ       float64 `json:"pearlZ"`
	PearlMotionX float64 `json:"pearlMotionX"`
	PearlMotionY float64 `json:"pearlMotionY"`
	PearlMotionZ float64 `json:"pearlMotionZ"`
	OffsetX      float64 `json:"offsetX"`
	OffsetZ      float64 `json:"offsetZ"`
	CannonY      float64 `json:"cannonY"`

	NorthWestTnt Vec3Input `json:"northWestTnt"`
	NorthEastTnt Vec3Input `json:"northEastTnt"`
	SouthWestTnt Vec3Input `json:"southWestTnt"`
	SouthEastTnt Vec3Input `json:"southEastTnt"`

	DefaultRedDirection  string `json:"defaultRedDirection"`
	DefaultBlueDirection string `json:"defaultBlueDirection"`

	VerticalTnt *Vec3Input `json:"verticalTnt,omitempty"`
	Mode        *string    `json:"mode,omitempty"`
}

// Cannon builds the cannon configuration. Every source Y and the pearl Y are
// shifted by cannonY - floor(pearlY) so they match the pearl's spawn height.
// Unknown default corner names leave the corner unset.
func (in CannonInput) Cannon() core.CannonConfig {
	shift := core.Vector3{Y: in.CannonY - math.Floor(in.PearlY)}

	cfg := core.CannonConfig{
		PearlPosition: core.Vector3{X: in.PearlX, Y: in.PearlY, Z: in.PearlZ}.Add(shift),
		PearlMotion:   core.Vector3{X: in.PearlMotionX, Y: in.PearlMotionY, Z: in.PearlMotionZ},
		Offset:        core.Vector3{X: in.OffsetX, Z: in.OffsetZ},
		Mode:          ParseMode(in.Mode),
	}
	cfg.Corners[core.NorthWest] = in.NorthWestTnt.vector().Add(shift)
	cfg.Corners[core.NorthEast] = in.NorthEastTnt.vector().Add(shift)
	cfg.Corners[core.SouthWest] = in.SouthWestTnt.vector().Add(shift)
	cfg.Corners[core.SouthEast] = in.SouthEastTnt.vector().Add(shift)

	if in.VerticalTnt != nil {
		v := in.VerticalTnt.vector().Add(shift)
		cfg.Vertical = &v
	}
	if c, err := ParseCorner(in.DefaultRedDirection); err == nil {
		cfg.DefaultRed = &c
	}
	if c, err := ParseCorner(in.DefaultBlueDirection); err == nil {
		cfg.DefaultBlue = &c
	}
	return cfg
}

// CalculationInput is a charge search request.
type CalculationInput struct {
	CannonInput

	DestinationX float64  `json:"destinationX"`
	DestinationY *float64 `json:"destinationY,omitempty"`
	DestinationZ float64  `json:"destinationZ"`

	MaxTnt         uint32  `json:"maxTnt"`
	MaxVerticalTnt *uint32 `json:"maxVerticalTnt,omitempty"`
	MaxTicks       uint32  `json:"maxTicks"`
	MaxDistance    float64 `json:"maxDistance"`
	Version        string  `json:"version"`
}

// Destination returns the destination, with Y defaulting to 0.
func (in CalculationInput) Destination() core.Vector3 {
	d := core.Vector3{X: in.DestinationX, Z: in.DestinationZ}
	if in.DestinationY != nil {
		d.Y = *in.DestinationY
	}
	return d
}

// PearlTraceInput traces one charge combination of a cannon.
type PearlTraceInput struct {
	CannonInput

	RedTnt            uint32  `json:"redTnt"`
	BlueTnt           uint32  `json:"blueTnt"`
	VerticalTntAmount *uint32 `json:"verticalTntAmount,omitempty"`

	DestinationX float64  `json:"destinationX"`
	DestinationY *float64 `json:"destinationY,omitempty"`
	DestinationZ float64  `json:"destinationZ"`

	Direction *string `json:"direction,omitempty"`
	Version   string  `json:"version"`
}

// Heading returns the requested flight heading. A missing or unknown
// direction falls back to the heading implied by the default red corner.
func (in PearlTraceInput) Heading() (core.Heading, error) {
	if in.Direction != nil {
		if h, err := ParseHeading(*in.Direction); err == nil {
			return h, nil
		}
	}
	red, err := ParseCorner(in.DefaultRedDirection)
	if err != nil {
		return 0, fmt.Errorf("default red direction: %w", err)
	}
	return headingFromCorner(red), nil
}

// TntGroupInput is a stack of charges at one position.
type TntGroupInput struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Amount uint32  `json:"amount"`
}

// RawTraceInput traces a pearl pushed by free standing charge groups.
type RawTraceInput struct {
	PearlX       float64         `json:"pearlX"`
	PearlY       float64         `json:"pearlY"`
	PearlZ       float64         `json:"pearlZ"`
	PearlMotionX float64         `json:"pearlMotionX"`
	PearlMotionY float64         `json:"pearlMotionY"`
	PearlMotionZ float64         `json:"pearlMotionZ"`
	TntGroups    []TntGroupInput `json:"tntGroups"`
	Version      string          `json:"version"`
}

// ParseVersion maps a version token to its movement rules.
func ParseVersion(s string) (core.Version, error) {
	switch s {
	case "Legacy":
		return core.Legacy, nil
	case "Post1205":
		return core.Post1205, nil
	case "Post1212":
		return core.Post1212, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, s)
	}
}

// ParseCorner maps a corner token.
func ParseCorner(s string) (core.Corner, error) {
	for _, c := range core.Corners {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCorner, s)
}

// ParseHeading maps a cardinal direction token.
func ParseHeading(s string) (core.Heading, error) {
	for _, h := range core.Headings {
		if h.String() == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHeading, s)
}

// ParseMode returns Accumulation for "Accumulation" and Standard otherwise.
func ParseMode(s *string) core.Mode {
	if s != nil && *s == "Accumulation" {
		return core.Accumulation
	}
	return core.Standard
}

func headingFromCorner(c core.Corner) core.Heading {
	switch c {
	case core.NorthWest:
		return core.North
	case core.NorthEast:
		return core.East
	case core.SouthWest:
		return core.West
	default:
		return core.South
	}
}
