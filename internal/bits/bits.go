// Package bits maps charge counts onto a cannon's binary duper layout.
//
// A template lists how many charges each duper of one side contributes. The
// same template serves the red and the blue side. Two extra direction bits
// select which of the four flight directions the cannon fires towards.
package bits

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/PearlCalc/extension/pkg/core"
)

var (
	ErrEmptyTemplate   = errors.New("template has no values")
	ErrInvalidValue    = errors.New("template values must be positive")
	ErrNoUnit          = errors.New("template must contain a value of 1")
	ErrGap             = errors.New("template cannot reach every count")
	ErrOutOfCapacity   = errors.New("count exceeds template capacity")
	ErrUnreachable     = errors.New("count cannot be composed from template")
	ErrUnknownMaskBits = errors.New("direction mask keys must be 00, 01, 10 or 11")
)

// MaskKeys are the direction bit patterns in display order.
var MaskKeys = [4]string{"00", "01", "10", "11"}

// Template is a duper layout.
type Template struct {
	Values         []uint32          `json:"values"`
	DirectionMasks map[string]string `json:"directionMasks"`
}

// Validate checks that every count from 1 to the template's capacity can be
// composed: sorted ascending, each value may not exceed one more than the sum
// of the values before it.
func (t Template) Validate() error {
	if len(t.Values) == 0 {
		return ErrEmptyTemplate
	}
	sorted := slices.Clone(t.Values)
	slices.Sort(sorted)

	if sorted[0] == 0 {
		return ErrInvalidValue
	}
	if sorted[0] != 1 {
		return ErrNoUnit
	}

	var reach uint64
	for _, v := range sorted {
		if uint64(v) > reach+1 {
			return fmt.Errorf("%w: %d is missing, reachable sum is %d", ErrGap, reach+1, reach)
		}
		reach += uint64(v)
	}

	for k := range t.DirectionMasks {
		if !slices.Contains(MaskKeys[:], k) {
			return fmt.Errorf("%w: %q", ErrUnknownMaskBits, k)
		}
	}
	return nil
}

// Capacity is the largest count the template can express.
func (t Template) Capacity() uint64 {
	var sum uint64
	for _, v := range t.Values {
		sum += uint64(v)
	}
	return sum
}

// Decode returns the template indices that sum to target, picking the
// largest values first. Indices are returned in the order they were picked.
func (t Template) Decode(target uint32) ([]int, error) {
	if uint64(target) > t.Capacity() {
		return nil, fmt.Errorf("%w: %d > %d", ErrOutOfCapacity, target, t.Capacity())
	}

	order := make([]int, len(t.Values))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case t.Values[a] > t.Values[b]:
			return -1
		case t.Values[a] < t.Values[b]:
			return 1
		default:
			return 0
		}
	})

	picked := []int{}
	remaining := target
	for _, idx := range order {
		if remaining == 0 {
			break
		}
		if v := t.Values[idx]; remaining >= v {
			remaining -= v
			picked = append(picked, idx)
		}
	}
	if remaining != 0 {
		return nil, fmt.Errorf("%w: %d left over", ErrUnreachable, remaining)
	}
	return picked, nil
}

// DirectionBits returns the two direction bits configured for heading. A
// heading with no mask yields both bits unset.
func (t Template) DirectionBits(heading core.Heading) [2]bool {
	name := heading.String()
	for _, key := range MaskKeys {
		if strings.EqualFold(t.DirectionMasks[key], name) {
			return [2]bool{key[0] == '1', key[1] == '1'}
		}
	}
	return [2]bool{}
}

// Layout is the duper activation for one shot.
type Layout struct {
	Red       []int   `json:"red"`
	Blue      []int   `json:"blue"`
	Direction [2]bool `json:"direction"`
}

// Calculate validates the template and decodes both sides.
func Calculate(t Template, red, blue uint32, heading core.Heading) (Layout, error) {
	if err := t.Validate(); err != nil {
		return Layout{}, err
	}
	r, err := t.Decode(red)
	if err != nil {
		return Layout{}, fmt.Errorf("red: %w", err)
	}
	b, err := t.Decode(blue)
	if err != nil {
		return Layout{}, fmt.Errorf("blue: %w", err)
	}
	return Layout{Red: r, Blue: b, Direction: t.DirectionBits(heading)}, nil
}
