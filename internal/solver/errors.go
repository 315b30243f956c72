package solver

import "errors"

var (
	// ErrMissingDefaultCorner is returned when resolving a heading needs a
	// default corner the cannon does not configure.
	ErrMissingDefaultCorner = errors.New("missing default corner")

	// ErrCollinearSources means the red and blue impulses cannot control the
	// horizontal displacement independently. Solve reports it as an empty result.
	ErrCollinearSources = errors.New("red and blue sources are collinear")

	ErrInvalidMaxTicks = errors.New("max ticks must be positive")
)
