// pkg/core/records.go
package core

import "time"

// SolveRecord is a completed charge search, as handed to storage backends.
type SolveRecord struct {
	ID          uint
	RequestedAt time.Time
	Duration    time.Duration
	Version     Version
	Mode        Mode
	Start       Vector3
	Destination Vector3
	MaxTicks    uint32
	MaxDistance float64
	Candidates  int
	Results     []SolveResult
}

// TraceKind tells which trace operation produced a TraceRecord.
type TraceKind string

const (
	TraceKindCannon TraceKind = "cannon"
	TraceKindRaw    TraceKind = "raw"
)

// TraceRecord is a completed forward simulation, as handed to storage backends.
type TraceRecord struct {
	ID          uint
	RequestedAt time.Time
	Kind        TraceKind
	Version     Version
	Red         uint32
	Blue        uint32
	Vertical    uint32
	// Destination is set when the request asked for a closest approach.
	Destination *Vector3
	Result      TraceResult
}
