// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/PearlCalc/extension/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Recording (assigns ID to the passed pointer)
	RecordSolve(r *core.SolveRecord) error
	RecordTrace(r *core.TraceRecord) error
}

// Reader is an optional interface for backends that can list what they stored,
// newest first.
type Reader interface {
	RecentSolves(limit int) ([]core.SolveRecord, error)
	RecentTraces(limit int) ([]core.TraceRecord, error)
}

// Exporter is an optional interface for backends that write a session file
// when closed.
type Exporter interface {
	ExportedFilePath() string
}

// WriteReporter is an optional interface for backends that write in batches.
type WriteReporter interface {
	QueueLengths() map[string]int
	LastWriteDuration() time.Duration
}
