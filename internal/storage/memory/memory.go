// internal/storage/memory/memory.go
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/PearlCalc/extension/internal/config"
	"github.com/PearlCalc/extension/pkg/core"
)

// Backend keeps every record of the session in memory and exports them as
// one JSON document when closed.
type Backend struct {
	cfg       config.MemoryConfig
	version   string
	startedAt time.Time

	solves []core.SolveRecord
	traces []core.TraceRecord

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend. version is written into the export.
func New(cfg config.MemoryConfig, version string) *Backend {
	return &Backend{cfg: cfg, version: version}
}

// Init starts a new session.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startedAt = time.Now()
	b.solves = nil
	b.traces = nil
	b.idCounter = 0
	return nil
}

// Close exports the session. Nothing is written when no output directory is
// configured or nothing was recorded.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cfg.OutputDir == "" || (len(b.solves) == 0 && len(b.traces) == 0) {
		return nil
	}
	return b.exportJSON()
}

func (b *Backend) RecordSolve(r *core.SolveRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	r.ID = b.idCounter

	rec := *r
	rec.Results = slices.Clone(r.Results)
	b.solves = append(b.solves, rec)
	return nil
}

func (b *Backend) RecordTrace(r *core.TraceRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	r.ID = b.idCounter
	b.traces = append(b.traces, *r)
	return nil
}

// RecentSolves returns up to limit solves, newest first. A limit of 0 or less
// returns all of them.
func (b *Backend) RecentSolves(limit int) ([]core.SolveRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return newestFirst(b.solves, limit), nil
}

// RecentTraces returns up to limit traces, newest first.
func (b *Backend) RecentTraces(limit int) ([]core.TraceRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return newestFirst(b.traces, limit), nil
}

// ExportedFilePath returns the file written by the last Close.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func newestFirst[T any](items []T, limit int) []T {
	n := len(items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, n)
	for i := range out {
		out[i] = items[len(items)-1-i]
	}
	return out
}
