// Package worker runs calculator commands and hands finished records to
// storage and metrics.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/PearlCalc/extension/internal/bridge"
	"github.com/PearlCalc/extension/internal/cache"
	"github.com/PearlCalc/extension/internal/dispatcher"
	"github.com/PearlCalc/extension/internal/influx"
	"github.com/PearlCalc/extension/internal/storage"
	"github.com/PearlCalc/extension/pkg/core"
)

const instrumentationName = "github.com/PearlCalc/extension/internal/worker"

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrNoHistory       = errors.New("storage backend does not keep history")
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Calculator       *bridge.Calculator
	Cache            *cache.ResultCache
	Backend          storage.Backend // optional, see SetBackend
	Influx           *influx.Manager // optional
	Logger           *slog.Logger
	Meter            metric.Meter // defaults to the global meter
	ExtensionVersion string
}

// Manager owns the command handlers.
type Manager struct {
	deps       Dependencies
	mu         sync.RWMutex
	dispatcher *dispatcher.Dispatcher
	startedAt  time.Time

	requests cache.SafeCounter
	failures cache.SafeCounter

	candidates metric.Int64Counter
	results    metric.Int64Counter
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Calculator == nil {
		deps.Calculator = bridge.NewCalculator(0)
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewResultCache(0)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Meter == nil {
		deps.Meter = otel.Meter(instrumentationName)
	}

	m := &Manager{deps: deps, startedAt: time.Now()}

	var err error
	m.candidates, err = deps.Meter.Int64Counter(
		"solver.candidates",
		metric.WithDescription("Charge combinations simulated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating candidates counter: %w", err)
	}
	m.results, err = deps.Meter.Int64Counter(
		"solver.results",
		metric.WithDescription("Charge combinations accepted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating results counter: %w", err)
	}
	return m, nil
}

// SetBackend attaches a storage backend once it is initialized.
func (m *Manager) SetBackend(b storage.Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps.Backend = b
}

func (m *Manager) backend() storage.Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deps.Backend
}

// LogContext is a logging.ContextProvider reporting request totals.
func (m *Manager) LogContext() []slog.Attr {
	return []slog.Attr{
		slog.Int("requests", m.requests.Value()),
		slog.Int("failures", m.failures.Value()),
	}
}

// Status is a snapshot of the calculator's load.
type Status struct {
	Version        string         `json:"version"`
	UptimeSeconds  float64        `json:"uptimeSeconds"`
	Requests       int            `json:"requests"`
	Failures       int            `json:"failures"`
	CacheEntries   int            `json:"cacheEntries"`
	CacheHits      int            `json:"cacheHits"`
	CacheMisses    int            `json:"cacheMisses"`
	DispatchQueues map[string]int `json:"dispatchQueues"`
	WriteQueues    map[string]int `json:"writeQueues,omitempty"`
	LastWriteMs    float64        `json:"lastWriteMs"`
}

// Status reports request counters, cache use and queue depths.
func (m *Manager) Status() Status {
	s := Status{
		Version:        m.deps.ExtensionVersion,
		UptimeSeconds:  time.Since(m.startedAt).Seconds(),
		Requests:       m.requests.Value(),
		Failures:       m.failures.Value(),
		CacheEntries:   m.deps.Cache.Len(),
		CacheHits:      m.deps.Cache.Hits.Value(),
		CacheMisses:    m.deps.Cache.Misses.Value(),
		DispatchQueues: map[string]int{},
	}
	if m.dispatcher != nil {
		s.DispatchQueues = m.dispatcher.QueueLengths()
	}
	if w, ok := m.backend().(storage.WriteReporter); ok {
		s.WriteQueues = w.QueueLengths()
		s.LastWriteMs = float64(w.LastWriteDuration().Microseconds()) / 1000
	}
	return s
}

func (m *Manager) recordSolve(ctx context.Context, rec *core.SolveRecord) {
	attrs := metric.WithAttributes(attribute.String("version", rec.Version.String()))
	m.candidates.Add(ctx, int64(rec.Candidates), attrs)
	m.results.Add(ctx, int64(len(rec.Results)), attrs)

	if b := m.backend(); b != nil {
		if err := b.RecordSolve(rec); err != nil {
			m.deps.Logger.Warn("Failed to store solve", "error", err)
		}
	}
	if m.deps.Influx != nil {
		if err := m.deps.Influx.WritePoint(influx.SolvePoint(rec)); err != nil {
			m.deps.Logger.Debug("Failed to write solve point", "error", err)
		}
	}
}

func (m *Manager) recordTrace(rec *core.TraceRecord) {
	if b := m.backend(); b != nil {
		if err := b.RecordTrace(rec); err != nil {
			m.deps.Logger.Warn("Failed to store trace", "error", err)
		}
	}
	if m.deps.Influx != nil {
		if err := m.deps.Influx.WritePoint(influx.TracePoint(rec)); err != nil {
			m.deps.Logger.Debug("Failed to write trace point", "error", err)
		}
	}
}
