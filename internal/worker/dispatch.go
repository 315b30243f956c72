package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PearlCalc/extension/internal/bits"
	"github.com/PearlCalc/extension/internal/bridge"
	"github.com/PearlCalc/extension/internal/cache"
	"github.com/PearlCalc/extension/internal/dispatcher"
	"github.com/PearlCalc/extension/internal/storage"
	"github.com/PearlCalc/extension/internal/util"
	"github.com/PearlCalc/extension/pkg/core"
)

const (
	defaultHistory = 10
	maxHistory     = 100
)

// RegisterHandlers registers every calculator command with the dispatcher.
// solveTimeout bounds a single search; zero leaves it unbounded.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher, solveTimeout time.Duration) {
	m.mu.Lock()
	m.dispatcher = d
	m.mu.Unlock()

	d.Register(":VERSION:", m.handleVersion)
	d.Register(":STATUS:", m.handleStatus)

	solveOpts := []dispatcher.Option{dispatcher.Logged()}
	if solveTimeout > 0 {
		solveOpts = append(solveOpts, dispatcher.Timeout(solveTimeout))
	}
	d.Register(":SOLVE:", m.counted(m.handleSolve), solveOpts...)
	// result is only stored; callers read it back through :HISTORY:
	d.Register(":SOLVE:ASYNC:", m.counted(m.handleSolveAsync), append(solveOpts, dispatcher.Buffered(64))...)

	d.Register(":TRACE:", m.counted(m.handleTrace), dispatcher.Logged())
	d.Register(":TRACE:RAW:", m.counted(m.handleRawTrace), dispatcher.Logged())
	d.Register(":BITS:", m.counted(m.handleBits))
	d.Register(":HISTORY:", m.handleHistory)
}

func (m *Manager) counted(h dispatcher.HandlerFunc) dispatcher.HandlerFunc {
	return func(ctx context.Context, e dispatcher.Event) (any, error) {
		m.requests.Inc()
		result, err := h(ctx, e)
		if err != nil {
			m.failures.Inc()
		}
		return result, err
	}
}

func decodeFirst[T any](e dispatcher.Event) (T, error) {
	var v T
	if len(e.Args) == 0 {
		return v, ErrMissingArgument
	}
	if err := util.DecodeArg(e.Args[0], &v); err != nil {
		return v, err
	}
	return v, nil
}

func (m *Manager) handleVersion(context.Context, dispatcher.Event) (any, error) {
	return m.deps.ExtensionVersion, nil
}

func (m *Manager) handleStatus(context.Context, dispatcher.Event) (any, error) {
	return m.Status(), nil
}

// solve answers from the cache when the same request was seen before.
func (m *Manager) solve(ctx context.Context, e dispatcher.Event) (*core.SolveRecord, error) {
	in, err := decodeFirst[bridge.CalculationInput](e)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calculation: %w", err)
	}

	key, keyErr := cache.Key(in)
	if keyErr == nil {
		if rec, ok := m.deps.Cache.Get(key); ok {
			m.deps.Logger.Debug("Solve served from cache", "results", len(rec.Results))
			return &rec, nil
		}
	}

	rec, err := m.deps.Calculator.CalculateTNTAmount(ctx, in)
	if err != nil {
		return nil, err
	}
	if keyErr == nil {
		m.deps.Cache.Put(key, *rec)
	}
	m.recordSolve(ctx, rec)
	return rec, nil
}

func (m *Manager) handleSolve(ctx context.Context, e dispatcher.Event) (any, error) {
	rec, err := m.solve(ctx, e)
	if err != nil {
		return nil, err
	}
	return bridge.SolveOutputs(rec), nil
}

func (m *Manager) handleSolveAsync(ctx context.Context, e dispatcher.Event) (any, error) {
	rec, err := m.solve(ctx, e)
	if err != nil {
		return nil, err
	}
	m.deps.Logger.Info("Async solve complete", "id", rec.ID, "results", len(rec.Results))
	return nil, nil
}

func (m *Manager) handleTrace(_ context.Context, e dispatcher.Event) (any, error) {
	in, err := decodeFirst[bridge.PearlTraceInput](e)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pearl trace: %w", err)
	}
	rec, err := m.deps.Calculator.CalculatePearlTrace(in)
	if err != nil {
		return nil, err
	}
	m.recordTrace(rec)
	return bridge.TraceOutput(rec), nil
}

func (m *Manager) handleRawTrace(_ context.Context, e dispatcher.Event) (any, error) {
	in, err := decodeFirst[bridge.RawTraceInput](e)
	if err != nil {
		return nil, fmt.Errorf("failed to parse raw trace: %w", err)
	}
	rec, err := m.deps.Calculator.CalculateRawTrace(in)
	if err != nil {
		return nil, err
	}
	m.recordTrace(rec)
	return bridge.TraceOutput(rec), nil
}

// BitsRequest maps charge counts onto a duper template.
type BitsRequest struct {
	Template  bits.Template `json:"template"`
	Red       uint32        `json:"red"`
	Blue      uint32        `json:"blue"`
	Direction string        `json:"direction"`
}

func (m *Manager) handleBits(_ context.Context, e dispatcher.Event) (any, error) {
	req, err := decodeFirst[BitsRequest](e)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bits request: %w", err)
	}
	heading, err := bridge.ParseHeading(req.Direction)
	if err != nil {
		return nil, err
	}
	return bits.Calculate(req.Template, req.Red, req.Blue, heading)
}

// handleHistory lists the newest stored solves. The optional argument is the count.
func (m *Manager) handleHistory(_ context.Context, e dispatcher.Event) (any, error) {
	reader, ok := m.backend().(storage.Reader)
	if !ok {
		return nil, ErrNoHistory
	}

	limit := defaultHistory
	if len(e.Args) > 0 {
		n, err := strconv.Atoi(util.UnquoteArg(e.Args[0]))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid history count %q", e.Args[0])
		}
		limit = min(n, maxHistory)
	}

	recs, err := reader.RecentSolves(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	out := make([]HistoryEntry, len(recs))
	for i := range recs {
		out[i] = HistoryEntry{
			ID:      recs[i].ID,
			Version: recs[i].Version.String(),
			Results: bridge.SolveOutputs(&recs[i]),
		}
	}
	return out, nil
}

// HistoryEntry is one stored solve as returned by :HISTORY:.
type HistoryEntry struct {
	ID      uint                     `json:"id"`
	Version string                   `json:"version"`
	Results []bridge.TNTResultOutput `json:"results"`
}
