// Package websocket streams finished calculations to a collecting web service.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/PearlCalc/extension/internal/model/convert"
	"github.com/PearlCalc/extension/pkg/core"
)

// StreamPath is where the results server accepts calculator streams.
const StreamPath = "/api/stream"

// Config holds WebSocket backend configuration.
type Config struct {
	URL              string
	APIKey           string
	ExtensionVersion string
}

// Backend implements storage.Backend by sending every record as an envelope.
// Records are fire-and-forget; only the session start and end wait for acks.
type Backend struct {
	link *link
	cfg  Config

	nextSolveID atomic.Uint64
	nextTraceID atomic.Uint64
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		link: newLink(logger),
		cfg:  cfg,
	}
}

// Init connects and announces the session. The announcement is replayed
// whenever the stream reconnects.
func (b *Backend) Init() error {
	hello, err := marshalEnvelope(TypeStartSession, StartSessionPayload{
		Calculator: "pearl_calculator",
		Version:    b.cfg.ExtensionVersion,
		StartedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := b.link.open(b.cfg.URL, b.cfg.APIKey, hello, TypeStartSession); err != nil {
		b.link.close()
		return err
	}
	return nil
}

// Close ends the session and disconnects. The link is closed even when the
// server never acks.
func (b *Backend) Close() error {
	defer b.link.close()
	if !b.link.connected() {
		return nil
	}
	data, err := marshalEnvelope(TypeEndSession, EndSessionPayload{
		Solves: int64(b.nextSolveID.Load()),
		Traces: int64(b.nextTraceID.Load()),
	})
	if err != nil {
		return err
	}
	return b.link.request(data, TypeEndSession, ackTimeout)
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.link.send(data)
	return nil
}

// RecordSolve assigns a session-local ID and sends the calculation.
func (b *Backend) RecordSolve(r *core.SolveRecord) error {
	r.ID = uint(b.nextSolveID.Add(1))
	return b.sendEnvelope(TypeSolveRecord, convert.CoreToCalculation(*r))
}

// RecordTrace assigns a session-local ID and sends the trace.
func (b *Backend) RecordTrace(r *core.TraceRecord) error {
	r.ID = uint(b.nextTraceID.Add(1))
	return b.sendEnvelope(TypeTraceRecord, convert.CoreToTrace(*r))
}

// Dropped reports envelopes lost to a full send queue.
func (b *Backend) Dropped() int64 {
	return b.link.dropped.Load()
}
