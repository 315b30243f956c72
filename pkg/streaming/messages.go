// Package streaming defines the envelopes the calculator pushes to a
// collecting web service.
package streaming

import (
	"encoding/json"
	"time"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeSolveRecord  = "solve_record"
	TypeTraceRecord  = "trace_record"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload announces a calculator instance.
type StartSessionPayload struct {
	Calculator string    `json:"calculator"`
	Version    string    `json:"version"`
	StartedAt  time.Time `json:"startedAt"`
}

// EndSessionPayload closes a session with its totals.
type EndSessionPayload struct {
	Solves int64 `json:"solves"`
	Traces int64 `json:"traces"`
}
