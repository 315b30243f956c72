package websocket

import "github.com/PearlCalc/extension/pkg/streaming"

// Re-exported so callers of this backend need not import streaming directly.
const (
	TypeStartSession = streaming.TypeStartSession
	TypeEndSession   = streaming.TypeEndSession
	TypeSolveRecord  = streaming.TypeSolveRecord
	TypeTraceRecord  = streaming.TypeTraceRecord
)

type (
	Envelope            = streaming.Envelope
	AckMessage          = streaming.AckMessage
	StartSessionPayload = streaming.StartSessionPayload
	EndSessionPayload   = streaming.EndSessionPayload
)
