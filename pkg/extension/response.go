package extension

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/PearlCalc/extension/internal/util"
)

// sqfString quotes s as an SQF string literal.
func sqfString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formatDispatchResponse renders a handler result as an SQF array the game can
// parseSimpleArray: ["ok"], ["ok", value] or ["error", message].
func formatDispatchResponse(command string, result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, sqfString(err.Error()))
	}
	switch v := result.(type) {
	case nil:
		return `["ok"]`
	case string:
		return fmt.Sprintf(`["ok", %s]`, sqfString(v))
	}

	raw, mErr := json.Marshal(result)
	if mErr != nil {
		return fmt.Sprintf(`["error", %s]`, sqfString(fmt.Sprintf("%s: encode result: %v", command, mErr)))
	}
	return fmt.Sprintf(`["ok", %s]`, raw)
}

// chunkStore holds replies too large for the game's output buffer until the
// caller has fetched every part with :CHUNK:.
type chunkStore struct {
	mu    sync.Mutex
	next  uint64
	parts map[uint64][]string
}

func newChunkStore() *chunkStore {
	return &chunkStore{parts: make(map[uint64][]string)}
}

// fit returns response unchanged when it fits in limit bytes (terminator
// included). Otherwise it stores the parts and returns a
// ["chunked", id, count] header.
func (s *chunkStore) fit(response string, limit int) string {
	if len(response) < limit || limit <= 1 {
		return response
	}
	size := limit - 1
	var parts []string
	for len(response) > size {
		parts = append(parts, response[:size])
		response = response[size:]
	}
	parts = append(parts, response)

	s.mu.Lock()
	s.next++
	id := s.next
	s.parts[id] = parts
	s.mu.Unlock()

	return fmt.Sprintf(`["chunked", %d, %d]`, id, len(parts))
}

// get returns one part. Fetching the last part releases the reply.
func (s *chunkStore) get(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("expected [id, index], got %d arguments", len(args))
	}
	id, err := strconv.ParseUint(util.UnquoteArg(args[0]), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid chunk id: %w", err)
	}
	index, err := strconv.Atoi(util.UnquoteArg(args[1]))
	if err != nil {
		return "", fmt.Errorf("invalid chunk index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	parts, ok := s.parts[id]
	if !ok {
		return "", fmt.Errorf("unknown chunked reply %d", id)
	}
	if index < 0 || index >= len(parts) {
		return "", fmt.Errorf("chunk %d out of range [0,%d)", index, len(parts))
	}
	if index == len(parts)-1 {
		delete(s.parts, id)
	}
	return parts[index], nil
}

func (s *chunkStore) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parts)
}
