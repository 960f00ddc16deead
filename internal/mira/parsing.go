package mira

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// streamEvent represents one server-sent event payload from the message
// stream endpoint.
type streamEvent struct {
	Type      string `json:"type"`   // "delta", "status", "done", "error"
	Delta     string `json:"delta"`  // content fragment (delta events)
	Status    string `json:"status"` // "thinking" or "responding" (status events)
	Model     string `json:"model,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// doneSentinel ends a stream without a JSON payload. Kept for backends that
// emit the bare marker instead of a done event.
const doneSentinel = "[DONE]"

// parseStreamLine parses one line of a text/event-stream body and returns
// the chunk it carries, if any. SSE comment lines, blank separators, and
// non-data fields yield no chunk.
func parseStreamLine(line string, log *slog.Logger) (Chunk, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" || strings.HasPrefix(line, ":") {
		return Chunk{}, false
	}
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		// event:/id:/retry: fields carry nothing we act on.
		return Chunk{}, false
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return Chunk{}, false
	}
	if data == doneSentinel {
		return Chunk{Type: ChunkTypeDone}, true
	}

	var ev streamEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		log.Warn("failed to parse stream event", "error", err, "line", truncateForLog(data))
		return Chunk{}, false
	}

	switch ev.Type {
	case "delta":
		if ev.Delta == "" {
			return Chunk{}, false
		}
		return Chunk{Type: ChunkTypeDelta, Delta: ev.Delta}, true
	case "status":
		return Chunk{Type: ChunkTypeStatus, Status: ev.Status}, true
	case "done":
		return Chunk{Type: ChunkTypeDone, Model: ev.Model, LatencyMs: ev.LatencyMs}, true
	case "error":
		return Chunk{Type: ChunkTypeError, ErrMsg: ev.Error}, true
	default:
		log.Warn("unrecognized stream event type", "type", ev.Type)
		return Chunk{}, false
	}
}

// truncateForLog shortens long payloads for log lines.
func truncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
