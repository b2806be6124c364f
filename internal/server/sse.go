package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"resumatcher/internal/types"
)

// sseWriter frames progress events as server-sent events. Each event is
// written as a single `data: <JSON>` line terminated by a blank line and
// flushed immediately so clients see stages as they happen.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares the response for streaming. It fails when the
// underlying ResponseWriter cannot flush, since buffered SSE is useless.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// WriteEvent serializes one progress event onto the stream.
func (s *sseWriter) WriteEvent(event types.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write progress event: %w", err)
	}
	s.flusher.Flush()

	return nil
}
