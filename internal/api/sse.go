package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kamilpajak/nutrilens/internal/analysis"
)

// SSEEmitter implements analysis.ProgressEmitter by writing Server-Sent Events.
type SSEEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEEmitter creates an SSEEmitter for the given ResponseWriter.
// Returns nil if the writer does not support flushing.
func NewSSEEmitter(w http.ResponseWriter) *SSEEmitter {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	return &SSEEmitter{w: w, flusher: f}
}

// Emit writes a progress event as an SSE data line and flushes.
func (e *SSEEmitter) Emit(ev analysis.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(e.w, "data: %s\n\n", data)
	e.flusher.Flush()
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// streamAnalysis runs req while streaming progress, ending with a "result"
// event carrying the envelope. The HTTP status is always 200 once streaming
// starts; the envelope's own status describes the outcome.
func (s *Server) streamAnalysis(w http.ResponseWriter, r *http.Request, req analysis.Request) bool {
	emitter := NewSSEEmitter(w)
	if emitter == nil {
		return false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	req.Emitter = emitter
	env := s.orchestrator.Run(r.Context(), req)
	emitter.Emit(analysis.ProgressEvent{Type: "result", Status: env.Status, Result: env})
	return true
}
