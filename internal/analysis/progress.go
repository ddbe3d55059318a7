package analysis

import (
	"fmt"
	"io"
)

// ProgressEvent represents a single progress update during analysis.
type ProgressEvent struct {
	Type     string    `json:"type"`               // "primary", "fallback", "error", "done", "result"
	Provider string    `json:"provider,omitempty"` // provider being called or that answered
	Status   int       `json:"status,omitempty"`   // classified status for "fallback" and "error"
	Message  string    `json:"message,omitempty"`
	Result   *Envelope `json:"result,omitempty"` // final envelope (for "result" type)
}

// ProgressEmitter receives progress events during analysis.
type ProgressEmitter interface {
	Emit(event ProgressEvent)
}

// TextEmitter formats progress events as human-readable text for CLI output.
type TextEmitter struct {
	W io.Writer
}

// Emit writes a formatted progress line to the underlying writer.
func (e *TextEmitter) Emit(ev ProgressEvent) {
	switch ev.Type {
	case "primary":
		fmt.Fprintf(e.W, "[%s] analyzing photo\n", ev.Provider)
	case "fallback":
		fmt.Fprintf(e.W, "[%s] primary failed with %d, using fallback estimate\n", ev.Provider, ev.Status)
	case "done":
		fmt.Fprintf(e.W, "[%s] %s\n", ev.Provider, ev.Message)
	case "error":
		fmt.Fprintf(e.W, "Error (%d): %s\n", ev.Status, ev.Message)
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(ProgressEvent) {}
