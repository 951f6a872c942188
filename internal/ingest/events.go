package ingest

import (
	"encoding/json"
	"io"
	"time"
)

// RunEvent is one line of the machine-readable progress stream emitted
// under --json.
type RunEvent struct {
	Event     string    `json:"event"`
	RunID     string    `json:"runId"`
	Stage     string    `json:"stage,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// eventWriter serializes run events as JSON lines. A nil writer drops them.
type eventWriter struct {
	out   io.Writer
	runID string
}

func (w *eventWriter) emit(event, stage, subject string, count int) {
	if w == nil || w.out == nil {
		return
	}
	_ = json.NewEncoder(w.out).Encode(RunEvent{
		Event:     event,
		RunID:     w.runID,
		Stage:     stage,
		Subject:   subject,
		Count:     count,
		Timestamp: time.Now().UTC(),
	})
}
