// Package server talks to the creature server's websocket and turns its
// messages into console events.
package server

import (
	"encoding/json"
	"time"
)

// CommandLog is the websocket command carrying one server log line.
const CommandLog = "log"

// Message is the envelope of every websocket message from the server.
type Message struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// LogLine is one line of the server's log stream.
type LogLine struct {
	Level      string `json:"level"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	LoggerName string `json:"logger_name"`
	ThreadID   int64  `json:"thread_id"`
}

// Time parses the line's timestamp, falling back to now when the server sent
// something unparseable.
func (l LogLine) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.000", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, l.Timestamp); err == nil {
			return t
		}
	}
	return time.Now()
}
