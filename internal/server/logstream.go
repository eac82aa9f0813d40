package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// LogStream is a bridge source that emits the creature server's log lines.
type LogStream struct {
	url              string
	header           http.Header
	dialer           *websocket.Dialer
	onBadFrame       func(error)
	handshakeTimeout time.Duration
}

// LogStreamOption configures a LogStream.
type LogStreamOption func(*LogStream)

// WithHandshakeTimeout bounds the websocket handshake.
func WithHandshakeTimeout(d time.Duration) LogStreamOption {
	return func(s *LogStream) {
		s.handshakeTimeout = d
	}
}

// WithHeader adds request headers to the handshake.
func WithHeader(h http.Header) LogStreamOption {
	return func(s *LogStream) {
		s.header = h
	}
}

// WithBadFrameHandler is called for messages that cannot be decoded. Such
// messages are skipped.
func WithBadFrameHandler(fn func(error)) LogStreamOption {
	return func(s *LogStream) {
		s.onBadFrame = fn
	}
}

// NewLogStream creates a log source for the websocket at url.
func NewLogStream(url string, opts ...LogStreamOption) *LogStream {
	s := &LogStream{
		url:              url,
		handshakeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dialer = &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: s.handshakeTimeout,
	}
	return s
}

// Stream connects and emits every log line until the server closes the
// connection or ctx is done. A normal close returns nil.
func (s *LogStream) Stream(ctx context.Context, emit func(LogLine)) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("unable to connect to %s: HTTP status %d: %w", s.url, resp.StatusCode, err)
		}
		return fmt.Errorf("unable to connect to %s: %w", s.url, err)
	}
	defer conn.Close() //nolint:errcheck

	// Closing the connection unblocks ReadMessage.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("websocket read: %w", err)
		}

		line, ok, err := decodeLogLine(data)
		if err != nil {
			if s.onBadFrame != nil {
				s.onBadFrame(err)
			}
			continue
		}
		if ok {
			emit(line)
		}
	}
}

var errEmptyPayload = errors.New("log message without payload")

// decodeLogLine returns ok=false for messages that are not log lines.
func decodeLogLine(data []byte) (LogLine, bool, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return LogLine{}, false, fmt.Errorf("decode message: %w", err)
	}
	if msg.Command != CommandLog {
		return LogLine{}, false, nil
	}
	if len(msg.Payload) == 0 {
		return LogLine{}, false, errEmptyPayload
	}

	var line LogLine
	if err := json.Unmarshal(msg.Payload, &line); err != nil {
		return LogLine{}, false, fmt.Errorf("decode log payload: %w", err)
	}
	return line, true, nil
}
