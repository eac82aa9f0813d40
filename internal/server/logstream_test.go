package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatures/console/internal/bridge"
)

var upgrader = websocket.Upgrader{}

// fakeServer sends frames to every client, then either closes normally or
// holds the connection open until the client goes away.
func fakeServer(t *testing.T, frames []string, hold bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close() //nolint:errcheck

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		if hold {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}

		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		// Wait for the client's close reply.
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestLogStream_EmitsLogLines(t *testing.T) {
	srv := fakeServer(t, []string{
		`{"command":"log","payload":{"level":"info","message":"server started","timestamp":"2026-10-18T12:00:00Z","logger_name":"main","thread_id":7}}`,
		`{"command":"notice","payload":{"message":"not a log"}}`,
		`not json at all`,
		`{"command":"log","payload":{"level":"warning","message":"servo 3 hot","logger_name":"dmx","thread_id":9}}`,
	}, false)

	var bad []error
	s := NewLogStream(wsURL(srv), WithBadFrameHandler(func(err error) { bad = append(bad, err) }))

	var lines []LogLine
	err := s.Stream(context.Background(), func(l LogLine) { lines = append(lines, l) })
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "server started", lines[0].Message)
	assert.Equal(t, int64(7), lines[0].ThreadID)
	assert.Equal(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), lines[0].Time())
	assert.Equal(t, "warning", lines[1].Level)
	assert.Equal(t, "dmx", lines[1].LoggerName)
	assert.Len(t, bad, 1)
}

func TestLogStream_ContextCancelClosesConnection(t *testing.T) {
	srv := fakeServer(t, []string{
		`{"command":"log","payload":{"level":"info","message":"hello"}}`,
	}, true)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan LogLine, 1)
	done := make(chan error, 1)
	go func() {
		done <- NewLogStream(wsURL(srv)).Stream(ctx, func(l LogLine) { got <- l })
	}()

	select {
	case l := <-got:
		assert.Equal(t, "hello", l.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no log line received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not return after cancel")
	}
}

func TestLogStream_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	err := NewLogStream(wsURL(srv)).Stream(context.Background(), func(LogLine) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP status 404")
}

func TestLogStream_ThroughBridge(t *testing.T) {
	frames := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		frames = append(frames, `{"command":"log","payload":{"level":"debug","message":"tick","thread_id":`+strconv.Itoa(i)+`}}`)
	}
	srv := fakeServer(t, frames, false)

	var mu sync.Mutex
	var ids []int64
	b := bridge.New[LogLine](NewLogStream(wsURL(srv)))
	err := b.Run(context.Background(), func(l LogLine) error {
		mu.Lock()
		ids = append(ids, l.ThreadID)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	require.Len(t, ids, 50)
	for i, id := range ids {
		assert.Equal(t, int64(i), id)
	}
}

func TestLogLine_TimeFallback(t *testing.T) {
	before := time.Now()
	got := LogLine{Timestamp: "yesterday-ish"}.Time()
	assert.False(t, got.Before(before))

	got = LogLine{Timestamp: "2026-10-18 08:30:15.250"}.Time()
	assert.Equal(t, 250*time.Millisecond, time.Duration(got.Nanosecond()))
}
