package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatures/console/internal/cache"
	"github.com/creatures/console/internal/config"
	"github.com/creatures/console/internal/lipsync"
	"github.com/creatures/console/internal/store"
	"github.com/creatures/console/internal/track"
)

func TestServerLevel(t *testing.T) {
	tests := map[string]log.Level{
		"trace":    log.DebugLevel,
		"debug":    log.DebugLevel,
		"info":     log.InfoLevel,
		"WARNING":  log.WarnLevel,
		"error":    log.ErrorLevel,
		"critical": log.FatalLevel,
		"":         log.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, serverLevel(in), "serverLevel(%q)", in)
	}
}

func TestOverlay(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("server.host", "creature-server.local")
	viper.Set("lipsync.ms_per_frame", 40)
	viper.Set("dial_timeout", "2s")

	c := config.Config{ServerHost: "localhost", ServerPort: 8000, MsPerFrame: 20}
	overlay(&c)

	assert.Equal(t, "creature-server.local", c.ServerHost)
	assert.Equal(t, 8000, c.ServerPort, "unset keys keep their value")
	assert.Equal(t, 40, c.MsPerFrame)
	assert.Equal(t, "2s", c.DialTimeout.String())
}

func TestPrintFrameValues(t *testing.T) {
	var buf bytes.Buffer
	printFrameValues(&buf, []byte{5, 180, 0})
	assert.Equal(t, "     0:   5 180   0\n", buf.String())

	buf.Reset()
	printFrameValues(&buf, make([]byte, 21))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "    20:"))

	buf.Reset()
	printFrameValues(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestPrintResampleSummary(t *testing.T) {
	data := &lipsync.SoundData{
		Metadata:  lipsync.SoundMetadata{SoundFile: "hello.wav", Duration: 2.5},
		MouthCues: []lipsync.Cue{{Start: 0, End: 0.5, Value: "A"}, {Start: 0.4, End: 3, Value: "B"}},
	}
	res, err := data.Resample(100)
	require.NoError(t, err)

	var buf bytes.Buffer
	printResampleSummary(&buf, "/tmp/hello.json", data, res)
	out := buf.String()

	assert.Contains(t, out, "hello.json")
	assert.Contains(t, out, "2 cues over 2.5s")
	assert.Contains(t, out, "25 frames at 100ms")
	assert.Contains(t, out, "cues ran past the end")
}

func TestSpliceWithStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "console.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	tr, err := track.New("beaky", "hello", 4, 5)
	require.NoError(t, err)
	require.NoError(t, st.SaveTrack(ctx, tr))

	require.NoError(t, spliceWithStore(ctx, st, tr.ID, 3, 2, []byte{5, 180, 180, 240}))

	loaded, err := st.LoadTrack(ctx, tr.ID)
	require.NoError(t, err)
	axis, err := loaded.Axis(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 5, 180, 180, 240}, axis)

	err = spliceWithStore(ctx, st, tr.ID, 9, 0, []byte{1})
	assert.ErrorIs(t, err, track.ErrAxisOutOfRange)

	other, err := track.New("beaky", "other", 1, 0)
	require.NoError(t, err)
	err = spliceWithStore(ctx, st, other.ID, 0, 0, []byte{1})
	assert.ErrorIs(t, err, store.ErrTrackNotFound)
}

func TestResampleContent_ReusesCachedFrames(t *testing.T) {
	frames := cache.NewFrameCache(1 << 20)
	content := []byte(`{"metadata":{"duration":0.5},"mouthCues":[{"start":0,"end":0.2,"value":"B"}]}`)

	data, first, err := resampleContent(frames, content, 100)
	require.NoError(t, err)
	require.NotNil(t, data, "first sight of a file is decoded")
	assert.Equal(t, []byte{180, 180, 0, 0, 0}, first.Frames)

	data, again, err := resampleContent(frames, content, 100)
	require.NoError(t, err)
	assert.Nil(t, data, "unchanged content is not decoded again")
	assert.Equal(t, first, again)
	assert.Equal(t, int64(1), frames.Stats().Hits)

	data, other, err := resampleContent(frames, content, 50)
	require.NoError(t, err)
	assert.NotNil(t, data, "a new interval is a cache miss")
	assert.Len(t, other.Frames, 10)

	_, _, err = resampleContent(frames, []byte(`{"metadata":`), 100)
	assert.ErrorIs(t, err, lipsync.ErrInvalidCueFile)
}
