package lipsync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloCues = `{
  "metadata": {"soundFile": "/home/creature/hello.wav", "duration": 1.20},
  "mouthCues": [
    {"start": 0.00, "end": 0.15, "value": "X"},
    {"start": 0.15, "end": 0.40, "value": "D"},
    {"start": 0.40, "end": 0.70, "value": "B"},
    {"start": 0.70, "end": 1.20, "value": "X"}
  ]
}`

func TestDecode(t *testing.T) {
	data, err := Decode(strings.NewReader(helloCues))
	require.NoError(t, err)

	assert.Equal(t, "/home/creature/hello.wav", data.Metadata.SoundFile)
	assert.InDelta(t, 1.2, data.Metadata.Duration, 1e-9)
	require.Len(t, data.MouthCues, 4)
	assert.Equal(t, Cue{Start: 0.15, End: 0.40, Value: "D"}, data.MouthCues[1])

	res, err := data.Resample(100)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255, 255, 255, 180, 180, 180, 0, 0, 0, 0, 0}, res.Frames)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   int
		wantCue bool
	}{
		{"not json", `{"metadata":`, 0, false},
		{"zero duration", `{"metadata":{"duration":0},"mouthCues":[]}`, 0, false},
		{"negative start", `{"metadata":{"duration":1},"mouthCues":[{"start":-0.1,"end":0.2,"value":"A"}]}`, 0, true},
		{"reversed cue", `{"metadata":{"duration":1},"mouthCues":[{"start":0,"end":0.1,"value":"A"},{"start":0.5,"end":0.5,"value":"B"}]}`, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCueFile)

			var cueErr *CueError
			if tt.wantCue {
				require.ErrorAs(t, err, &cueErr)
				assert.Equal(t, tt.index, cueErr.Index)
			} else {
				assert.NotErrorAs(t, err, &cueErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.json")
	require.NoError(t, os.WriteFile(path, []byte(helloCues), 0o600))

	data, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, data.MouthCues, 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
