package track

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tr, err := New("beaky", "wave", 3, 4)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, tr.ID)
	assert.Equal(t, 4, tr.Len())
	for _, frame := range tr.Frames {
		assert.Equal(t, []byte{0, 0, 0}, frame)
	}

	_, err = New("beaky", "wave", 0, 4)
	assert.ErrorIs(t, err, ErrNoAxes)
}

func TestReplaceAxis_ReplacesSubrange(t *testing.T) {
	tr, err := New("beaky", "talk", 2, 5)
	require.NoError(t, err)
	for i := range tr.Frames {
		tr.Frames[i] = []byte{9, 9}
	}

	require.NoError(t, tr.ReplaceAxis(1, 1, []byte{1, 0, 3}))

	assert.Equal(t, [][]byte{
		{9, 9},
		{9, 1},
		{9, 0},
		{9, 3},
		{9, 9},
	}, tr.Frames)
}

func TestReplaceAxis_GrowsTrack(t *testing.T) {
	tr, err := New("beaky", "talk", 3, 2)
	require.NoError(t, err)

	require.NoError(t, tr.ReplaceAxis(2, 1, []byte{7, 8, 9}))

	assert.Equal(t, 4, tr.Len())
	axis, err := tr.Axis(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 7, 8, 9}, axis)

	other, err := tr.Axis(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, other)
}

func TestReplaceAxis_Errors(t *testing.T) {
	tr, err := New("beaky", "talk", 2, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, tr.ReplaceAxis(2, 0, []byte{1}), ErrAxisOutOfRange)
	assert.ErrorIs(t, tr.ReplaceAxis(-1, 0, []byte{1}), ErrAxisOutOfRange)
	assert.ErrorIs(t, tr.ReplaceAxis(0, -1, []byte{1}), ErrNegativeOffset)

	_, err = tr.Axis(5)
	assert.ErrorIs(t, err, ErrAxisOutOfRange)
}
