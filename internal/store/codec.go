package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// frameCodec turns a track's frames into a compressed blob and back.
type frameCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newFrameCodec(level int) (*frameCodec, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &frameCodec{encoder: encoder, decoder: decoder}, nil
}

func (c *frameCodec) encode(frames [][]byte) ([]byte, error) {
	raw, err := msgpack.Marshal(frames)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frames: %w", err)
	}
	return c.encoder.EncodeAll(raw, nil), nil
}

func (c *frameCodec) decode(blob []byte) ([][]byte, error) {
	raw, err := c.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	var frames [][]byte
	if err := msgpack.Unmarshal(raw, &frames); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return frames, nil
}

func (c *frameCodec) close() {
	c.encoder.Close() //nolint:errcheck
	c.decoder.Close()
}
