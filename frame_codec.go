// frame_codec.go - Zlib frame payload codec

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ErrCorruptFrame reports a record payload that is not a well-formed
// zlib stream or does not inflate to exactly the frame size. Recovered
// locally by repeating the previous good frame; never fatal to the pass.
var ErrCorruptFrame = errors.New("corrupt frame record")

// FrameCodec inflates record payloads directly into a caller-supplied
// frame buffer. The zlib reader and source reader are reused across
// frames, so steady-state playback performs no per-frame allocations.
type FrameCodec struct {
	src  *bytes.Reader
	zr   io.ReadCloser
	tail [1]byte
}

func NewFrameCodec() *FrameCodec {
	return &FrameCodec{src: bytes.NewReader(nil)}
}

// InflateFrame decompresses payload into the supplied buffer. The
// payload must inflate to exactly len(into) bytes; anything else,
// including a malformed stream or a failed checksum, is ErrCorruptFrame.
func (c *FrameCodec) InflateFrame(payload []byte, into []byte) error {
	c.src.Reset(payload)

	if c.zr == nil {
		zr, err := zlib.NewReader(c.src)
		if err != nil {
			return fmt.Errorf("%w: zlib header: %v", ErrCorruptFrame, err)
		}
		c.zr = zr
	} else if err := c.zr.(zlib.Resetter).Reset(c.src, nil); err != nil {
		return fmt.Errorf("%w: zlib header: %v", ErrCorruptFrame, err)
	}

	n, err := io.ReadFull(c.zr, into)
	if err != nil {
		return fmt.Errorf("%w: inflated %d of %d bytes: %v",
			ErrCorruptFrame, n, len(into), err)
	}

	// The stream must end exactly here. This read also forces the
	// adler32 verification, which only happens once the inflater
	// reaches the stream trailer.
	m, err := c.zr.Read(c.tail[:])
	if m != 0 {
		return fmt.Errorf("%w: inflates past %d bytes", ErrCorruptFrame, len(into))
	}
	if err != io.EOF {
		return fmt.Errorf("%w: stream trailer: %v", ErrCorruptFrame, err)
	}
	return nil
}

// DeflateFrame compresses one raw frame into a record payload. Level
// follows zlib conventions (1 fastest, 9 best, -1 default).
func DeflateFrame(frame []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib level %d: %w", level, err)
	}
	if _, err := zw.Write(frame); err != nil {
		return nil, fmt.Errorf("deflate frame: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate frame: %w", err)
	}
	return buf.Bytes(), nil
}
