// reel_reader.go - Length-prefixed compressed frame record reader

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncatedStream reports a record whose declared length exceeds the
// bytes actually available, or a partial length prefix. Fatal to the
// current playback pass; the orchestrator restarts the pass.
var ErrTruncatedStream = errors.New("truncated frame stream")

// ReelReader pulls length-prefixed compressed frame records from a reel
// stream. Each record is a u16 little-endian payload length followed by
// that many payload bytes. Clean EOF at a record boundary is reported
// as io.EOF and marks the normal end of the stream.
type ReelReader struct {
	r       io.Reader
	payload []byte
	lenBuf  [2]byte
	records uint32
	read    int64
}

// NewReelReader wraps r. The payload buffer is allocated once at the
// u16 maximum and reused, so the slice returned by NextRecord is only
// valid until the following call.
func NewReelReader(r io.Reader) *ReelReader {
	return &ReelReader{
		r:       r,
		payload: make([]byte, 0xFFFF),
	}
}

// NextRecord returns the next record payload, io.EOF at the end of the
// stream, or ErrTruncatedStream if the stream ends mid-record.
func (rr *ReelReader) NextRecord() ([]byte, error) {
	n, err := io.ReadFull(rr.r, rr.lenBuf[:])
	rr.read += int64(n)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: short length prefix: %v",
			ErrTruncatedStream, rr.records, err)
	}

	length := binary.LittleEndian.Uint16(rr.lenBuf[:])
	buf := rr.payload[:length]
	n, err = io.ReadFull(rr.r, buf)
	rr.read += int64(n)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %d of %d payload bytes: %v",
			ErrTruncatedStream, rr.records, n, length, err)
	}

	rr.records++
	return buf, nil
}

// Records reports how many complete records have been returned.
func (rr *ReelReader) Records() uint32 {
	return rr.records
}

// BytesRead reports the total bytes consumed from the underlying stream.
func (rr *ReelReader) BytesRead() int64 {
	return rr.read
}
