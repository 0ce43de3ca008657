// reel_writer.go - Reel record emitter for the packer

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteRecord emits one length-prefixed record: u16 little-endian
// payload length followed by the payload bytes.
func WriteRecord(w io.Writer, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("record payload %d bytes exceeds u16 length prefix", len(payload))
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write record length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write record payload: %w", err)
	}
	return nil
}

// ReelWriter deflates raw frames and appends them to a reel stream,
// keeping the totals the packer reports when it finishes.
type ReelWriter struct {
	w       io.Writer
	level   int
	records uint32
	raw     int64
	packed  int64
}

func NewReelWriter(w io.Writer, level int) *ReelWriter {
	return &ReelWriter{w: w, level: level}
}

func (rw *ReelWriter) WriteFrame(frame []byte) error {
	payload, err := DeflateFrame(frame, rw.level)
	if err != nil {
		return err
	}
	if err := WriteRecord(rw.w, payload); err != nil {
		return err
	}
	rw.records++
	rw.raw += int64(len(frame))
	rw.packed += int64(len(payload)) + 2
	return nil
}

func (rw *ReelWriter) Records() uint32 {
	return rw.records
}

// Ratio reports packed output size as a fraction of the raw frame
// bytes, prefix included. Zero until the first frame is written.
func (rw *ReelWriter) Ratio() float64 {
	if rw.raw == 0 {
		return 0
	}
	return float64(rw.packed) / float64(rw.raw)
}
