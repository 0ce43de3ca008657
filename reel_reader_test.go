package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// buildReelData concatenates length-prefixed records from raw payloads.
func buildReelData(payloads ...[]byte) []byte {
	var data []byte
	for _, p := range payloads {
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(p)))
		data = append(data, lenBuf[:]...)
		data = append(data, p...)
	}
	return data
}

func TestReelReader_ReadsRecordsInOrder(t *testing.T) {
	data := buildReelData(
		[]byte{0x01, 0x02, 0x03},
		[]byte{0xAA},
		[]byte{0x10, 0x20, 0x30, 0x40, 0x50},
	)
	rr := NewReelReader(bytes.NewReader(data))

	want := [][]byte{
		{0x01, 0x02, 0x03},
		{0xAA},
		{0x10, 0x20, 0x30, 0x40, 0x50},
	}
	for i, w := range want {
		payload, err := rr.NextRecord()
		if err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
		if !bytes.Equal(payload, w) {
			t.Errorf("record %d: expected % X, got % X", i, w, payload)
		}
	}

	if _, err := rr.NextRecord(); err != io.EOF {
		t.Errorf("expected io.EOF after last record, got %v", err)
	}
	if rr.Records() != 3 {
		t.Errorf("expected 3 records counted, got %d", rr.Records())
	}
	if rr.BytesRead() != int64(len(data)) {
		t.Errorf("expected %d bytes read, got %d", len(data), rr.BytesRead())
	}
}

func TestReelReader_EmptyStream(t *testing.T) {
	rr := NewReelReader(bytes.NewReader(nil))
	if _, err := rr.NextRecord(); err != io.EOF {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
	if rr.Records() != 0 {
		t.Errorf("expected 0 records, got %d", rr.Records())
	}
}

func TestReelReader_ZeroLengthRecord(t *testing.T) {
	// A zero-length record is well-formed at this layer; it fails
	// later, at decompression.
	data := buildReelData([]byte{}, []byte{0x42})
	rr := NewReelReader(bytes.NewReader(data))

	payload, err := rr.NextRecord()
	if err != nil {
		t.Fatalf("zero-length record failed: %v", err)
	}
	if len(payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(payload))
	}

	payload, err = rr.NextRecord()
	if err != nil {
		t.Fatalf("record after zero-length failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{0x42}) {
		t.Errorf("expected 42, got % X", payload)
	}
}

func TestReelReader_TruncatedLengthPrefix(t *testing.T) {
	data := buildReelData([]byte{0x01, 0x02})
	data = append(data, 0x05) // one stray byte of a second prefix

	rr := NewReelReader(bytes.NewReader(data))
	if _, err := rr.NextRecord(); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	_, err := rr.NextRecord()
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestReelReader_TruncatedPayload(t *testing.T) {
	// Declares 8 payload bytes but delivers 5.
	data := []byte{0x08, 0x00, 1, 2, 3, 4, 5}
	rr := NewReelReader(bytes.NewReader(data))

	_, err := rr.NextRecord()
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
	if rr.Records() != 0 {
		t.Errorf("truncated record must not count, got %d", rr.Records())
	}
}

func TestReelWriter_RoundTrip(t *testing.T) {
	frame1 := bytes.Repeat([]byte{0xF0}, 2560)
	frame2 := bytes.Repeat([]byte{0x0F}, 2560)

	var buf bytes.Buffer
	rw := NewReelWriter(&buf, 6)
	if err := rw.WriteFrame(frame1); err != nil {
		t.Fatalf("WriteFrame(frame1) failed: %v", err)
	}
	if err := rw.WriteFrame(frame2); err != nil {
		t.Fatalf("WriteFrame(frame2) failed: %v", err)
	}
	if rw.Records() != 2 {
		t.Errorf("expected 2 records written, got %d", rw.Records())
	}
	if rw.Ratio() <= 0 || rw.Ratio() >= 1 {
		t.Errorf("expected compression ratio in (0, 1) for repetitive frames, got %f", rw.Ratio())
	}

	rr := NewReelReader(bytes.NewReader(buf.Bytes()))
	codec := NewFrameCodec()
	into := make([]byte, 2560)
	for i, want := range [][]byte{frame1, frame2} {
		payload, err := rr.NextRecord()
		if err != nil {
			t.Fatalf("reading back record %d failed: %v", i, err)
		}
		if err := codec.InflateFrame(payload, into); err != nil {
			t.Fatalf("inflating record %d failed: %v", i, err)
		}
		if !bytes.Equal(into, want) {
			t.Errorf("record %d did not round trip", i)
		}
	}
	if _, err := rr.NextRecord(); err != io.EOF {
		t.Errorf("expected io.EOF after readback, got %v", err)
	}
}

func TestWriteRecord_RejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRecord(&buf, make([]byte, 0x10000))
	if err == nil {
		t.Fatal("expected an error for a payload over the u16 limit")
	}
}
