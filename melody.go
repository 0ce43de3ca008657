// melody.go - RLE tone sequence parsing and the per-frame cursor

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"fmt"
	"os"
)

// MelodyEvent is one run-length record of the tone track. ToneCode is
// the audible frequency in Hz times 10, zero meaning silence, held for
// DurationFrames video frames.
type MelodyEvent struct {
	ToneCode       uint16
	DurationFrames uint16
}

const melodyRecordSize = 4

// ParseMelody decodes a melody stream: consecutive little-endian
// {toneCode u16, durationFrames u16} records. An empty input is valid
// and yields no events (silent throughout). A trailing partial record
// is rejected.
func ParseMelody(data []byte) ([]MelodyEvent, error) {
	if len(data)%melodyRecordSize != 0 {
		return nil, fmt.Errorf("melody stream is %d bytes, not a multiple of %d",
			len(data), melodyRecordSize)
	}
	events := make([]MelodyEvent, 0, len(data)/melodyRecordSize)
	for off := 0; off < len(data); off += melodyRecordSize {
		events = append(events, MelodyEvent{
			ToneCode:       binary.LittleEndian.Uint16(data[off : off+2]),
			DurationFrames: binary.LittleEndian.Uint16(data[off+2 : off+4]),
		})
	}
	return events, nil
}

// LoadMelody reads and parses a melody file. An empty path yields no
// events.
func LoadMelody(path string) ([]MelodyEvent, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load melody: %w", err)
	}
	return ParseMelody(data)
}

// TotalFrames sums the duration of a melody, the number of video
// frames it covers before degrading to silence.
func TotalFrames(events []MelodyEvent) uint64 {
	var total uint64
	for _, ev := range events {
		total += uint64(ev.DurationFrames)
	}
	return total
}

// MelodyCursor walks the event sequence in lockstep with the frame
// index. It is strictly forward-only: one frame is consumed per
// ToneForFrame call, the cursor advances to the next event when the
// current one is exhausted, and once all events are spent every further
// call returns silence. Reset rewinds to the first event on loop
// restart.
type MelodyCursor struct {
	events    []MelodyEvent
	index     int
	remaining uint16
}

func NewMelodyCursor(events []MelodyEvent) *MelodyCursor {
	return &MelodyCursor{events: events}
}

// ToneForFrame yields the tone code active for the given frame and
// consumes one frame of the current event. The frame index is the
// orchestrator's counter; the cursor's own position is authoritative.
func (mc *MelodyCursor) ToneForFrame(_ uint32) uint16 {
	for mc.index < len(mc.events) {
		ev := mc.events[mc.index]
		if mc.remaining == 0 {
			if ev.DurationFrames == 0 {
				mc.index++
				continue
			}
			mc.remaining = ev.DurationFrames
		}
		mc.remaining--
		if mc.remaining == 0 {
			mc.index++
		}
		return ev.ToneCode
	}
	return 0
}

// Reset rewinds the cursor to the first event.
func (mc *MelodyCursor) Reset() {
	mc.index = 0
	mc.remaining = 0
}

// EventIndex reports the cursor's current event position.
func (mc *MelodyCursor) EventIndex() uint32 {
	return uint32(mc.index)
}

// FramesRemaining reports the frames left in the current event.
func (mc *MelodyCursor) FramesRemaining() uint16 {
	return mc.remaining
}

// Exhausted reports whether every event has been consumed.
func (mc *MelodyCursor) Exhausted() bool {
	return mc.index >= len(mc.events)
}
