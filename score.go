// score.go - Score mode: a plain-text note score into a melody file

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
)

type ScoreOptions struct {
	InPath  string
	OutPath string
	FPS     int
}

func runScore(opts ScoreOptions) error {
	if opts.InPath == "" || opts.OutPath == "" {
		return errors.New("score mode needs -in (score file) and -out (melody file)")
	}
	if opts.FPS < 1 {
		return fmt.Errorf("fps %d out of range", opts.FPS)
	}

	in, err := os.Open(opts.InPath)
	if err != nil {
		return fmt.Errorf("open score: %w", err)
	}
	defer in.Close()

	events, err := ParseScore(in, opts.FPS)
	if err != nil {
		return err
	}

	out, err := os.Create(opts.OutPath)
	if err != nil {
		return fmt.Errorf("create melody: %w", err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)
	if err := WriteMelody(bw, events); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush melody: %w", err)
	}

	total := TotalFrames(events)
	log.Printf("monoreel: wrote %d events to %s (%d frames, %.1fs at %d fps)",
		len(events), opts.OutPath, total, float64(total)/float64(opts.FPS), opts.FPS)
	return nil
}

// ParseScore compiles a plain-text score into melody events. One entry
// per line, '#' starts a comment:
//
//	tempo 140    beats per minute for beat durations (default 120)
//	A4 1         note and duration in beats
//	C#5 0.5      sharps with '#', flats with 'b' (Eb3)
//	R 12f        rest, duration in frames with an 'f' suffix
//
// Adjacent entries with the same tone merge into one event; durations
// that overflow the event field split across several.
func ParseScore(r io.Reader, fps int) ([]MelodyEvent, error) {
	scanner := bufio.NewScanner(r)
	tempo := 120.0
	var events []MelodyEvent
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if strings.EqualFold(fields[0], "tempo") {
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: tempo takes one value", lineNo)
			}
			t, err := strconv.ParseFloat(fields[1], 64)
			if err != nil || t <= 0 {
				return nil, fmt.Errorf("line %d: bad tempo %q", lineNo, fields[1])
			}
			tempo = t
			continue
		}

		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want NOTE DURATION, got %q", lineNo, strings.TrimSpace(line))
		}
		code, err := toneCodeForNote(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		frames, err := durationFrames(fields[1], tempo, fps)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = appendTone(events, code, frames)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}
	return events, nil
}

// appendTone run-length merges equal tones and splits runs longer than
// the u16 duration field.
func appendTone(events []MelodyEvent, code uint16, frames int) []MelodyEvent {
	for frames > 0 {
		if n := len(events); n > 0 && events[n-1].ToneCode == code && events[n-1].DurationFrames < 0xFFFF {
			room := int(0xFFFF - events[n-1].DurationFrames)
			take := min(room, frames)
			events[n-1].DurationFrames += uint16(take)
			frames -= take
			continue
		}
		take := min(frames, 0xFFFF)
		events = append(events, MelodyEvent{ToneCode: code, DurationFrames: uint16(take)})
		frames -= take
	}
	return events
}

var noteSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// toneCodeForNote maps scientific pitch ("A4", "C#5", "Eb3") to the
// Hz x 10 tone code, equal temperament with A4 = 440 Hz. "R" is a rest.
func toneCodeForNote(name string) (uint16, error) {
	if name == "R" || name == "r" {
		return 0, nil
	}
	if len(name) < 2 {
		return 0, fmt.Errorf("bad note %q", name)
	}
	semitone, ok := noteSemitones[name[0]&^0x20]
	if !ok {
		return 0, fmt.Errorf("bad note %q", name)
	}
	i := 1
	switch name[i] {
	case '#':
		semitone++
		i++
	case 'b':
		semitone--
		i++
	}
	octave, err := strconv.Atoi(name[i:])
	if err != nil {
		return 0, fmt.Errorf("bad octave in %q", name)
	}

	midi := (octave+1)*12 + semitone
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("note %q out of range", name)
	}
	freq := 440.0 * math.Pow(2, float64(midi-69)/12.0)
	code := math.Round(freq * 10)
	if code > 65535 {
		return 0, fmt.Errorf("note %q above the tone code range", name)
	}
	return uint16(code), nil
}

// durationFrames resolves "12f" to frames directly and a plain decimal
// to beats at the current tempo, rounded to at least one frame.
func durationFrames(s string, tempo float64, fps int) (int, error) {
	if strings.HasSuffix(s, "f") || strings.HasSuffix(s, "F") {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("bad frame duration %q", s)
		}
		return n, nil
	}
	beats, err := strconv.ParseFloat(s, 64)
	if err != nil || beats <= 0 {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	frames := int(math.Round(beats * 60.0 / tempo * float64(fps)))
	if frames < 1 {
		frames = 1
	}
	return frames, nil
}

// WriteMelody emits the little-endian event records.
func WriteMelody(w io.Writer, events []MelodyEvent) error {
	var rec [melodyRecordSize]byte
	for _, ev := range events {
		binary.LittleEndian.PutUint16(rec[0:2], ev.ToneCode)
		binary.LittleEndian.PutUint16(rec[2:4], ev.DurationFrames)
		if _, err := w.Write(rec[:]); err != nil {
			return fmt.Errorf("write melody record: %w", err)
		}
	}
	return nil
}
