// display_terminal.go - ANSI half-block terminal display sink

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalSink renders frames as text, two pixel rows per line using
// the half-block glyphs. On a real TTY it takes over the alternate
// screen and repaints in place; on a pipe it just emits frames.
type TerminalSink struct {
	config    DisplayConfig
	out       io.Writer
	buf       bytes.Buffer
	backlight uint8
	isTTY     bool
	frames    uint64
}

const (
	glyphFull   = '█' // both pixels set
	glyphTop    = '▀' // upper pixel set
	glyphBottom = '▄' // lower pixel set
)

func NewTerminalSink(config DisplayConfig, out io.Writer) (DisplaySink, error) {
	ts := &TerminalSink{
		config:    config,
		out:       out,
		backlight: config.Backlight,
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		ts.isTTY = true
		cols, rows, err := term.GetSize(int(f.Fd()))
		if err == nil {
			needRows := (config.Height + 1) / 2
			if cols < config.Width || rows < needRows {
				return nil, &DisplayError{
					Operation: "terminal open",
					Details: fmt.Sprintf("terminal %dx%d is smaller than the %dx%d character frame",
						cols, rows, config.Width, needRows),
				}
			}
		}
		// Alternate screen, cursor hidden, cleared once; each frame
		// repaints from the home position.
		if _, err := fmt.Fprint(out, "\x1b[?1049h\x1b[?25l\x1b[2J"); err != nil {
			return nil, &DisplayError{Operation: "terminal open", Details: "escape setup", Err: err}
		}
	}
	return ts, nil
}

func (ts *TerminalSink) Blit(frame []byte) error {
	if len(frame) != ts.config.MonoSize() {
		return &DisplayError{
			Operation: "blit",
			Details:   fmt.Sprintf("frame is %d bytes, want %d", len(frame), ts.config.MonoSize()),
		}
	}

	lit := ts.backlight > 0
	width, height := ts.config.Width, ts.config.Height

	ts.buf.Reset()
	if ts.isTTY {
		ts.buf.WriteString("\x1b[H")
	}
	for y := 0; y < height; y += 2 {
		if y > 0 {
			ts.buf.WriteByte('\n')
		}
		for x := 0; x < width; x++ {
			top := lit && monoPixel(frame, x, y, width)
			bottom := lit && y+1 < height && monoPixel(frame, x, y+1, width)
			switch {
			case top && bottom:
				ts.buf.WriteRune(glyphFull)
			case top:
				ts.buf.WriteRune(glyphTop)
			case bottom:
				ts.buf.WriteRune(glyphBottom)
			default:
				ts.buf.WriteByte(' ')
			}
		}
	}
	if !ts.isTTY {
		ts.buf.WriteByte('\n')
	}

	if _, err := ts.out.Write(ts.buf.Bytes()); err != nil {
		return &DisplayError{Operation: "blit", Details: "terminal write", Err: err}
	}
	ts.frames++
	return nil
}

// SetBacklight at level 0 blanks the output, any other level renders
// normally. A text cell has no brightness in between.
func (ts *TerminalSink) SetBacklight(level uint8) error {
	ts.backlight = level
	return nil
}

func (ts *TerminalSink) Close() error {
	if ts.isTTY {
		if _, err := fmt.Fprint(ts.out, "\x1b[?1049l\x1b[?25h"); err != nil {
			return &DisplayError{Operation: "terminal close", Details: "escape restore", Err: err}
		}
	}
	return nil
}

func (ts *TerminalSink) Frames() uint64 {
	return ts.frames
}
