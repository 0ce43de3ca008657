// display.go - Display sink interface, backend factory and null sink

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// DisplayError provides detailed error context for sink operations.
// Any sink fault reaching the orchestrator restarts the pass after a
// backoff.
type DisplayError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *DisplayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("display %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("display %s failed: %s", e.Operation, e.Details)
}

func (e *DisplayError) Unwrap() error {
	return e.Err
}

// DisplayConfig contains the sink-independent frame geometry plus the
// knobs individual backends pick from.
type DisplayConfig struct {
	Width     int
	Height    int
	Scale     int   // Integer window scaling factor
	Backlight uint8 // Initial backlight level
	Port      string
	Baud      int
	AckWait   bool
}

// MonoSize reports the packed frame size for the configured geometry:
// rows padded to whole bytes, 8 pixels per byte, MSB leftmost.
func (c DisplayConfig) MonoSize() int {
	return c.Height * ((c.Width + 7) / 8)
}

// DisplaySink consumes one ready frame buffer per cycle. Blit must have
// finished consuming the handed buffer when it returns; sinks that
// present asynchronously copy the pixels out first. The buffer itself
// is owned by the frame pool and must not be retained.
type DisplaySink interface {
	Blit(frame []byte) error
	SetBacklight(level uint8) error
	Close() error
}

// PlaybackStatus is the per-cycle snapshot the orchestrator publishes
// to sinks that can show it.
type PlaybackStatus struct {
	FrameIndex uint32
	LoopCount  uint32
	FPS        float64
	Drift      time.Duration
	ToneHz     float64
	State      PlayerState
}

// StatusSink is an optional sink capability: the window backend draws
// the snapshot in its status bar, everything else ignores it.
type StatusSink interface {
	SetStatus(status PlaybackStatus)
}

// StopNotifier is an optional sink capability: sinks with their own
// user-facing surface (the window close button) report the user
// quitting through the registered handler.
type StopNotifier interface {
	SetCloseHandler(fn func())
}

// Predefined display sink backends
const (
	SINK_WINDOW = iota // Ebiten window
	SINK_TERMINAL      // ANSI half-block renderer on stdout
	SINK_DEVICE        // Framed packets over a serial device link
	SINK_NULL          // Counts frames, displays nothing
)

// SinkBackendByName maps the -sink flag spelling to a backend constant.
func SinkBackendByName(name string) (int, error) {
	switch name {
	case "window":
		return SINK_WINDOW, nil
	case "terminal":
		return SINK_TERMINAL, nil
	case "device":
		return SINK_DEVICE, nil
	case "none", "null":
		return SINK_NULL, nil
	}
	return 0, fmt.Errorf("unknown display sink %q", name)
}

// NewDisplaySink creates a display sink using the specified backend.
func NewDisplaySink(backend int, config DisplayConfig) (DisplaySink, error) {
	switch backend {
	case SINK_WINDOW:
		return NewWindowSink(config)
	case SINK_TERMINAL:
		return NewTerminalSink(config, os.Stdout)
	case SINK_DEVICE:
		return NewDeviceLinkSink(config)
	case SINK_NULL:
		return NewNullSink(config), nil
	}
	return nil, &DisplayError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}

// NullSink accepts and counts frames without rendering them. Used for
// profiling the pipeline and as the headless window stand-in.
type NullSink struct {
	config    DisplayConfig
	mutex     sync.Mutex
	frames    uint64
	backlight uint8
}

func NewNullSink(config DisplayConfig) *NullSink {
	return &NullSink{config: config, backlight: config.Backlight}
}

func (ns *NullSink) Blit(frame []byte) error {
	if len(frame) != ns.config.MonoSize() {
		return &DisplayError{
			Operation: "blit",
			Details:   fmt.Sprintf("frame is %d bytes, want %d", len(frame), ns.config.MonoSize()),
		}
	}
	ns.mutex.Lock()
	ns.frames++
	ns.mutex.Unlock()
	return nil
}

func (ns *NullSink) SetBacklight(level uint8) error {
	ns.mutex.Lock()
	ns.backlight = level
	ns.mutex.Unlock()
	return nil
}

func (ns *NullSink) Close() error {
	return nil
}

func (ns *NullSink) Frames() uint64 {
	ns.mutex.Lock()
	defer ns.mutex.Unlock()
	return ns.frames
}

// monoPixel reports the pixel at (x, y) of a packed frame: rows padded
// to whole bytes, MSB leftmost.
func monoPixel(frame []byte, x, y, width int) bool {
	stride := (width + 7) / 8
	return frame[y*stride+x/8]&(0x80>>(x%8)) != 0
}

// expandMono unpacks one packed frame into an RGBA pixel buffer. Set
// bits render at the given luminance (the backlight analogue), clear
// bits render black. dst must hold width*height*4 bytes.
func expandMono(frame []byte, dst []byte, width, height int, lum byte) {
	stride := (width + 7) / 8
	di := 0
	for y := 0; y < height; y++ {
		row := frame[y*stride : (y+1)*stride]
		for x := 0; x < width; x++ {
			var v byte
			if row[x/8]&(0x80>>(x%8)) != 0 {
				v = lum
			}
			dst[di] = v
			dst[di+1] = v
			dst[di+2] = v
			dst[di+3] = 0xFF
			di += 4
		}
	}
}
