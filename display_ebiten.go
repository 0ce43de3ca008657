//go:build !headless

// display_ebiten.go - Ebiten window display sink

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const statusBarHeight = 28

type WindowSink struct {
	config        DisplayConfig
	rgba          []byte
	window        *ebiten.Image
	mutex         sync.RWMutex
	running       bool
	fullscreen    bool
	showStatusBar bool
	backlight     uint8
	status        PlaybackStatus
	frameCount    uint64
	vsyncChan     chan struct{}
	done          chan struct{}
	runErr        error
	closeHandler  func()
}

// NewWindowSink opens the playback window and blocks until the first
// Draw call so the render loop is live before the first Blit.
func NewWindowSink(config DisplayConfig) (DisplaySink, error) {
	scale := config.Scale
	if scale < 1 {
		scale = 1
	}
	ws := &WindowSink{
		config:        config,
		rgba:          make([]byte, config.Width*config.Height*4),
		running:       true,
		showStatusBar: true,
		backlight:     config.Backlight,
		vsyncChan:     make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	for i := 3; i < len(ws.rgba); i += 4 {
		ws.rgba[i] = 0xFF
	}

	ebiten.SetWindowSize(config.Width*scale, (config.Height+statusBarHeight)*scale)
	ebiten.SetWindowTitle("MonoReel (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	// Route the close button through Update so the player gets a clean
	// stop instead of a dead window.
	ebiten.SetWindowClosingHandled(true)

	go func() {
		err := ebiten.RunGame(ws)
		ws.mutex.Lock()
		ws.running = false
		ws.runErr = err
		ws.mutex.Unlock()
		if err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
		close(ws.done)
	}()

	// Wait for first Draw call to ensure Ebiten is ready
	select {
	case <-ws.vsyncChan:
	case <-ws.done:
		ws.mutex.RLock()
		err := ws.runErr
		ws.mutex.RUnlock()
		return nil, &DisplayError{
			Operation: "window open",
			Details:   "render loop exited before first frame",
			Err:       err,
		}
	}
	return ws, nil
}

func (ws *WindowSink) Blit(frame []byte) error {
	if len(frame) != ws.config.MonoSize() {
		return &DisplayError{
			Operation: "blit",
			Details:   fmt.Sprintf("frame is %d bytes, want %d", len(frame), ws.config.MonoSize()),
		}
	}
	ws.mutex.Lock()
	if !ws.running {
		ws.mutex.Unlock()
		return &DisplayError{Operation: "blit", Details: "window closed"}
	}
	expandMono(frame, ws.rgba, ws.config.Width, ws.config.Height, ws.backlight)
	ws.mutex.Unlock()
	return nil
}

// SetBacklight adjusts the rendered white level. Takes effect from the
// next blitted frame.
func (ws *WindowSink) SetBacklight(level uint8) error {
	ws.mutex.Lock()
	ws.backlight = level
	ws.mutex.Unlock()
	return nil
}

func (ws *WindowSink) SetStatus(status PlaybackStatus) {
	ws.mutex.Lock()
	ws.status = status
	ws.mutex.Unlock()
}

func (ws *WindowSink) SetCloseHandler(fn func()) {
	ws.mutex.Lock()
	ws.closeHandler = fn
	ws.mutex.Unlock()
}

func (ws *WindowSink) Close() error {
	ws.mutex.Lock()
	ws.running = false
	ws.mutex.Unlock()
	return nil
}

func (ws *WindowSink) Update() error {
	if ebiten.IsWindowBeingClosed() {
		ws.mutex.RLock()
		handler := ws.closeHandler
		ws.mutex.RUnlock()
		if handler != nil {
			handler()
		}
		ws.mutex.Lock()
		ws.running = false
		ws.mutex.Unlock()
		return ebiten.Termination
	}

	ws.mutex.RLock()
	running := ws.running
	ws.mutex.RUnlock()
	if !running {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ws.mutex.Lock()
		ws.fullscreen = !ws.fullscreen
		ebiten.SetFullscreen(ws.fullscreen)
		ws.mutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		ws.mutex.Lock()
		ws.showStatusBar = !ws.showStatusBar
		ws.mutex.Unlock()
	}
	return nil
}

func (ws *WindowSink) Draw(screen *ebiten.Image) {
	if ws.window == nil {
		ws.window = ebiten.NewImage(ws.config.Width, ws.config.Height)
	}

	ws.mutex.RLock()
	ws.window.WritePixels(ws.rgba)
	showStatusBar := ws.showStatusBar
	status := ws.status
	ws.mutex.RUnlock()

	screen.DrawImage(ws.window, nil)
	if showStatusBar {
		ws.drawStatusBar(screen, status)
	}

	ws.frameCount++
	select {
	case ws.vsyncChan <- struct{}{}:
	default:
	}
}

func (ws *WindowSink) Layout(_, _ int) (int, int) {
	return ws.config.Width, ws.config.Height + statusBarHeight
}

func formatTone(hz float64) string {
	if hz <= 0 {
		return "--"
	}
	return fmt.Sprintf("%.4gHz", hz)
}

func (ws *WindowSink) drawStatusBar(screen *ebiten.Image, status PlaybackStatus) {
	face := basicfont.Face7x13
	textColor := color.RGBA{0, 220, 90, 255}
	y := ws.config.Height

	ebitenutil.DrawRect(screen, 0, float64(y), float64(ws.config.Width),
		float64(statusBarHeight), color.RGBA{0, 0, 0, 255})

	line1 := fmt.Sprintf("frame %d loop %d", status.FrameIndex, status.LoopCount)
	line2 := fmt.Sprintf("%.0ffps %s %s", status.FPS,
		status.Drift.Round(time.Millisecond), formatTone(status.ToneHz))
	text.Draw(screen, line1, face, 2, y+11, textColor)
	text.Draw(screen, line2, face, 2, y+24, textColor)
}
