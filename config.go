// config.go - Startup configuration, environment defaults, validation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	DEFAULT_REEL       = "badapple.reel"
	DEFAULT_WIDTH      = 128
	DEFAULT_HEIGHT     = 160
	DEFAULT_FPS        = 20
	DEFAULT_SCALE      = 3
	DEFAULT_BACKLIGHT  = 255
	DEFAULT_DUTY       = 560
	DEFAULT_RESTART_MS = 500
	DEFAULT_BACKOFF_MS = 2000
	DEFAULT_BAUD       = 115200
)

// Config is resolved once at startup (flag > environment > default)
// and never reloaded during playback.
type Config struct {
	ReelPath      string
	MelodyPath    string
	Width         int
	Height        int
	FPS           int
	FrameInterval time.Duration
	Loop          bool
	SinkBackend   int
	Scale         int
	Backlight     uint8
	Duty          uint16
	Mute          bool
	RestartDelay  time.Duration
	Backoff       time.Duration
	Port          string
	Baud          int
	AckWait       bool
}

// MonoSize reports the packed frame size for the configured geometry.
func (c Config) MonoSize() int {
	return c.Height * ((c.Width + 7) / 8)
}

// DisplayConfig extracts the sink-facing subset.
func (c Config) DisplayConfig() DisplayConfig {
	return DisplayConfig{
		Width:     c.Width,
		Height:    c.Height,
		Scale:     c.Scale,
		Backlight: c.Backlight,
		Port:      c.Port,
		Baud:      c.Baud,
		AckWait:   c.AckWait,
	}
}

func (c Config) Validate() error {
	if c.ReelPath == "" {
		return errors.New("a reel file is required (-reel)")
	}
	if c.Width < 8 || c.Height < 8 {
		return fmt.Errorf("frame size %dx%d is under the 8x8 minimum", c.Width, c.Height)
	}
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps %d out of range 1-120", c.FPS)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval %s must be positive", c.FrameInterval)
	}
	if c.Duty > 1023 {
		return fmt.Errorf("buzzer duty %d out of range 0-1023", c.Duty)
	}
	if c.Scale < 1 {
		return fmt.Errorf("window scale %d must be at least 1", c.Scale)
	}
	if c.SinkBackend == SINK_DEVICE && c.Port == "" {
		return errors.New("the device sink needs a serial port (-port)")
	}
	return nil
}

// resolveFrameInterval fixes the pacing target: an explicit per-frame
// millisecond override wins, otherwise the interval derives from FPS.
func (c *Config) resolveFrameInterval(frameMs int) {
	if frameMs > 0 {
		c.FrameInterval = time.Duration(frameMs) * time.Millisecond
		return
	}
	if c.FPS > 0 {
		c.FrameInterval = time.Second / time.Duration(c.FPS)
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("monoreel: %s=%q is not an integer, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("monoreel: %s=%q is not a boolean, using %v", key, value, fallback)
		return fallback
	}
	return b
}
