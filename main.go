// main.go - Entry point, CLI and wiring for MonoReel

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	boilerPlate()

	if err := godotenv.Load(); err == nil {
		log.Println("monoreel: loaded settings from .env")
	}

	var (
		modePack, modeScore, modeInfo bool

		inPath, outPath  string
		threshold, level int
		otsu, invert     bool

		reelPath, melodyPath   string
		width, height          int
		fps, frameMs           int
		loop                   bool
		sinkName               string
		scale, backlight, duty int
		mute                   bool
		restartMs, backoffMs   int
		port                   string
		baud                   int
		ack                    bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	flagSet.BoolVar(&modePack, "pack", false, "Pack a directory of frame images into a reel")
	flagSet.BoolVar(&modeScore, "score", false, "Compile a text note score into a melody file")
	flagSet.BoolVar(&modeInfo, "info", false, "Inspect a reel without playing it")

	flagSet.StringVar(&inPath, "in", "", "Input for -pack (frame directory) or -score (score file)")
	flagSet.StringVar(&outPath, "out", "", "Output file for -pack or -score")
	flagSet.IntVar(&threshold, "threshold", 128, "Pack luminance threshold, 0-255")
	flagSet.BoolVar(&otsu, "otsu", false, "Pack with a per-frame Otsu threshold")
	flagSet.IntVar(&level, "level", 9, "Pack zlib compression level, 1-9")
	flagSet.BoolVar(&invert, "invert", false, "Pack with black and white swapped")

	flagSet.StringVar(&reelPath, "reel", getEnv("MONOREEL_REEL", DEFAULT_REEL), "Reel file to play")
	flagSet.StringVar(&melodyPath, "melody", getEnv("MONOREEL_MELODY", ""), "Melody file (empty plays silent)")
	flagSet.IntVar(&width, "width", getEnvInt("MONOREEL_WIDTH", DEFAULT_WIDTH), "Frame width in pixels")
	flagSet.IntVar(&height, "height", getEnvInt("MONOREEL_HEIGHT", DEFAULT_HEIGHT), "Frame height in pixels")
	flagSet.IntVar(&fps, "fps", getEnvInt("MONOREEL_FPS", DEFAULT_FPS), "Playback rate in frames per second")
	flagSet.IntVar(&frameMs, "frame-ms", getEnvInt("MONOREEL_FRAME_MS", 0), "Frame interval in milliseconds (overrides -fps)")
	flagSet.BoolVar(&loop, "loop", getEnvBool("MONOREEL_LOOP", true), "Restart the reel when it ends")
	flagSet.StringVar(&sinkName, "sink", getEnv("MONOREEL_SINK", "window"), "Display sink: window, terminal, device or none")
	flagSet.IntVar(&scale, "scale", getEnvInt("MONOREEL_SCALE", DEFAULT_SCALE), "Window pixel scale factor")
	flagSet.IntVar(&backlight, "backlight", getEnvInt("MONOREEL_BACKLIGHT", DEFAULT_BACKLIGHT), "Backlight level, 0-255")
	flagSet.IntVar(&duty, "duty", getEnvInt("MONOREEL_DUTY", DEFAULT_DUTY), "Buzzer duty cycle, 0-1023")
	flagSet.BoolVar(&mute, "mute", getEnvBool("MONOREEL_MUTE", false), "Disable audio output")
	flagSet.IntVar(&restartMs, "restart-ms", getEnvInt("MONOREEL_RESTART_MS", DEFAULT_RESTART_MS), "Delay before a loop restart, in milliseconds")
	flagSet.IntVar(&backoffMs, "backoff-ms", getEnvInt("MONOREEL_BACKOFF_MS", DEFAULT_BACKOFF_MS), "Backoff after a playback fault, in milliseconds")
	flagSet.StringVar(&port, "port", getEnv("MONOREEL_PORT", ""), "Serial port for the device sink")
	flagSet.IntVar(&baud, "baud", getEnvInt("MONOREEL_BAUD", DEFAULT_BAUD), "Serial baud rate for the device sink")
	flagSet.BoolVar(&ack, "ack", getEnvBool("MONOREEL_ACK", false), "Wait for a device ACK after every packet")

	flagSet.Usage = func() {
		fmt.Println("Usage:")
		fmt.Println("  ./monoreel [-reel clip.reel] [-melody tune.mel] [-sink window|terminal|device|none]")
		fmt.Println("  ./monoreel -pack -in frames/ -out clip.reel [-otsu] [-invert]")
		fmt.Println("  ./monoreel -score -in tune.txt -out tune.mel")
		fmt.Println("  ./monoreel -info -reel clip.reel [-melody tune.mel]")
		fmt.Println()
		flagSet.SetOutput(os.Stdout)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Run with -h for usage.")
		os.Exit(1)
	}

	modes := 0
	for _, m := range []bool{modePack, modeScore, modeInfo} {
		if m {
			modes++
		}
	}
	if modes > 1 {
		fmt.Println("Error: pick at most one of -pack, -score, -info")
		os.Exit(1)
	}

	switch {
	case modePack:
		err := runPack(PackOptions{
			InDir:     inPath,
			OutPath:   outPath,
			Width:     width,
			Height:    height,
			Threshold: threshold,
			Otsu:      otsu,
			Invert:    invert,
			Level:     level,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	case modeScore:
		if err := runScore(ScoreOptions{InPath: inPath, OutPath: outPath, FPS: fps}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if backlight < 0 || backlight > 255 {
		fmt.Printf("Error: backlight %d out of range 0-255\n", backlight)
		os.Exit(1)
	}
	if duty < 0 || duty > 1023 {
		fmt.Printf("Error: duty %d out of range 0-1023\n", duty)
		os.Exit(1)
	}
	sinkBackend, err := SinkBackendByName(sinkName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	config := Config{
		ReelPath:     reelPath,
		MelodyPath:   melodyPath,
		Width:        width,
		Height:       height,
		FPS:          fps,
		Loop:         loop,
		SinkBackend:  sinkBackend,
		Scale:        scale,
		Backlight:    uint8(backlight),
		Duty:         uint16(duty),
		Mute:         mute,
		RestartDelay: msDuration(restartMs),
		Backoff:      msDuration(backoffMs),
		Port:         port,
		Baud:         baud,
		AckWait:      ack,
	}
	config.resolveFrameInterval(frameMs)
	if err := config.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if modeInfo {
		if err := runInfo(config); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sink, err := NewDisplaySink(config.SinkBackend, config.DisplayConfig())
	if err != nil {
		fmt.Printf("Failed to initialize display: %v\n", err)
		os.Exit(1)
	}

	var buzzer Buzzer
	if config.Mute {
		buzzer = NewNullBuzzer()
	} else {
		buzzer, err = NewBuzzer(BUZZER_OTO)
		if err != nil {
			log.Printf("monoreel: audio unavailable, playing silent: %v", err)
			buzzer = NewNullBuzzer()
		}
	}

	player := NewPlayer(config, sink, buzzer)
	if notifier, ok := sink.(StopNotifier); ok {
		notifier.SetCloseHandler(player.Stop)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("monoreel: interrupt, stopping")
		player.Stop()
	}()

	runErr := player.Run()
	if err := sink.Close(); err != nil {
		log.Printf("monoreel: display close: %v", err)
	}
	if err := buzzer.Close(); err != nil {
		log.Printf("monoreel: buzzer close: %v", err)
	}
	if runErr != nil {
		fmt.Printf("Playback error: %v\n", runErr)
		os.Exit(1)
	}
}

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147mMonoReel\033[0m")
	fmt.Println("Monochrome reels and a single-tone melody for tiny panels.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/MonoReel")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}
