// reel_info.go - Info mode: inspect a reel and melody without playing

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"
)

// runInfo walks every record in the reel, checking the container
// framing only (payloads are not inflated), and prints a summary.
func runInfo(config Config) error {
	f, err := os.Open(config.ReelPath)
	if err != nil {
		return fmt.Errorf("open reel: %w", err)
	}
	defer f.Close()

	reader := NewReelReader(bufio.NewReaderSize(f, reelReadBuffer))
	minSize, maxSize := -1, 0
	var totalPayload int64
	for {
		payload, err := reader.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		n := len(payload)
		if minSize < 0 || n < minSize {
			minSize = n
		}
		if n > maxSize {
			maxSize = n
		}
		totalPayload += int64(n)
	}

	frames := reader.Records()
	fmt.Printf("reel:     %s\n", config.ReelPath)
	if frames == 0 {
		fmt.Println("frames:   0 (empty reel)")
		return nil
	}

	monoSize := config.MonoSize()
	raw := int64(frames) * int64(monoSize)
	duration := time.Duration(frames) * config.FrameInterval
	fmt.Printf("frames:   %d (%s at %s per frame)\n", frames, duration.Round(time.Second), config.FrameInterval)
	fmt.Printf("geometry: %dx%d, %d bytes per frame unpacked\n", config.Width, config.Height, monoSize)
	fmt.Printf("payload:  min %d, avg %.0f, max %d bytes\n", minSize, float64(totalPayload)/float64(frames), maxSize)
	fmt.Printf("size:     %d bytes, %.1f%% of %d raw\n", reader.BytesRead(), float64(reader.BytesRead())/float64(raw)*100, raw)

	if config.MelodyPath == "" {
		return nil
	}
	events, err := LoadMelody(config.MelodyPath)
	if err != nil {
		return err
	}
	total := TotalFrames(events)
	fmt.Printf("melody:   %s\n", config.MelodyPath)
	fmt.Printf("events:   %d, %d frames scored\n", len(events), total)
	if total < uint64(frames) {
		fmt.Printf("coverage: melody ends %d frames before the reel does\n", uint64(frames)-total)
	} else {
		fmt.Printf("coverage: full (melody spans %d of %d frames)\n", frames, frames)
	}
	return nil
}
