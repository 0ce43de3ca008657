// packer.go - Pack mode: a directory of frame images into a reel

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

type PackOptions struct {
	InDir     string
	OutPath   string
	Width     int
	Height    int
	Threshold int  // Fixed luminance threshold, 0-255
	Otsu      bool // Derive the threshold per frame instead
	Invert    bool
	Level     int // zlib compression level
}

// runPack reads the input directory's images in lexical order, scales
// each to the target geometry, binarizes, packs and deflates it, and
// appends the records to the output reel.
func runPack(opts PackOptions) error {
	if opts.InDir == "" || opts.OutPath == "" {
		return errors.New("pack mode needs -in (frame directory) and -out (reel file)")
	}
	if opts.Threshold < 0 || opts.Threshold > 255 {
		return fmt.Errorf("threshold %d out of range 0-255", opts.Threshold)
	}

	frames, err := listFrameImages(opts.InDir)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frame images (png, jpeg, gif) in %s", opts.InDir)
	}

	out, err := os.Create(opts.OutPath)
	if err != nil {
		return fmt.Errorf("create reel: %w", err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)
	writer := NewReelWriter(bw, opts.Level)

	monoSize := opts.Height * ((opts.Width + 7) / 8)
	scaled := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	gray := make([]byte, opts.Width*opts.Height)
	packed := make([]byte, monoSize)

	for i, path := range frames {
		if err := packOneImage(path, scaled, gray, packed, opts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := writer.WriteFrame(packed); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if (i+1)%250 == 0 {
			log.Printf("monoreel: packed %d/%d frames", i+1, len(frames))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush reel: %w", err)
	}
	log.Printf("monoreel: wrote %d frames to %s (%.1f%% of raw)",
		writer.Records(), opts.OutPath, writer.Ratio()*100)
	return nil
}

func listFrameImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}
	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif":
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

func packOneImage(path string, scaled *image.RGBA, gray, packed []byte, opts PackOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	grayFromRGBA(scaled, gray)

	threshold := opts.Threshold
	if opts.Otsu {
		threshold = otsuThreshold(gray)
	}
	PackFrame(gray, packed, opts.Width, opts.Height, threshold, opts.Invert)
	return nil
}

// grayFromRGBA reduces the scaled image to BT.601 integer luminance.
func grayFromRGBA(img *image.RGBA, gray []byte) {
	pix := img.Pix
	for i, j := 0, 0; j < len(gray); i, j = i+4, j+1 {
		r, g, b := int(pix[i]), int(pix[i+1]), int(pix[i+2])
		gray[j] = byte((299*r + 587*g + 114*b) / 1000)
	}
}

// PackFrame binarizes a luminance frame into packed rows: 8 pixels per
// byte, MSB leftmost, each row padded to a whole byte. Pixels above the
// threshold pack as set bits (white) unless inverted.
func PackFrame(gray, packed []byte, width, height, threshold int, invert bool) {
	stride := (width + 7) / 8
	for i := range packed {
		packed[i] = 0
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			white := int(gray[y*width+x]) > threshold
			if invert {
				white = !white
			}
			if white {
				packed[y*stride+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
}

// otsuThreshold picks the luminance cut that maximizes between-class
// variance over the frame's histogram.
func otsuThreshold(gray []byte) int {
	var hist [256]int
	for _, v := range gray {
		hist[v]++
	}
	total := float64(len(gray))

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB, wB float64
	best := -1.0
	threshold := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = t
		}
	}
	return threshold
}
