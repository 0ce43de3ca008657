//go:build !headless

// buzzer_oto.go - OTO v3 buzzer output implementation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoBuzzer feeds the square-wave synth to the host audio device. The
// oto player pulls samples through Read on its own goroutine; control
// calls only touch the synth's guarded parameters.
type OtoBuzzer struct {
	ctx       *oto.Context
	player    *oto.Player
	synth     *ToneSynth
	sampleBuf []float32
	mutex     sync.Mutex // Only for setup/control operations
	started   bool
}

func NewOtoBuzzer() (Buzzer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SAMPLE_RATE,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	ob := &OtoBuzzer{
		ctx:       ctx,
		synth:     NewToneSynth(),
		sampleBuf: make([]float32, 4096),
	}
	ob.player = ctx.NewPlayer(ob)
	ob.player.Play()
	ob.started = true
	return ob, nil
}

func (ob *OtoBuzzer) Read(p []byte) (n int, err error) {
	numSamples := len(p) / 4
	if len(ob.sampleBuf) < numSamples {
		ob.sampleBuf = make([]float32, numSamples)
	}
	samples := ob.sampleBuf[:numSamples]

	ob.synth.Fill(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return numSamples * 4, nil
}

func (ob *OtoBuzzer) SetTone(frequencyHz uint32, duty uint16) error {
	ob.synth.SetTone(frequencyHz, duty)
	return nil
}

func (ob *OtoBuzzer) Silence() error {
	ob.synth.Silence()
	return nil
}

func (ob *OtoBuzzer) Close() error {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()

	ob.synth.Silence()
	if ob.started && ob.player != nil {
		if err := ob.player.Close(); err != nil {
			return err
		}
		ob.player = nil
		ob.started = false
	}
	return nil
}
