// buzzer.go - Buzzer contract and the square-wave tone synth

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
	"sync"
)

const (
	SAMPLE_RATE = 44100
	DUTY_RANGE  = 1024.0 // Duty cycle field is 0-1023
	TONE_LEVEL  = 0.25   // Output amplitude of the square wave
)

// Buzzer drives the single-tone audio channel. SetTone holds the given
// frequency until the next call; frequency 0 and Silence both mute.
// Duty selects the square-wave pulse width, 0-1023.
type Buzzer interface {
	SetTone(frequencyHz uint32, duty uint16) error
	Silence() error
	Close() error
}

// Predefined buzzer backends
const (
	BUZZER_OTO = iota // Host audio device via oto
	BUZZER_NULL       // Records the last tone, outputs nothing
)

// NewBuzzer creates a buzzer using the specified backend.
func NewBuzzer(backend int) (Buzzer, error) {
	switch backend {
	case BUZZER_OTO:
		return NewOtoBuzzer()
	case BUZZER_NULL:
		return NewNullBuzzer(), nil
	}
	return nil, fmt.Errorf("unknown buzzer backend type: %d", backend)
}

// ToneSynth is a phase-accumulator square-wave oscillator. The playback
// loop sets the tone; the audio backend's mixer goroutine pulls samples
// through Fill, so the oscillator parameters sit behind an RWMutex.
type ToneSynth struct {
	mutex     sync.RWMutex
	frequency float32
	dutyCycle float32 // 0.0-1.0 high fraction of each period
	phase     float32
}

func NewToneSynth() *ToneSynth {
	return &ToneSynth{dutyCycle: 0.5}
}

func (ts *ToneSynth) SetTone(frequencyHz uint32, duty uint16) {
	if duty > 1023 {
		duty = 1023
	}
	ts.mutex.Lock()
	ts.frequency = float32(frequencyHz)
	ts.dutyCycle = float32(duty) / DUTY_RANGE
	ts.mutex.Unlock()
}

func (ts *ToneSynth) Silence() {
	ts.mutex.Lock()
	ts.frequency = 0
	ts.mutex.Unlock()
}

// Fill generates the next len(samples) mono float32 samples.
func (ts *ToneSynth) Fill(samples []float32) {
	ts.mutex.RLock()
	frequency := ts.frequency
	dutyCycle := ts.dutyCycle
	ts.mutex.RUnlock()

	if frequency == 0 {
		for i := range samples {
			samples[i] = 0
		}
		return
	}

	phaseInc := frequency * (2 * math.Pi / SAMPLE_RATE)
	threshold := float32(2 * math.Pi * dutyCycle)
	phase := ts.phase
	for i := range samples {
		if phase < threshold {
			samples[i] = TONE_LEVEL
		} else {
			samples[i] = -TONE_LEVEL
		}
		phase += phaseInc
		if phase >= 2*math.Pi {
			phase = float32(math.Mod(float64(phase), 2*math.Pi))
		}
	}
	ts.phase = phase
}

// NullBuzzer implements Buzzer without an audio device. It remembers
// the last applied tone, which is all the headless build and the tests
// need.
type NullBuzzer struct {
	mutex    sync.Mutex
	toneHz   uint32
	duty     uint16
	silenced bool
}

func NewNullBuzzer() *NullBuzzer {
	return &NullBuzzer{silenced: true}
}

func (nb *NullBuzzer) SetTone(frequencyHz uint32, duty uint16) error {
	nb.mutex.Lock()
	nb.toneHz = frequencyHz
	nb.duty = duty
	nb.silenced = frequencyHz == 0
	nb.mutex.Unlock()
	return nil
}

func (nb *NullBuzzer) Silence() error {
	nb.mutex.Lock()
	nb.toneHz = 0
	nb.silenced = true
	nb.mutex.Unlock()
	return nil
}

func (nb *NullBuzzer) Close() error {
	return nb.Silence()
}

// LastTone reports the most recently applied frequency and whether the
// buzzer is currently silent.
func (nb *NullBuzzer) LastTone() (frequencyHz uint32, silenced bool) {
	nb.mutex.Lock()
	defer nb.mutex.Unlock()
	return nb.toneHz, nb.silenced
}
