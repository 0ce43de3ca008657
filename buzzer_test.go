package main

import (
	"testing"
)

func TestToneSynth_SilenceFillsZeros(t *testing.T) {
	synth := NewToneSynth()
	samples := make([]float32, 256)
	samples[0] = 1.0 // must be overwritten
	synth.Fill(samples)
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d: expected 0, got %f", i, s)
		}
	}
}

func TestToneSynth_SquareWaveDutyCycle(t *testing.T) {
	// 100 Hz at 44100 Hz is a 441-sample period. With duty 256/1024
	// roughly a quarter of each period sits at the high level.
	synth := NewToneSynth()
	synth.SetTone(100, 256)
	samples := make([]float32, 441)
	synth.Fill(samples)

	high, low := 0, 0
	for i, s := range samples {
		switch s {
		case TONE_LEVEL:
			high++
		case -TONE_LEVEL:
			low++
		default:
			t.Fatalf("sample %d: expected +/-%f, got %f", i, float32(TONE_LEVEL), s)
		}
	}
	if high < 105 || high > 116 {
		t.Errorf("expected about 110 high samples for a quarter duty, got %d", high)
	}
	if high+low != 441 {
		t.Errorf("expected 441 classified samples, got %d", high+low)
	}
}

func TestToneSynth_HalfDuty(t *testing.T) {
	synth := NewToneSynth()
	synth.SetTone(100, 512)
	samples := make([]float32, 441)
	synth.Fill(samples)

	high := 0
	for _, s := range samples {
		if s == TONE_LEVEL {
			high++
		}
	}
	if high < 215 || high > 226 {
		t.Errorf("expected about half the samples high, got %d of 441", high)
	}
}

func TestToneSynth_DutyClamped(t *testing.T) {
	synth := NewToneSynth()
	synth.SetTone(440, 5000)
	if synth.dutyCycle > 1.0 {
		t.Errorf("expected duty clamped to at most 1.0, got %f", synth.dutyCycle)
	}
	if synth.dutyCycle < 0.99 {
		t.Errorf("expected duty near 1.0 after clamping, got %f", synth.dutyCycle)
	}
}

func TestToneSynth_SilenceAfterTone(t *testing.T) {
	synth := NewToneSynth()
	synth.SetTone(1000, 512)
	samples := make([]float32, 64)
	synth.Fill(samples)

	synth.Silence()
	synth.Fill(samples)
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d after Silence: expected 0, got %f", i, s)
		}
	}
}

func TestToneSynth_PhaseContinuity(t *testing.T) {
	// Two half-size fills must produce the same waveform as one full
	// fill; the phase carries across calls.
	a := NewToneSynth()
	b := NewToneSynth()
	a.SetTone(440, 512)
	b.SetTone(440, 512)

	joined := make([]float32, 200)
	a.Fill(joined[:100])
	a.Fill(joined[100:])

	whole := make([]float32, 200)
	b.Fill(whole)

	for i := range whole {
		if joined[i] != whole[i] {
			t.Fatalf("sample %d: split fill %f diverges from whole fill %f", i, joined[i], whole[i])
		}
	}
}

func TestNullBuzzer_TracksLastTone(t *testing.T) {
	nb := NewNullBuzzer()
	if hz, silenced := nb.LastTone(); hz != 0 || !silenced {
		t.Errorf("expected a new buzzer silent, got %d Hz silenced=%v", hz, silenced)
	}

	if err := nb.SetTone(440, 512); err != nil {
		t.Fatalf("SetTone failed: %v", err)
	}
	if hz, silenced := nb.LastTone(); hz != 440 || silenced {
		t.Errorf("expected 440 Hz sounding, got %d Hz silenced=%v", hz, silenced)
	}

	if err := nb.Silence(); err != nil {
		t.Fatalf("Silence failed: %v", err)
	}
	if hz, silenced := nb.LastTone(); hz != 0 || !silenced {
		t.Errorf("expected silence, got %d Hz silenced=%v", hz, silenced)
	}
}

func TestNullBuzzer_ZeroFrequencyIsSilence(t *testing.T) {
	nb := NewNullBuzzer()
	nb.SetTone(440, 512)
	nb.SetTone(0, 512)
	if _, silenced := nb.LastTone(); !silenced {
		t.Error("expected frequency 0 to register as silence")
	}
}

func TestNewBuzzer_UnknownBackend(t *testing.T) {
	if _, err := NewBuzzer(99); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}
