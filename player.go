// player.go - Playback orchestrator state machine

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
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// PlayerState tracks where the orchestrator is in its cycle:
// Idle -> Streaming -> Draining -> Idle on a clean pass, or
// Streaming -> Faulted -> Idle when the stream or a sink gives out.
type PlayerState int

const (
	StateIdle PlayerState = iota
	StateStreaming
	StateDraining
	StateFaulted
)

func (s PlayerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PlaybackSession is the per-playback mutable state, owned and mutated
// only by the orchestrator's cycle loop and reset on loop restart.
// LoopCount survives resets; it counts completed passes.
type PlaybackSession struct {
	FrameIndex             uint32
	ActiveBufferRole       BufferRole
	CumulativeDrift        time.Duration
	MelodyEventIndex       uint32
	FramesRemainingInEvent uint16
	LoopCount              uint32
}

var errStopped = errors.New("playback stopped")

const reelReadBuffer = 32 * 1024

// Player ties the reader, codec, frame pool, melody cursor, pacer and
// sinks into the per-frame cycle. Everything runs on the goroutine that
// calls Run; the sinks handle their own internal concurrency.
type Player struct {
	config  Config
	sink    DisplaySink
	buzzer  Buzzer
	pool    *FramePool
	codec   *FrameCodec
	pacer   *Pacer
	session PlaybackSession
	state   PlayerState

	stopCh   chan struct{}
	stopOnce sync.Once

	// Stream openers are fields so tests can feed in-memory reels.
	openReel   func() (io.ReadCloser, error)
	openMelody func() ([]MelodyEvent, error)

	passStart time.Time
	now       func() time.Time
}

func NewPlayer(config Config, sink DisplaySink, buzzer Buzzer) *Player {
	p := &Player{
		config: config,
		sink:   sink,
		buzzer: buzzer,
		pool:   NewFramePool(config.MonoSize()),
		codec:  NewFrameCodec(),
		pacer:  NewPacer(config.FrameInterval),
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
	p.openReel = func() (io.ReadCloser, error) { return os.Open(config.ReelPath) }
	p.openMelody = func() ([]MelodyEvent, error) { return LoadMelody(config.MelodyPath) }
	return p
}

// Stop requests a halt at the next cycle boundary. Safe to call from
// any goroutine and more than once.
func (p *Player) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *Player) State() PlayerState {
	return p.state
}

func (p *Player) Session() PlaybackSession {
	return p.session
}

func (p *Player) stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// waitOrStop sleeps for d, returning false if Stop cut the wait short.
func (p *Player) waitOrStop(d time.Duration) bool {
	if d <= 0 {
		return !p.stopped()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// Run plays the configured reel until the stream drains with looping
// disabled, or Stop is called. Stream and sink faults do not return:
// the pass restarts after the configured backoff.
func (p *Player) Run() error {
	for {
		if p.stopped() {
			p.state = StateIdle
			return nil
		}

		err := p.playPass()
		switch {
		case err == nil:
			p.session.LoopCount++
			if !p.config.Loop {
				p.state = StateIdle
				log.Printf("monoreel: reel finished after %d frames", p.session.FrameIndex)
				return nil
			}
			log.Printf("monoreel: pass %d complete, restarting", p.session.LoopCount)
			if !p.waitOrStop(p.config.RestartDelay) {
				p.state = StateIdle
				return nil
			}
		case errors.Is(err, errStopped):
			p.state = StateIdle
			return nil
		default:
			p.state = StateFaulted
			log.Printf("monoreel: playback fault: %v (restarting in %s)", err, p.config.Backoff)
			p.buzzer.Silence()
			if !p.waitOrStop(p.config.Backoff) {
				p.state = StateIdle
				return nil
			}
		}
		p.resetPass()
	}
}

// resetPass returns the per-pass session fields to their initial
// values. The frame buffers keep their content; a corrupt first record
// on a later pass repeats the last frame of the previous one.
func (p *Player) resetPass() {
	p.session.FrameIndex = 0
	p.session.CumulativeDrift = 0
	p.session.MelodyEventIndex = 0
	p.session.FramesRemainingInEvent = 0
	p.pacer.Reset()
	p.state = StateIdle
}

// playPass runs one full traversal of the reel. A nil return is a
// clean drain; errStopped reports an operator stop; anything else is a
// pass-fatal fault for Run to back off and retry.
func (p *Player) playPass() error {
	reel, err := p.openReel()
	if err != nil {
		return fmt.Errorf("open reel: %w", err)
	}
	defer reel.Close()

	events, err := p.openMelody()
	if err != nil {
		// A broken melody degrades to silence, same as a missing one.
		log.Printf("monoreel: melody unusable, playing silent: %v", err)
		events = nil
	}
	cursor := NewMelodyCursor(events)

	if err := p.sink.SetBacklight(p.config.Backlight); err != nil {
		return fmt.Errorf("sink fault: %w", err)
	}

	reader := NewReelReader(bufio.NewReaderSize(reel, reelReadBuffer))
	p.state = StateStreaming
	p.passStart = p.now()
	p.buzzer.Silence()

	for {
		if p.stopped() {
			p.buzzer.Silence()
			return errStopped
		}
		start := p.pacer.BeginCycle()

		payload, err := reader.NextRecord()
		if err == io.EOF {
			p.state = StateDraining
			p.buzzer.Silence()
			return nil
		}
		if err != nil {
			return err
		}

		if err := p.codec.InflateFrame(payload, p.pool.Back()); err != nil {
			if !errors.Is(err, ErrCorruptFrame) {
				return err
			}
			// Repeat the last good frame and keep going.
			log.Printf("monoreel: frame %d: %v", p.session.FrameIndex, err)
			copy(p.pool.Back(), p.pool.Front())
		}
		p.pool.Swap()

		if err := p.sink.Blit(p.pool.Front()); err != nil {
			return fmt.Errorf("sink fault: %w", err)
		}

		tone := cursor.ToneForFrame(p.session.FrameIndex)
		if err := p.applyTone(tone); err != nil {
			return fmt.Errorf("buzzer fault: %w", err)
		}

		p.session.FrameIndex++
		p.session.ActiveBufferRole = p.pool.FrontRole()
		p.session.MelodyEventIndex = cursor.EventIndex()
		p.session.FramesRemainingInEvent = cursor.FramesRemaining()
		p.publishStatus(tone)

		p.pacer.EndCycle(start)
		p.session.CumulativeDrift = p.pacer.Drift()
	}
}

// applyTone translates the melody's tone code into a buzzer call. The
// code is the frequency in Hz times 10; zero means silence.
func (p *Player) applyTone(toneCode uint16) error {
	if toneCode == 0 {
		return p.buzzer.Silence()
	}
	return p.buzzer.SetTone(uint32(toneCode)/10, p.config.Duty)
}

func (p *Player) publishStatus(toneCode uint16) {
	ss, ok := p.sink.(StatusSink)
	if !ok {
		return
	}
	elapsed := p.now().Sub(p.passStart).Seconds()
	var fps float64
	if elapsed > 0 {
		fps = float64(p.session.FrameIndex) / elapsed
	}
	ss.SetStatus(PlaybackStatus{
		FrameIndex: p.session.FrameIndex,
		LoopCount:  p.session.LoopCount,
		FPS:        fps,
		Drift:      p.pacer.Drift(),
		ToneHz:     float64(toneCode) / 10,
		State:      p.state,
	})
}
