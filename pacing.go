// pacing.go - Fixed-interval frame pacing with drift accounting

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import "time"

// Pacer holds the playback loop to a fixed frame interval. Each cycle
// is bracketed by BeginCycle/EndCycle; when the cycle's work finishes
// early the pacer sleeps the residual, and when it overruns the budget
// the overrun is accumulated as drift instead of skipping frames.
// Every frame is always displayed: sustained overrun slows the observed
// rate but keeps the tone-to-frame mapping exact.
type Pacer struct {
	target time.Duration
	drift  time.Duration
	cycles uint64

	// Injectable for tests; default to the real clock.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewPacer(target time.Duration) *Pacer {
	return &Pacer{
		target: target,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// BeginCycle stamps the start of a cycle.
func (p *Pacer) BeginCycle() time.Time {
	return p.now()
}

// EndCycle sleeps whatever remains of the target interval, or records
// the overrun as drift when the cycle already ran long. This sleep is
// the only suspension point in the playback loop.
func (p *Pacer) EndCycle(start time.Time) {
	elapsed := p.now().Sub(start)
	if elapsed < p.target {
		p.sleep(p.target - elapsed)
	} else {
		p.drift += elapsed - p.target
	}
	p.cycles++
}

// Drift reports the accumulated overrun beyond the target interval.
func (p *Pacer) Drift() time.Duration {
	return p.drift
}

// Cycles reports how many cycles have completed.
func (p *Pacer) Cycles() uint64 {
	return p.cycles
}

// Target reports the configured frame interval.
func (p *Pacer) Target() time.Duration {
	return p.target
}

// Reset clears drift and cycle counts for a new playback pass.
func (p *Pacer) Reset() {
	p.drift = 0
	p.cycles = 0
}
