// buffers.go - Double-buffered frame pool

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

// BufferRole identifies which of the pool's two buffers currently holds
// the front (displayed) role.
type BufferRole int

const (
	RoleA BufferRole = iota
	RoleB
)

func (r BufferRole) String() string {
	if r == RoleA {
		return "A"
	}
	return "B"
}

// FramePool owns exactly two frame buffers for the life of a playback
// session. The back buffer is written by the decompressor, the front
// buffer is read by the display sink, and Swap exchanges the roles once
// per cycle. Only the orchestrator's single loop touches the pool, so
// the role discipline needs no locking: between one Swap and the next,
// front is never written and back is never read.
type FramePool struct {
	front     []byte
	back      []byte
	frontRole BufferRole
}

// NewFramePool allocates both buffers zeroed (an all-black frame).
// The zeroed content is what gets repeated if the first record of a
// pass is corrupt.
func NewFramePool(monoSize int) *FramePool {
	return &FramePool{
		front:     make([]byte, monoSize),
		back:      make([]byte, monoSize),
		frontRole: RoleB, // buffer A is the first back buffer filled
	}
}

// Back returns the buffer currently being filled.
func (p *FramePool) Back() []byte {
	return p.back
}

// Front returns the buffer currently owned by the display sink.
func (p *FramePool) Front() []byte {
	return p.front
}

// Swap exchanges the front and back roles.
func (p *FramePool) Swap() {
	p.front, p.back = p.back, p.front
	if p.frontRole == RoleA {
		p.frontRole = RoleB
	} else {
		p.frontRole = RoleA
	}
}

// FrontRole reports which buffer identity holds the front role.
func (p *FramePool) FrontRole() BufferRole {
	return p.frontRole
}
