package main

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// captureSink records a copy of every blitted frame. failBlits makes
// the first N blits fail; onBlit fires after each successful blit with
// the running count.
type captureSink struct {
	mutex      sync.Mutex
	blits      [][]byte
	backlights []uint8
	failBlits  int
	onBlit     func(count int)
}

func (cs *captureSink) Blit(frame []byte) error {
	cs.mutex.Lock()
	if cs.failBlits > 0 {
		cs.failBlits--
		cs.mutex.Unlock()
		return &DisplayError{Operation: "blit", Details: "injected fault"}
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	cs.blits = append(cs.blits, cp)
	count := len(cs.blits)
	hook := cs.onBlit
	cs.mutex.Unlock()
	if hook != nil {
		hook(count)
	}
	return nil
}

func (cs *captureSink) SetBacklight(level uint8) error {
	cs.mutex.Lock()
	cs.backlights = append(cs.backlights, level)
	cs.mutex.Unlock()
	return nil
}

func (cs *captureSink) Close() error { return nil }

func (cs *captureSink) Blits() [][]byte {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return append([][]byte(nil), cs.blits...)
}

// captureBuzzer records the applied frequency of every call, zero for
// Silence.
type captureBuzzer struct {
	mutex sync.Mutex
	calls []uint32
}

func (cb *captureBuzzer) SetTone(frequencyHz uint32, duty uint16) error {
	cb.mutex.Lock()
	cb.calls = append(cb.calls, frequencyHz)
	cb.mutex.Unlock()
	return nil
}

func (cb *captureBuzzer) Silence() error {
	return cb.SetTone(0, 0)
}

func (cb *captureBuzzer) Close() error { return nil }

func (cb *captureBuzzer) Calls() []uint32 {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return append([]uint32(nil), cb.calls...)
}

// testConfig is a playback config for a tiny 16x8 frame (16 packed
// bytes) with no pacing delay, so tests run the loop flat out.
func testConfig() Config {
	return Config{
		ReelPath:  "in-memory",
		Width:     16,
		Height:    8,
		FPS:       60,
		Backlight: 255,
		Duty:      560,
		Backoff:   time.Millisecond,
	}
}

const testMonoSize = 16

// newTestPlayer wires a player to an in-memory reel and melody.
func newTestPlayer(config Config, reel []byte, melody []MelodyEvent) (*Player, *captureSink, *captureBuzzer) {
	sink := &captureSink{}
	buzzer := &captureBuzzer{}
	player := NewPlayer(config, sink, buzzer)
	player.openReel = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(reel)), nil
	}
	player.openMelody = func() ([]MelodyEvent, error) {
		return melody, nil
	}
	return player, sink, buzzer
}

func TestPlayer_CorruptFrameRepeatsLastGood(t *testing.T) {
	// Three records: good, corrupt, good. The corrupt one must show
	// the previous frame again, and playback must reach the third.
	frameA := buildTestFrame(testMonoSize, 0x01)
	frameC := buildTestFrame(testMonoSize, 0x03)
	payloadA, err := DeflateFrame(frameA, 6)
	if err != nil {
		t.Fatalf("DeflateFrame(frameA) failed: %v", err)
	}
	payloadC, err := DeflateFrame(frameC, 6)
	if err != nil {
		t.Fatalf("DeflateFrame(frameC) failed: %v", err)
	}
	reel := buildReelData(payloadA, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02}, payloadC)
	melody := []MelodyEvent{
		{ToneCode: 4400, DurationFrames: 2},
		{ToneCode: 0, DurationFrames: 1},
	}

	player, sink, buzzer := newTestPlayer(testConfig(), reel, melody)
	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	blits := sink.Blits()
	if len(blits) != 3 {
		t.Fatalf("expected 3 frames displayed, got %d", len(blits))
	}
	if !bytes.Equal(blits[0], frameA) {
		t.Error("frame 0: expected the first record's pixels")
	}
	if !bytes.Equal(blits[1], frameA) {
		t.Error("frame 1: expected the last good frame repeated for the corrupt record")
	}
	if !bytes.Equal(blits[2], frameC) {
		t.Error("frame 2: expected the third record's pixels")
	}

	// Mute at pass start, 440 Hz for two frames, melody silence on the
	// third, mute again at drain.
	wantTones := []uint32{0, 440, 440, 0, 0}
	gotTones := buzzer.Calls()
	if len(gotTones) != len(wantTones) {
		t.Fatalf("expected %d buzzer calls, got %d (%v)", len(wantTones), len(gotTones), gotTones)
	}
	for i := range wantTones {
		if gotTones[i] != wantTones[i] {
			t.Errorf("buzzer call %d: expected %d Hz, got %d Hz", i, wantTones[i], gotTones[i])
		}
	}

	if player.State() != StateIdle {
		t.Errorf("expected idle after a clean run, got %s", player.State())
	}
	session := player.Session()
	if session.FrameIndex != 3 {
		t.Errorf("expected frame index 3, got %d", session.FrameIndex)
	}
	if session.LoopCount != 1 {
		t.Errorf("expected 1 completed pass, got %d", session.LoopCount)
	}
}

func TestPlayer_CorruptFirstFrameShowsBlack(t *testing.T) {
	frame := buildTestFrame(testMonoSize, 0x55)
	payload, err := DeflateFrame(frame, 6)
	if err != nil {
		t.Fatalf("DeflateFrame failed: %v", err)
	}
	reel := buildReelData([]byte{0x01, 0x02, 0x03}, payload)

	player, sink, _ := newTestPlayer(testConfig(), reel, nil)
	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	blits := sink.Blits()
	if len(blits) != 2 {
		t.Fatalf("expected 2 frames displayed, got %d", len(blits))
	}
	if !bytes.Equal(blits[0], make([]byte, testMonoSize)) {
		t.Error("frame 0: expected all black before any good frame arrived")
	}
	if !bytes.Equal(blits[1], frame) {
		t.Error("frame 1: expected the good record's pixels")
	}
}

func TestPlayer_DisplaysEveryRecord(t *testing.T) {
	const n = 25
	var payloads [][]byte
	var frames [][]byte
	for i := 0; i < n; i++ {
		frame := buildTestFrame(testMonoSize, byte(i+1))
		payload, err := DeflateFrame(frame, 6)
		if err != nil {
			t.Fatalf("DeflateFrame(%d) failed: %v", i, err)
		}
		frames = append(frames, frame)
		payloads = append(payloads, payload)
	}
	reel := buildReelData(payloads...)

	config := testConfig()
	config.FrameInterval = time.Millisecond
	player, sink, _ := newTestPlayer(config, reel, nil)
	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	blits := sink.Blits()
	if len(blits) != n {
		t.Fatalf("expected every record displayed exactly once, got %d of %d", len(blits), n)
	}
	for i := range blits {
		if !bytes.Equal(blits[i], frames[i]) {
			t.Errorf("frame %d out of order or skipped", i)
		}
	}
	if got := player.Session().FrameIndex; got != n {
		t.Errorf("expected frame index %d, got %d", n, got)
	}
}

func TestPlayer_LoopRestartsFromTheTop(t *testing.T) {
	frame := buildTestFrame(testMonoSize, 0x42)
	payload, err := DeflateFrame(frame, 6)
	if err != nil {
		t.Fatalf("DeflateFrame failed: %v", err)
	}
	reel := buildReelData(payload, payload) // two frames per pass

	config := testConfig()
	config.Loop = true
	config.RestartDelay = 0

	opens := 0
	player, sink, buzzer := newTestPlayer(config, reel, []MelodyEvent{{ToneCode: 4400, DurationFrames: 1}})
	player.openReel = func() (io.ReadCloser, error) {
		opens++
		return io.NopCloser(bytes.NewReader(reel)), nil
	}
	// Stop during the third pass, after its first frame.
	sink.onBlit = func(count int) {
		if count == 5 {
			player.Stop()
		}
	}

	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if opens != 3 {
		t.Errorf("expected the reel opened 3 times, got %d", opens)
	}
	if got := len(sink.Blits()); got != 5 {
		t.Errorf("expected 5 frames displayed, got %d", got)
	}
	if got := player.Session().LoopCount; got != 2 {
		t.Errorf("expected 2 completed passes, got %d", got)
	}

	// The melody restarts with the reel: 440 Hz on the first frame of
	// every pass.
	var tone440 int
	for _, hz := range buzzer.Calls() {
		if hz == 440 {
			tone440++
		}
	}
	if tone440 != 3 {
		t.Errorf("expected the melody to restart each pass (3 tone calls), got %d", tone440)
	}
}

func TestPlayer_TruncatedStreamFaultsAndRetries(t *testing.T) {
	frame := buildTestFrame(testMonoSize, 0x10)
	payload, err := DeflateFrame(frame, 6)
	if err != nil {
		t.Fatalf("DeflateFrame failed: %v", err)
	}
	reel := buildReelData(payload)
	reel = append(reel, 0x44, 0x01) // prefix promising 324 bytes that never arrive

	player, sink, _ := newTestPlayer(testConfig(), reel, nil)
	opens := 0
	player.openReel = func() (io.ReadCloser, error) {
		opens++
		if opens == 3 {
			player.Stop()
		}
		return io.NopCloser(bytes.NewReader(reel)), nil
	}

	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Two passes faulted on the truncation and restarted; the third was
	// stopped before its first frame.
	if opens != 3 {
		t.Errorf("expected 3 pass attempts, got %d", opens)
	}
	if got := len(sink.Blits()); got != 2 {
		t.Errorf("expected 1 frame per faulted pass, got %d", got)
	}
	if got := player.Session().LoopCount; got != 0 {
		t.Errorf("faulted passes must not count as loops, got %d", got)
	}
	if player.State() != StateIdle {
		t.Errorf("expected idle after stop, got %s", player.State())
	}
}

func TestPlayer_SinkFaultRestartsThePass(t *testing.T) {
	frameA := buildTestFrame(testMonoSize, 0x0A)
	frameB := buildTestFrame(testMonoSize, 0x0B)
	payloadA, _ := DeflateFrame(frameA, 6)
	payloadB, _ := DeflateFrame(frameB, 6)
	reel := buildReelData(payloadA, payloadB)

	player, sink, _ := newTestPlayer(testConfig(), reel, nil)
	sink.failBlits = 1
	opens := 0
	player.openReel = func() (io.ReadCloser, error) {
		opens++
		return io.NopCloser(bytes.NewReader(reel)), nil
	}

	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if opens != 2 {
		t.Errorf("expected a restart after the sink fault, got %d opens", opens)
	}
	blits := sink.Blits()
	if len(blits) != 2 {
		t.Fatalf("expected the second pass to display both frames, got %d", len(blits))
	}
	if !bytes.Equal(blits[0], frameA) || !bytes.Equal(blits[1], frameB) {
		t.Error("second pass frames out of order")
	}
	if got := player.Session().LoopCount; got != 1 {
		t.Errorf("expected 1 completed pass, got %d", got)
	}
}

func TestPlayer_SilentAfterMelodyEnds(t *testing.T) {
	var payloads [][]byte
	for i := 0; i < 3; i++ {
		payload, err := DeflateFrame(buildTestFrame(testMonoSize, byte(i+1)), 6)
		if err != nil {
			t.Fatalf("DeflateFrame(%d) failed: %v", i, err)
		}
		payloads = append(payloads, payload)
	}
	reel := buildReelData(payloads...)

	player, _, buzzer := newTestPlayer(testConfig(), reel, []MelodyEvent{{ToneCode: 4400, DurationFrames: 1}})
	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Pass-start mute, one scored frame, then silence for the rest.
	wantTones := []uint32{0, 440, 0, 0, 0}
	gotTones := buzzer.Calls()
	if len(gotTones) != len(wantTones) {
		t.Fatalf("expected %d buzzer calls, got %v", len(wantTones), gotTones)
	}
	for i := range wantTones {
		if gotTones[i] != wantTones[i] {
			t.Errorf("buzzer call %d: expected %d Hz, got %d Hz", i, wantTones[i], gotTones[i])
		}
	}
}

func TestPlayer_BrokenMelodyPlaysSilent(t *testing.T) {
	payload, err := DeflateFrame(buildTestFrame(testMonoSize, 0x21), 6)
	if err != nil {
		t.Fatalf("DeflateFrame failed: %v", err)
	}
	reel := buildReelData(payload, payload)

	player, sink, buzzer := newTestPlayer(testConfig(), reel, nil)
	player.openMelody = func() ([]MelodyEvent, error) {
		return nil, errors.New("melody stream is 3 bytes, not a multiple of 4")
	}

	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(sink.Blits()); got != 2 {
		t.Errorf("expected video to play despite the melody, got %d frames", got)
	}
	for i, hz := range buzzer.Calls() {
		if hz != 0 {
			t.Errorf("buzzer call %d: expected silence, got %d Hz", i, hz)
		}
	}
}

func TestPlayer_StopBeforeRun(t *testing.T) {
	payload, _ := DeflateFrame(buildTestFrame(testMonoSize, 0x01), 6)
	reel := buildReelData(payload)

	player, sink, _ := newTestPlayer(testConfig(), reel, nil)
	player.Stop()
	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(sink.Blits()); got != 0 {
		t.Errorf("expected no frames after a pre-run stop, got %d", got)
	}
	if player.State() != StateIdle {
		t.Errorf("expected idle, got %s", player.State())
	}
}

func TestPlayer_EmptyReelCompletes(t *testing.T) {
	player, sink, _ := newTestPlayer(testConfig(), nil, nil)
	if err := player.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(sink.Blits()); got != 0 {
		t.Errorf("expected no frames from an empty reel, got %d", got)
	}
	if got := player.Session().LoopCount; got != 1 {
		t.Errorf("an empty reel still drains cleanly, expected 1 pass, got %d", got)
	}
}
