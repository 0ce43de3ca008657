// display_serial.go - Serial device link display sink

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/MonoReel
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Device link framing: one packet per operation, an additive checksum
// over every byte after the magic.
//
//	[0] 0xA5 magic
//	[1] opcode (0x01 frame, 0x02 backlight)
//	[2:4] sequence, u16 little-endian
//	[4:6] payload length, u16 little-endian
//	[6:...] payload
//	[last] checksum
//
// The bridge firmware answers each packet with a single 0x06 ACK byte.
const (
	linkMagic       = 0xA5
	linkOpFrame     = 0x01
	linkOpBacklight = 0x02
	linkAck         = 0x06

	linkAckTimeout = time.Second
)

// DeviceLinkSink ships frames to an external display bridge over a
// serial port. Writes are synchronous; with AckWait set each packet
// additionally waits for the bridge's ACK byte.
type DeviceLinkSink struct {
	port    serial.Port
	seq     uint16
	ackWait bool
	packet  []byte
	ackBuf  [16]byte
}

func NewDeviceLinkSink(config DisplayConfig) (DisplaySink, error) {
	if config.Port == "" {
		return nil, &DisplayError{
			Operation: "device link open",
			Details:   "no serial port configured",
		}
	}
	baud := config.Baud
	if baud == 0 {
		baud = 115200
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(config.Port, mode)
	if err != nil {
		return nil, &DisplayError{
			Operation: "device link open",
			Details:   config.Port,
			Err:       err,
		}
	}
	port.ResetInputBuffer()
	port.ResetOutputBuffer()

	return &DeviceLinkSink{
		port:    port,
		ackWait: config.AckWait,
		packet:  make([]byte, 0, 7+config.MonoSize()),
	}, nil
}

// buildLinkPacket appends one framed packet to dst and returns it.
func buildLinkPacket(dst []byte, op byte, seq uint16, payload []byte) []byte {
	dst = append(dst, linkMagic, op,
		byte(seq&0xFF), byte((seq>>8)&0xFF),
		byte(len(payload)&0xFF), byte((len(payload)>>8)&0xFF))
	dst = append(dst, payload...)
	sum := 0
	for i := 1; i < len(dst); i++ {
		sum += int(dst[i])
	}
	return append(dst, byte(sum&0xFF))
}

func (dl *DeviceLinkSink) send(op byte, payload []byte) error {
	if len(payload) > 0xFFFF {
		return &DisplayError{
			Operation: "device link send",
			Details:   fmt.Sprintf("payload %d bytes exceeds packet length field", len(payload)),
		}
	}
	dl.packet = buildLinkPacket(dl.packet[:0], op, dl.seq, payload)
	n, err := dl.port.Write(dl.packet)
	if err != nil {
		return &DisplayError{Operation: "device link send", Details: "port write", Err: err}
	}
	if n != len(dl.packet) {
		return &DisplayError{
			Operation: "device link send",
			Details:   fmt.Sprintf("short write: %d of %d bytes", n, len(dl.packet)),
		}
	}
	dl.seq++
	if dl.ackWait {
		return dl.waitForACK(linkAckTimeout)
	}
	return nil
}

func (dl *DeviceLinkSink) waitForACK(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		dl.port.SetReadTimeout(50 * time.Millisecond)
		n, err := dl.port.Read(dl.ackBuf[:])
		if err != nil {
			return &DisplayError{Operation: "device link ack", Details: "port read", Err: err}
		}
		for _, b := range dl.ackBuf[:n] {
			if b == linkAck {
				return nil
			}
		}
	}
	return &DisplayError{Operation: "device link ack", Details: "timeout"}
}

func (dl *DeviceLinkSink) Blit(frame []byte) error {
	return dl.send(linkOpFrame, frame)
}

func (dl *DeviceLinkSink) SetBacklight(level uint8) error {
	return dl.send(linkOpBacklight, []byte{level})
}

func (dl *DeviceLinkSink) Close() error {
	if dl.port == nil {
		return nil
	}
	err := dl.port.Close()
	dl.port = nil
	return err
}
