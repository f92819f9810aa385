// Package dfu implements the device firmware update protocol: packet
// framing, the transfer session state machine, and firmware image
// header handling.
//
// The transport is a collaborator. It pushes raw packet bytes into the
// [Controller] and receives single-byte status replies through a
// [ports.Notifier]; the controller never observes whether a reply was
// delivered.
package dfu

import (
	"encoding/binary"

	"github.com/nisc-labs/wearguard/internal/domain"
)

// Update protocol command bytes.
const (
	CmdStart  byte = 0x01
	CmdData   byte = 0x02
	CmdEnd    byte = 0x03
	CmdAbort  byte = 0x04
	CmdStatus byte = 0x05
)

// Status reply bytes pushed through the notify interface.
const (
	StatusOK          byte = 0x00
	StatusError       byte = 0x01
	StatusBusy        byte = 0x02
	StatusInvalidData byte = 0x03
)

// MaxPayload is the maximum packet payload size in bytes.
const MaxPayload = 244

// headerLen is the fixed packet header: command (1) + length (2, LE).
const headerLen = 3

// startPayloadLen is the minimum Start payload: total size (4, LE) +
// expected CRC32 (4, LE).
const startPayloadLen = 8

// Packet is one decoded update protocol packet.
type Packet struct {
	Command byte
	Payload []byte
}

// ParsePacket decodes a wire packet {command:u8, length:u16 LE,
// payload:length bytes}. It rejects packets whose declared length
// exceeds MaxPayload or whose buffer is shorter than the declared
// length. The returned payload aliases buf.
func ParsePacket(buf []byte) (Packet, error) {
	if len(buf) < headerLen {
		return Packet{}, domain.ErrInvalidArgument
	}
	length := int(binary.LittleEndian.Uint16(buf[1:3]))
	if length > MaxPayload {
		return Packet{}, domain.ErrInvalidArgument
	}
	if len(buf) < headerLen+length {
		return Packet{}, domain.ErrInvalidArgument
	}
	return Packet{
		Command: buf[0],
		Payload: buf[headerLen : headerLen+length],
	}, nil
}

// Encode returns the wire form of the packet.
func (p Packet) Encode() ([]byte, error) {
	if len(p.Payload) > MaxPayload {
		return nil, domain.ErrInvalidArgument
	}
	buf := make([]byte, headerLen+len(p.Payload))
	buf[0] = p.Command
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(p.Payload)))
	copy(buf[headerLen:], p.Payload)
	return buf, nil
}

// StartPacket builds a Start packet announcing a transfer of totalSize
// bytes with the given expected CRC32.
func StartPacket(totalSize, crc uint32) Packet {
	payload := make([]byte, startPayloadLen)
	binary.LittleEndian.PutUint32(payload[0:4], totalSize)
	binary.LittleEndian.PutUint32(payload[4:8], crc)
	return Packet{Command: CmdStart, Payload: payload}
}

// DataPacket builds a Data packet carrying one firmware chunk.
func DataPacket(chunk []byte) Packet {
	return Packet{Command: CmdData, Payload: chunk}
}
