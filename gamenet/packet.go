// The MIT License (MIT)
//
// # Copyright (c) 2024 pinetree-games
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package gamenet is a length-prefixed TCP session engine: it accepts
// connections, frames binary packets, enforces per-session send limits and
// idle timeouts, and multiplexes sends across all live sessions.
package gamenet

import "encoding/binary"

// PacketType tags every frame on the wire.
type PacketType uint16

const (
	PacketUnknown PacketType = 0

	// client -> server
	PacketC2SMove PacketType = 1
	PacketC2SChat PacketType = 2

	// server -> client
	PacketS2CChat PacketType = 100
)

// Frame layout:
//
//	[ body_size: 4 bytes (uint32 LE) ][ type: 2 bytes (uint16 LE) ][ payload: body_size bytes ]
const (
	// HeaderSize is the wire size of a frame header.
	HeaderSize = 6
	// MaxPacketSize bounds the body of a single frame.
	MaxPacketSize = 64 * 1024
)

// IsValidPacketType reports whether a packet type is legal on the inbound
// path. Server-originated types are rejected here on purpose.
func IsValidPacketType(t PacketType) bool {
	switch t {
	case PacketC2SMove, PacketC2SChat:
		return true
	default:
		return false
	}
}

// Encode builds one wire frame from a packet type and its payload. The caller
// must keep len(payload) within MaxPacketSize.
func Encode(t PacketType, payload []byte) []byte {
	frame := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	binary.LittleEndian.PutUint16(frame[4:], uint16(t))
	copy(frame[HeaderSize:], payload)
	return frame
}

// DecodeHeader splits a raw 6-byte header into body size and packet type.
func DecodeHeader(hdr []byte) (bodySize uint32, t PacketType) {
	return binary.LittleEndian.Uint32(hdr), PacketType(binary.LittleEndian.Uint16(hdr[4:]))
}
