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

// Package chat is a broadcast chat room on top of the gamenet engine.
//
// Payload layout:
//
//	C2S_CHAT body: UTF-8 message bytes
//	S2C_CHAT body: [ sender_id: 4 bytes (uint32 LE) ][ message: UTF-8 bytes ]
//
// Sender id 0 marks server notices (join/leave).
package chat

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/pinetree-games/gamegate/gamenet"
)

// ServerSender is the sender id used for server-originated notices.
const ServerSender gamenet.SessionID = 0

const senderSize = 4

// EncodeServerChat builds an S2C_CHAT payload.
func EncodeServerChat(sender gamenet.SessionID, message string) []byte {
	p := make([]byte, senderSize+len(message))
	binary.LittleEndian.PutUint32(p, uint32(sender))
	copy(p[senderSize:], message)
	return p
}

// DecodeServerChat splits an S2C_CHAT payload into sender id and message.
func DecodeServerChat(payload []byte) (sender gamenet.SessionID, message string, err error) {
	if len(payload) < senderSize {
		return 0, "", errors.Errorf("short chat payload: %d bytes", len(payload))
	}
	return gamenet.SessionID(binary.LittleEndian.Uint32(payload)), string(payload[senderSize:]), nil
}

// Handler relays chat traffic to every live session: join and leave notices
// plus an echo broadcast of every chat message tagged with its sender.
// Movement packets are accepted by the engine but ignored here.
type Handler struct {
	table *gamenet.Table
	quiet bool
}

// NewHandler creates a chat handler. Bind must be called with the server's
// table before the server starts accepting.
func NewHandler(quiet bool) *Handler {
	return &Handler{quiet: quiet}
}

// Bind hands the handler the session table it broadcasts through.
func (h *Handler) Bind(table *gamenet.Table) { h.table = table }

func (h *Handler) logln(v ...interface{}) {
	if !h.quiet {
		log.Println(v...)
	}
}

// OnConnect announces the newcomer to everyone, the newcomer included.
func (h *Handler) OnConnect(id gamenet.SessionID) {
	h.logln("chat: session", id, "joined")
	notice := EncodeServerChat(ServerSender, fmt.Sprintf("Session %d joined.", id))
	h.table.Broadcast(gamenet.Encode(gamenet.PacketS2CChat, notice))
}

// OnDisconnect announces the departure to the remaining sessions.
func (h *Handler) OnDisconnect(id gamenet.SessionID) {
	h.logln("chat: session", id, "left")
	notice := EncodeServerChat(ServerSender, fmt.Sprintf("Session %d left.", id))
	h.table.Broadcast(gamenet.Encode(gamenet.PacketS2CChat, notice))
}

// OnRecv echoes chat messages to every session, tagged with the sender id.
func (h *Handler) OnRecv(id gamenet.SessionID, t gamenet.PacketType, payload []byte) {
	if t != gamenet.PacketC2SChat {
		return
	}
	msg := string(payload) // copy, the engine reuses the payload buffer
	h.logln("chat:", id, ":", msg)
	h.table.Broadcast(gamenet.Encode(gamenet.PacketS2CChat, EncodeServerChat(id, msg)))
}
