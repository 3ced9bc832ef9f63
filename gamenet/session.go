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

package gamenet

import (
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	// MaxSendQueueSize is the hard cap on queued outbound frames; exceeding it
	// terminates the session.
	MaxSendQueueSize = 256
	// IdleTimeout disconnects a session after this much inbound silence,
	// measured from the last complete frame.
	IdleTimeout = 30 * time.Second
)

// SessionID identifies one accepted connection. IDs start at 1 and are not
// reused within a server lifetime.
type SessionID uint32

// OnRecv is invoked on the session's read goroutine for every fully validated
// inbound frame. The payload slice is reused for the next frame, so it is only
// valid for the duration of the call.
type OnRecv func(id SessionID, t PacketType, payload []byte)

// OnDisconnect is invoked exactly once when a session reaches its terminal
// state.
type OnDisconnect func(id SessionID)

// Session drives the framed I/O for a single accepted connection. A read
// goroutine decodes inbound frames; outbound frames go through a bounded FIFO
// queue drained by a writer goroutine that exists only while the queue is
// non-empty.
type Session struct {
	id   SessionID
	conn net.Conn

	mu        sync.Mutex // guards sendQueue and writing
	sendQueue [][]byte
	writing   bool

	die     chan struct{}
	dieOnce sync.Once

	idleTimeout time.Duration

	onRecv       OnRecv
	onDisconnect OnDisconnect
}

func newSession(id SessionID, conn net.Conn, onRecv OnRecv, onDisconnect OnDisconnect) *Session {
	return &Session{
		id:           id,
		conn:         conn,
		die:          make(chan struct{}),
		idleTimeout:  IdleTimeout,
		onRecv:       onRecv,
		onDisconnect: onDisconnect,
	}
}

// ID returns the session identifier.
func (s *Session) ID() SessionID { return s.id }

// Start arms the idle deadline and launches the read loop. The server calls
// it exactly once, after the session has entered the table and OnConnect has
// run.
func (s *Session) Start() {
	s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
	go s.readLoop()
}

// IsClosed reports whether Disconnect has fired.
func (s *Session) IsClosed() bool {
	select {
	case <-s.die:
		return true
	default:
		return false
	}
}

// Send queues a frame for transmission. Frames queued from a single goroutine
// are written in call order. Safe to call from any goroutine; frames for a
// disconnected session are dropped, and overflowing the queue terminates the
// session.
func (s *Session) Send(frame []byte) {
	s.mu.Lock()
	if s.IsClosed() {
		s.mu.Unlock()
		return
	}
	if len(s.sendQueue) >= MaxSendQueueSize {
		s.mu.Unlock()
		log.Printf("session %d: send queue full (%d frames), disconnecting", s.id, MaxSendQueueSize)
		s.Disconnect()
		return
	}
	s.sendQueue = append(s.sendQueue, frame)
	if !s.writing {
		s.writing = true
		go s.writeLoop()
	}
	s.mu.Unlock()
}

// Disconnect is the one-shot terminal transition: the first caller closes the
// socket (which fails any in-flight read or write) and delivers the
// disconnect notification; later callers are no-ops.
func (s *Session) Disconnect() {
	s.dieOnce.Do(func() {
		close(s.die)
		log.Printf("session %d: closed", s.id)
		s.conn.Close() // both directions; error ignored
		s.onDisconnect(s.id)
	})
}

// readLoop decodes frames until the connection dies: read one header, check
// the body size, read the body into a reused buffer, check the packet type,
// push the idle deadline out, hand the payload to the handler.
func (s *Session) readLoop() {
	hdr := make([]byte, HeaderSize)
	var body []byte

	for {
		if _, err := io.ReadFull(s.conn, hdr); err != nil {
			s.readError(err, "header")
			return
		}

		bodySize, ptype := DecodeHeader(hdr)
		if bodySize == 0 || bodySize > MaxPacketSize {
			log.Printf("session %d: bad body size %d, disconnecting", s.id, bodySize)
			s.Disconnect()
			return
		}

		if cap(body) < int(bodySize) {
			body = make([]byte, bodySize)
		}
		body = body[:bodySize]

		if _, err := io.ReadFull(s.conn, body); err != nil {
			s.readError(err, "body")
			return
		}
		if !IsValidPacketType(ptype) {
			log.Printf("session %d: bad packet type %d, disconnecting", s.id, ptype)
			s.Disconnect()
			return
		}

		// a complete frame arrived, push the idle deadline out
		s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		s.onRecv(s.id, ptype, body)
	}
}

func (s *Session) readError(err error, stage string) {
	switch {
	case s.IsClosed() || errors.Is(err, net.ErrClosed):
		// socket torn down by Disconnect, nothing to report
	case err == io.EOF:
		log.Printf("session %d: closed by peer", s.id)
	case isTimeout(err):
		log.Printf("session %d: no data for %v, disconnecting", s.id, s.idleTimeout)
	default:
		log.Printf("session %d: %s read error: %v", s.id, stage, err)
	}
	s.Disconnect()
}

// writeLoop drains the send queue. The head stays queued until it is fully
// written, so the frame being written counts toward the queue cap along with
// the frames waiting behind it.
func (s *Session) writeLoop() {
	for {
		s.mu.Lock()
		if len(s.sendQueue) == 0 {
			s.writing = false
			s.mu.Unlock()
			return
		}
		frame := s.sendQueue[0]
		s.mu.Unlock()

		if _, err := s.conn.Write(frame); err != nil {
			if !s.IsClosed() && !errors.Is(err, net.ErrClosed) {
				log.Printf("session %d: write error: %v", s.id, err)
			}
			s.Disconnect()
			return
		}

		s.mu.Lock()
		s.sendQueue = s.sendQueue[1:]
		s.mu.Unlock()
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
