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
	"log"
	"sync"
)

// Table is the registry of live sessions keyed by id. A session is present
// from the moment the server accepts it until its disconnect notification
// removes it.
type Table struct {
	mu       sync.Mutex
	sessions map[SessionID]*Session
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{sessions: make(map[SessionID]*Session)}
}

// Add registers a session. The server calls it before Start.
func (t *Table) Add(s *Session) {
	t.mu.Lock()
	t.sessions[s.ID()] = s
	t.mu.Unlock()
	log.Printf("session %d: registered", s.ID())
}

// Remove drops the session with the given id, if present.
func (t *Table) Remove(id SessionID) {
	t.mu.Lock()
	delete(t.sessions, id)
	t.mu.Unlock()
	log.Printf("session %d: removed", id)
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// snapshot copies the current session set so the table lock is never held
// while calling into a session; a send error path re-enters Remove.
func (t *Table) snapshot() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		snap = append(snap, s)
	}
	return snap
}

// Broadcast queues the frame on every live session. All recipients share the
// frame buffer; callers must not mutate it afterwards.
func (t *Table) Broadcast(frame []byte) {
	for _, s := range t.snapshot() {
		s.Send(frame)
	}
}

// Send queues the frame on a single session, if it is still live.
func (t *Table) Send(id SessionID, frame []byte) {
	t.mu.Lock()
	s := t.sessions[id]
	t.mu.Unlock()
	if s == nil {
		log.Printf("session %d: send to unknown session", id)
		return
	}
	s.Send(frame)
}

// DisconnectAll requests disconnect on every live session.
func (t *Table) DisconnectAll() {
	snap := t.snapshot()
	log.Printf("disconnecting %d sessions", len(snap))
	for _, s := range snap {
		s.Disconnect()
	}
}
